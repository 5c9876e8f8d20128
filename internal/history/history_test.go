package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), limit)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, 0)
	for _, line := range []string{"a = 1", "a = 1", "print(a)", "a = 1"} {
		if err := s.Add(ctx, line); err != nil {
			t.Fatalf("add %q: %v", line, err)
		}
	}
	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a = 1", "print(a)", "a = 1"}
	if len(got) != len(want) {
		t.Fatalf("recent = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLimitPrunesOldest(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, 2)
	for _, line := range []string{"1", "2", "3"} {
		if err := s.Add(ctx, line); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	got, _ := s.Recent(ctx, 5)
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("recent = %q", got)
	}
}

func TestReopenKeepsLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "h.db")
	s, err := Open(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	first := s.Session()
	if err := s.Add(ctx, "x = 2"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Session() == first {
		t.Error("sessions should differ between opens")
	}
	got, _ := s.Recent(ctx, 10)
	if len(got) != 1 || got[0] != "x = 2" {
		t.Errorf("recent = %q", got)
	}
}
