package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"), "stak.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want warn", cfg.LogLevel)
	}
	if cfg.Color != "auto" {
		t.Errorf("color = %q, want auto", cfg.Color)
	}
	if cfg.Encoding != "utf-8" {
		t.Errorf("encoding = %q, want utf-8", cfg.Encoding)
	}
	if !cfg.History.IsEnabled() {
		t.Error("history should default to enabled")
	}
	if cfg.History.Limit != DefaultHistoryLimit {
		t.Errorf("history.limit = %d, want %d", cfg.History.Limit, DefaultHistoryLimit)
	}
}

func TestParseConfig_Full(t *testing.T) {
	yaml := `
log_level: debug
color: never
encoding: shift_jis
prelude:
  - lib/prelude.stk
  - /abs/other.stk
history:
  enabled: false
  path: /tmp/h.db
  limit: 10
`
	cfg, err := ParseConfig([]byte(yaml), "/proj/stak.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Color != "never" || cfg.Encoding != "shift_jis" {
		t.Errorf("unexpected scalars: %+v", cfg)
	}
	if cfg.History.IsEnabled() {
		t.Error("history should be disabled")
	}
	if cfg.History.Path != "/tmp/h.db" || cfg.History.Limit != 10 {
		t.Errorf("history = %+v", cfg.History)
	}
	want := []string{filepath.Join("/proj", "lib/prelude.stk"), "/abs/other.stk"}
	for i, p := range want {
		if cfg.Prelude[i] != p {
			t.Errorf("prelude[%d] = %q, want %q", i, cfg.Prelude[i], p)
		}
	}
	if cfg.Path != "/proj/stak.yaml" {
		t.Errorf("path = %q", cfg.Path)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad level", "log_level: loud", "log_level"},
		{"bad color", "color: sometimes", "color"},
		{"bad encoding", "encoding: klingon-8", "encoding"},
		{"empty prelude", "prelude: ['  ']", "prelude[0]"},
		{"negative limit", "history:\n  limit: -1", "history.limit"},
		{"not yaml", "log_level: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml), "stak.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "stak.yml")
	if err := os.WriteFile(path, []byte("color: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != path {
		t.Errorf("found %q, want %q", found, path)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Color != "always" {
		t.Errorf("color = %q, want always", cfg.Color)
	}
}

func TestDiscover_NoConfig(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Path != "" || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestHistoryPathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Default()
	p, err := cfg.HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(home, ".stak_history.db") {
		t.Errorf("history path = %q", p)
	}
}

func TestIsSourceFile(t *testing.T) {
	if !IsSourceFile("main.stk") || IsSourceFile("main.go") {
		t.Error("IsSourceFile misclassified")
	}
}
