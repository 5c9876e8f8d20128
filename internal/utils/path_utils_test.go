package utils

import (
	"path/filepath"
	"testing"
)

func TestResolveSourcePath(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{".", "lib", "lib.stk"},
		{"", "./lib.stk", "lib.stk"},
		{"src", "lib", filepath.Join("src", "lib.stk")},
		{"src", "../shared/util", filepath.Join("shared", "util.stk")},
		{"src", "/abs/lib.stk", "/abs/lib.stk"},
		{"src", "data.txt", filepath.Join("src", "data.txt")},
	}
	for _, tt := range tests {
		if got := ResolveSourcePath(tt.base, tt.path); got != tt.want {
			t.Errorf("ResolveSourcePath(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestModuleName(t *testing.T) {
	tests := map[string]string{
		"lib.stk":          "lib",
		"a/b/geometry.stk": "geometry",
		"notes.txt":        "notes.txt",
	}
	for in, want := range tests {
		if got := ModuleName(in); got != want {
			t.Errorf("ModuleName(%q) = %q, want %q", in, got, want)
		}
	}
}
