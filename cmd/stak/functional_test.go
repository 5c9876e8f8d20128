package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/stak/internal/config"
)

// TestFunctional runs every testdata program that has a .want file through
// the CLI entry point and compares stdout followed by stderr.
func TestFunctional(t *testing.T) {
	var testFiles []string
	err := filepath.Walk("testdata", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !config.IsSourceFile(path) {
			return nil
		}
		wantFile := strings.TrimSuffix(path, filepath.Ext(path)) + ".want"
		if _, err := os.Stat(wantFile); err == nil {
			testFiles = append(testFiles, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk testdata: %v", err)
	}
	if len(testFiles) == 0 {
		t.Skip("No test files with .want found")
	}

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), filepath.Ext(testFile))
		t.Run(testName, func(t *testing.T) {
			wantBytes, err := os.ReadFile(strings.TrimSuffix(testFile, filepath.Ext(testFile)) + ".want")
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}

			_, stdout, stderr := runCLI(t, "", "-color", "never", "-no-history", testFile)

			got := strings.TrimSpace(stdout)
			if s := strings.TrimSpace(stderr); s != "" {
				s = strings.ReplaceAll(s, filepath.ToSlash(testFile), testName)
				if got != "" {
					got += "\n"
				}
				got += s
			}
			want := strings.TrimSpace(strings.ReplaceAll(string(wantBytes), "\r\n", "\n"))
			if got != want {
				t.Errorf("Output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
		})
	}
}
