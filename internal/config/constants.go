package config

import "strings"

const SourceFileExt = ".stk"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".stk", ".stak"}

// IsSourceFile checks if a file has a recognized source extension
func IsSourceFile(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Config file names, in lookup order.
var ConfigFileNames = []string{"stak.yaml", "stak.yml"}

const (
	DefaultLogLevel     = "warn"
	DefaultColor        = "auto"
	DefaultEncoding     = "utf-8"
	DefaultHistoryPath  = "~/.stak_history.db"
	DefaultHistoryLimit = 500
)

// REPL prompts
const (
	Prompt             = "stak> "
	ContinuationPrompt = "....> "
)
