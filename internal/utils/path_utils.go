package utils

import (
	"path/filepath"

	"github.com/funvibe/stak/internal/config"
)

// ResolveSourcePath turns an import argument into a file path. A missing
// extension defaults to the source extension; relative paths are taken
// from baseDir.
func ResolveSourcePath(baseDir, importPath string) string {
	if filepath.Ext(importPath) == "" {
		importPath += config.SourceFileExt
	}
	if filepath.IsAbs(importPath) || baseDir == "" || baseDir == "." {
		return filepath.Clean(importPath)
	}
	return filepath.Join(baseDir, importPath)
}

// ModuleName derives a module name from a file path: the base name without
// a recognized source extension.
func ModuleName(path string) string {
	name := filepath.Base(path)
	for _, ext := range config.SourceFileExtensions {
		if filepath.Ext(name) == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
