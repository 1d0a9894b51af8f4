package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	docsDirName  = "docs"
	diffsDirName = "diffs"

	// DiffExtension is appended to a repository name to form its archive file
	DiffExtension = ".diff"
)

// CleanPath sanitizes a file path and makes it absolute
func CleanPath(path string) (string, error) {
	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}

	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}

	return cleaned, nil
}

// SafeName maps a repository name onto a single path element
func SafeName(repoName string) string {
	safe := strings.ReplaceAll(repoName, "/", "_")
	safe = strings.ReplaceAll(safe, "\\", "_")
	if safe == "." || safe == ".." {
		safe = "_" + safe
	}
	return safe
}

// DocsRoot returns the directory holding every local clone
func DocsRoot(contentRoot string) string {
	return filepath.Join(contentRoot, docsDirName)
}

// DiffsRoot returns the diff archive directory
func DiffsRoot(contentRoot string) string {
	return filepath.Join(contentRoot, diffsDirName)
}

// ClonePath returns the local clone directory of a repository
func ClonePath(docsRoot, repoName string) string {
	return filepath.Join(docsRoot, SafeName(repoName))
}

// DiffFileName returns the archive file name of a repository
func DiffFileName(repoName string) string {
	return SafeName(repoName) + DiffExtension
}
