package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// IsFile reports whether path names an existing non-directory entry.
func IsFile(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// FirstFile returns the first candidate that is an existing file, or "".
func FirstFile(candidates ...string) string {
	for _, c := range candidates {
		if IsFile(c) {
			return c
		}
	}
	return ""
}

// ExistingDirs returns the candidates that are existing directories, in order,
// with duplicates and empty entries removed.
func ExistingDirs(candidates ...string) []string {
	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if IsDir(c) {
			out = append(out, c)
		}
	}
	return out
}

// SplitList splits a PATH-style list using the OS list separator, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, p := range filepath.SplitList(s) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
