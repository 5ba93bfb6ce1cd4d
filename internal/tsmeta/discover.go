package tsmeta

import (
	"os"
	"path/filepath"
	"strings"
)

// gatherCandidates lists every file with a recognized extension in the
// given directories. Directories that do not exist or cannot be read are
// skipped. Results come back in directory order with names sorted within
// each directory, which keeps "first candidate wins" deterministic.
func gatherCandidates(dirs, exts []string) []string {
	var out []string

	for _, dir := range dirs {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			if hasRecognizedExt(entry.Name(), exts) {
				out = append(out, filepath.Join(dir, entry.Name()))
			}
		}
	}

	return out
}

// chooseCandidate picks the TS file for key: a candidate whose basename
// without extension equals key (case-insensitive) beats one whose name
// merely contains key as a substring.
func chooseCandidate(key string, candidates []string) (string, bool) {
	keyUpper := strings.ToUpper(key)

	var substrMatch string

	for _, path := range candidates {
		name := filepath.Base(path)
		base := strings.TrimSuffix(name, filepath.Ext(name))

		if strings.ToUpper(base) == keyUpper {
			return path, true
		}

		if substrMatch == "" && strings.Contains(strings.ToUpper(name), keyUpper) {
			substrMatch = path
		}
	}

	if substrMatch != "" {
		return substrMatch, true
	}

	return "", false
}

// SiblingTS looks for a TS companion of the model at modelPath: first the
// fixed sibling spellings of the model's base name, then any file in the
// model's directory whose name contains both the base name and "TS" and
// carries a recognized extension.
func SiblingTS(modelPath string, exts []string) (string, bool) {
	base := strings.TrimSuffix(modelPath, filepath.Ext(modelPath))

	fixed := []string{
		base + ".ts",
		base + ".TS",
		base + "_TS.txt",
		base + "_ts.txt",
		base + ".txt",
	}

	for _, candidate := range fixed {
		if fileExists(candidate) {
			return candidate, true
		}
	}

	dir := filepath.Dir(modelPath)
	baseName := filepath.Base(base)

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		return "", false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.Contains(name, baseName) &&
			strings.Contains(strings.ToUpper(name), "TS") &&
			hasRecognizedExt(name, exts) {
			return filepath.Join(dir, name), true
		}
	}

	return "", false
}

func hasRecognizedExt(name string, exts []string) bool {
	lower := strings.ToLower(name)

	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, statErr := os.Stat(path)

	return statErr == nil && !info.IsDir()
}
