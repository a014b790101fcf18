package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandGlobs expands file paths and glob patterns into a sorted unique list.
func ExpandGlobs(patterns []string) ([]string, error) {
	return ExpandInputs(patterns, "")
}

// ExpandInputs is like ExpandGlobs but also accepts directories. A directory
// expands to the regular files directly inside it whose name ends in suffix
// (every file when suffix is empty).
func ExpandInputs(patterns []string, suffix string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no file patterns provided")
	}

	files := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		if hasGlobMeta(pattern) {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no matches for pattern %q", pattern)
			}
			for _, match := range matches {
				add(match)
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			add(pattern)
			continue
		}

		entries, err := os.ReadDir(pattern)
		if err != nil {
			return nil, err
		}
		before := len(files)
		for _, e := range entries {
			if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), suffix) {
				continue
			}
			add(filepath.Join(pattern, e.Name()))
		}
		if len(files) == before {
			return nil, fmt.Errorf("no %s files in directory %q", suffixLabel(suffix), pattern)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func suffixLabel(suffix string) string {
	if suffix == "" {
		return "regular"
	}
	return "*" + suffix
}
