package cucumber

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	featureFileExtension = ".feature"
)

var ErrNoFeatures = errors.New("no feature files found")

// FindFeatures expands feature path entries relative to base into sorted,
// absolute feature file paths. An entry is a file, a directory searched
// recursively, or a glob in which "**" spans any number of directories.
func FindFeatures(base string, entries []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) {
		p = filepath.Clean(p)
		if seen[p] {
			return
		}
		seen[p] = true
		files = append(files, p)
	}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		resolved := entry
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(base, resolved)
		}

		if hasGlob(entry) {
			matches, err := glob(resolved)
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", entry, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		found, err := findFeatures(resolved)
		if err != nil {
			return nil, fmt.Errorf("find features in %q: %w", entry, err)
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

func findFeatures(target string) ([]string, error) {
	var files []string

	fi, err := os.Stat(target)
	if err != nil {
		return nil, err
	}

	switch mode := fi.Mode(); {
	case mode.IsDir():
		err := filepath.WalkDir(target, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == featureFileExtension {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	case mode.IsRegular():
		files = append(files, target)
	}

	return files, nil
}

// glob walks from the static prefix of pattern and keeps the feature files
// whose slash separated path matches it.
func glob(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))

	segments := strings.Split(pattern, "/")
	static := 0
	for static < len(segments) && !hasGlob(segments[static]) {
		static++
	}
	root := strings.Join(segments[:static], "/")
	if root == "" {
		root = "/"
	}

	if _, err := os.Stat(filepath.FromSlash(root)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var matches []string
	err := filepath.WalkDir(filepath.FromSlash(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != featureFileExtension {
			return nil
		}
		ok, err := matchSegments(strings.Split(pattern, "/"), strings.Split(filepath.ToSlash(p), "/"))
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, p)
		}
		return nil
	})
	return matches, err
}

func matchSegments(pattern, name []string) (bool, error) {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for i := 0; i <= len(name); i++ {
				ok, err := matchSegments(pattern[1:], name[i:])
				if ok || err != nil {
					return ok, err
				}
			}
			return false, nil
		}
		if len(name) == 0 {
			return false, nil
		}
		ok, err := path.Match(pattern[0], name[0])
		if !ok || err != nil {
			return false, err
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0, nil
}

func hasGlob(value string) bool {
	return strings.ContainsAny(value, "*?[")
}

// SplitLines separates trailing ":line" suffixes from a feature path, as in
// "features/login.feature:3:12".
func SplitLines(entry string) (string, []uint64) {
	var lines []uint64
	for {
		i := strings.LastIndex(entry, ":")
		if i < 0 {
			break
		}
		n, err := strconv.ParseUint(entry[i+1:], 10, 64)
		if err != nil {
			break
		}
		lines = append([]uint64{n}, lines...)
		entry = entry[:i]
	}
	return entry, lines
}
