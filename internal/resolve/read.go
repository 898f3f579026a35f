// Package resolve expands a user's -f/--filename arguments (literal
// files, glob patterns, directories, and http(s) URLs) into the list of
// manifest sources a command should read, used by cmd/.
package resolve

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsURL reports whether filename names a remote manifest rather than a
// local path.
func IsURL(filename string) bool {
	return strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://")
}

// ReadRemoteFileContent fetches a manifest over HTTP(S). Only a plain
// net/http.Get is needed here; no third-party HTTP client in the pack
// covers a one-shot unauthenticated GET any more directly (see DESIGN.md).
func ReadRemoteFileContent(url string) ([]byte, error) {
	resp, err := http.Get(url) //nolint:gosec,noctx // manifest source is operator-supplied, same trust level as a local path
	if err != nil {
		return nil, fmt.Errorf("resolve: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("resolve: fetching %s: status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("resolve: reading %s: %w", url, err)
	}
	return body, nil
}

// ReadFileContent reads a single manifest source, local or remote.
func ReadFileContent(filename string) ([]byte, error) {
	if IsURL(filename) {
		return ReadRemoteFileContent(filename)
	}
	return os.ReadFile(filename)
}

// ResolveAllFiles expands filenames (literal paths, glob patterns, and
// directories) into a sorted, deduplicated list of concrete file paths.
// URLs pass through untouched. When recursive is set, directories are
// walked to every nested manifest file (.yaml/.yml/.json); otherwise only
// their direct entries are read.
func ResolveAllFiles(filenames []string, recursive bool) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, f := range filenames {
		if IsURL(f) {
			add(f)
			continue
		}

		info, err := os.Stat(f)
		if err == nil && info.IsDir() {
			entries, err := collectDir(f, recursive)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				add(e)
			}
			continue
		}

		matches, err := filepath.Glob(f)
		if err != nil {
			return nil, fmt.Errorf("resolve: invalid glob pattern %q: %w", f, err)
		}
		if len(matches) == 0 {
			// not a glob, or a glob with no hits: treat literally so a
			// missing-file error surfaces at read time, not here.
			add(f)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(out)
	return out, nil
}

func isManifestFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml" || ext == ".json"
}

func collectDir(dir string, recursive bool) ([]string, error) {
	var out []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve: reading directory %q: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !isManifestFile(e.Name()) {
				continue
			}
			out = append(out, filepath.Join(dir, e.Name()))
		}
		return out, nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isManifestFile(d.Name()) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve: walking directory %q: %w", dir, err)
	}
	return out, nil
}
