// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolver discovers the set of source documents a completion
// query should scan: either the flat set of sibling documents in one
// directory, or the transitive closure of \input/\include directives
// starting from the triggering file.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// Resolve returns the absolute paths of all documents in rootDir whose
// extension matches cfg.Extension, sorted by name. A missing or
// unreadable rootDir is a ConfigError; it fails the whole resolution.
func Resolve(rootDir string, cfg types.ResolverConfig) ([]string, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, &types.ConfigError{Path: rootDir, Reason: "not resolvable", Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &types.ConfigError{Path: rootDir, Reason: "not readable", Err: err}
	}
	if !info.IsDir() {
		return nil, &types.ConfigError{Path: rootDir, Reason: "not a directory"}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, &types.ConfigError{Path: rootDir, Reason: "not listable", Err: err}
	}

	ext := cfg.Extension
	if ext == "" {
		ext = ".tex"
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		files = append(files, filepath.Join(abs, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// includeCommands are the directives that pull another document into
// the compilation unit.
var includeCommands = []string{"input", "include"}

// ResolveTree returns rootFile plus every document reachable from it
// through \input and \include directives. The walk tracks a visited
// set so include cycles terminate; a directive naming a file that does
// not exist produces a warning, not a failure. Order is the
// depth-first discovery order, the same order the compiler would read
// the files.
func ResolveTree(rootFile string, cfg types.ResolverConfig) ([]string, []types.Warning, error) {
	abs, err := filepath.Abs(rootFile)
	if err != nil {
		return nil, nil, &types.ConfigError{Path: rootFile, Reason: "not resolvable", Err: err}
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, nil, &types.ConfigError{Path: rootFile, Reason: "not readable", Err: err}
	} else if info.IsDir() {
		return nil, nil, &types.ConfigError{Path: rootFile, Reason: "is a directory, expected a document"}
	}

	ext := cfg.Extension
	if ext == "" {
		ext = ".tex"
	}

	var (
		files    []string
		warnings []types.Warning
		visited  = map[string]bool{}
	)

	var walk func(path string)
	walk = func(path string) {
		if visited[path] {
			return
		}
		visited[path] = true
		files = append(files, path)

		data, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, types.Warningf(path, 0, "skipped: %v", err))
			return
		}

		dir := filepath.Dir(path)
		for lineNr, line := range strings.Split(string(data), "\n") {
			for _, name := range includeArgs(line) {
				target := name
				if filepath.Ext(target) == "" {
					target += ext
				}
				if !filepath.IsAbs(target) {
					target = filepath.Join(dir, target)
				}
				if _, err := os.Stat(target); err != nil {
					warnings = append(warnings,
						types.Warningf(path, lineNr+1, "included file %s not found", name))
					continue
				}
				walk(target)
			}
		}
	}
	walk(abs)

	return files, warnings, nil
}

// includeArgs extracts the arguments of all include directives on one
// line. Comments are honored: everything after an unescaped % is
// ignored.
func includeArgs(line string) []string {
	line = stripComment(line)

	var args []string
	for _, cmd := range includeCommands {
		marker := "\\" + cmd + "{"
		rest := line
		for {
			i := strings.Index(rest, marker)
			if i < 0 {
				break
			}
			rest = rest[i+len(marker):]
			j := strings.IndexByte(rest, '}')
			if j < 0 {
				break
			}
			arg := strings.TrimSpace(rest[:j])
			if arg != "" {
				args = append(args, arg)
			}
			rest = rest[j+1:]
		}
	}
	return args
}

// stripComment removes a trailing TeX comment from the line. A %
// escaped as \% does not start a comment.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && (i == 0 || line[i-1] != '\\') {
			return line[:i]
		}
	}
	return line
}

// DirOf returns the owning directory of a document path, the root used
// for sibling resolution and database lookups.
func DirOf(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return filepath.Dir(abs), nil
}
