// Package fileset projects a set of filesystem roots (plus excluded
// roots and excluded extensions) into a concrete, deduplicated list of
// candidate file paths, and enforces the "shadowing" rule that keeps a
// candidate root set and a reference root set disjoint.
package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludedExts are the file extensions skipped by default when
// walking a root, matching this program's CLI default.
var DefaultExcludedExts = []string{"png", "jpg", "bmp", "jpeg", "txt", "text", "db"}

// FileSet describes which paths belong to a logical set: every path
// under one of Sources, minus any path under one of Excludes, minus any
// path whose extension is in ExcludedExts.
type FileSet struct {
	Sources      []string
	Excludes     []string
	ExcludedExts []string
}

// Includes reports whether path belongs to this FileSet.
func (fs FileSet) Includes(path string) bool {
	if !anyIsAncestor(fs.Sources, path) {
		return false
	}
	if anyIsAncestor(fs.Excludes, path) {
		return false
	}
	if hasExcludedExt(path, fs.ExcludedExts) {
		return false
	}
	return true
}

// EnumerateFromFS walks the filesystem and returns every path this
// FileSet includes, sorted and deduplicated for determinism. It is
// fatal (returns an error) if any source or exclude root does not
// exist.
func (fset FileSet) EnumerateFromFS() ([]string, error) {
	for _, p := range fset.Sources {
		if !pathExists(p) {
			return nil, fmt.Errorf("fileset: source path does not exist: %s", p)
		}
	}
	for _, p := range fset.Excludes {
		if !pathExists(p) {
			return nil, fmt.Errorf("fileset: exclude path does not exist: %s", p)
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, root := range fset.Sources {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !fset.Includes(path) {
				return nil
			}
			if _, dup := seen[path]; !dup {
				seen[path] = struct{}{}
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fileset: walk %s: %w", root, err)
		}
	}

	sort.Strings(out)
	return out, nil
}

// EnumerateFromCacheKeys filters a set of previously-cached paths (the
// cache's own keys) down to the ones this FileSet currently includes,
// without touching the filesystem.
func (fset FileSet) EnumerateFromCacheKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if fset.Includes(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ResolveShadowing makes a candidate FileSet and a reference FileSet
// disjoint. Two identical roots can't be resolved by exclusion and are
// a hard error. When one side's source root is a descendant of the
// other's, the deeper root is added as an exclude on the shallower
// side, so the shallower side's own enumeration skips the subtree that
// belongs to the deeper, more specific side.
func ResolveShadowing(candidates, refs *FileSet) error {
	for _, c := range candidates.Sources {
		for _, r := range refs.Sources {
			switch {
			case samePath(c, r):
				return fmt.Errorf("fileset: path given as both candidate and reference: %s", c)
			case isAncestorOf(c, r):
				// r nests under c: c (candidates) is shallower.
				candidates.Excludes = append(candidates.Excludes, r)
			case isAncestorOf(r, c):
				// c nests under r: r (refs) is shallower.
				refs.Excludes = append(refs.Excludes, c)
			}
		}
	}
	return nil
}

func anyIsAncestor(roots []string, path string) bool {
	for _, r := range roots {
		if isAncestorOf(r, path) {
			return true
		}
	}
	return false
}

// isAncestorOf reports whether root is path itself, or a directory
// containing path.
func isAncestorOf(root, path string) bool {
	rootAbs, err1 := filepath.Abs(root)
	pathAbs, err2 := filepath.Abs(path)
	if err1 != nil || err2 != nil {
		return false
	}
	if rootAbs == pathAbs {
		return true
	}
	rel, err := filepath.Rel(rootAbs, pathAbs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func samePath(a, b string) bool {
	aAbs, err1 := filepath.Abs(a)
	bAbs, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aAbs == bAbs
}

func hasExcludedExt(path string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
