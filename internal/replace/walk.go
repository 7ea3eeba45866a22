package replace

import (
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Matcher decides whether a path below the root is excluded.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles exclude patterns. Patterns use '/' as separator and
// support '*', '**', '?', '[...]' and '{a,b}'.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, newConfigError(ConfigErrorInvalidExclude, pattern, fmt.Errorf("%w: %w", ErrInvalidExclude, err))
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether relPath (relative to the root, OS separators) or its
// base name matches any pattern. A nil Matcher matches nothing.
func (m *Matcher) Match(relPath string) bool {
	if m == nil || len(m.globs) == 0 {
		return false
	}
	slashed := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	for _, g := range m.globs {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// Files yields every regular file under root in lexical order. Directories,
// symlinks and special files are not yielded and symlinked directories are
// not followed. Entries matched by excludes are skipped; an excluded
// directory is not descended into. A directory that cannot be read is
// yielded once with its error and the walk continues.
func Files(root string, excludes *Matcher) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(path, err) {
					return filepath.SkipAll
				}
				if d == nil {
					// root itself could not be read
					return filepath.SkipAll
				}
				return nil
			}

			if path == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && excludes.Match(rel) {
				slog.Debug("Excluded path", "path", path)
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				slog.Debug("Skipping non-regular entry", "path", path, "type", d.Type().String())
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
