// Package pathguard implements root-confinement checks: the single
// predicate every fileops verb with a declared destination root must pass
// before touching the filesystem. There is no equivalent in the teacher
// repository (mutagen never writes into a caller-chosen root on the local
// machine; its synchronization roots are configured once, ahead of time,
// not supplied per call) — this is a fresh implementation, written in the
// idiom of mutagen's own path-handling helpers (small, single-purpose
// functions returning a canonical path or a sentinel error).
package pathguard

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned when a path cannot be canonicalized or escapes
// its declared root.
var ErrInvalidPath = errors.New("pathguard: invalid path")

// Within canonicalizes root and candidate and verifies that candidate is
// root itself or a descendant of it. It returns the canonical form of
// candidate on success. Both root and candidate must already exist on disk
// for symlink resolution to be meaningful; use WithinNonExistent for a
// destination path that hasn't been created yet.
func Within(root, candidate string) (string, error) {
	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return "", ErrInvalidPath
	}
	canonicalCandidate, err := canonicalize(candidate)
	if err != nil {
		return "", ErrInvalidPath
	}
	if !isDescendantOrEqual(canonicalRoot, canonicalCandidate) {
		return "", ErrInvalidPath
	}
	return canonicalCandidate, nil
}

// WithinNonExistent is like Within but tolerates candidate not yet existing
// on disk (e.g. a copy/move destination that's about to be created): it
// canonicalizes the deepest existing ancestor of candidate and rejoins the
// remaining path components, so a symlink earlier in the chain still can't
// be used to escape root.
func WithinNonExistent(root, candidate string) (string, error) {
	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return "", ErrInvalidPath
	}
	if !filepath.IsAbs(candidate) {
		return "", ErrInvalidPath
	}
	candidate = filepath.Clean(candidate)

	canonicalCandidate, err := canonicalizeNearestExisting(candidate)
	if err != nil {
		return "", ErrInvalidPath
	}
	if !isDescendantOrEqual(canonicalRoot, canonicalCandidate) {
		return "", ErrInvalidPath
	}
	return canonicalCandidate, nil
}

// RequireAbsolute rejects paths with no declared root to check against, per
// §4.1: list_directory performs no confinement check but must still reject
// relative paths and anything containing a NUL byte.
func RequireAbsolute(path string) error {
	if path == "" || !filepath.IsAbs(path) {
		return ErrInvalidPath
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}
	return nil
}

// canonicalize resolves path to an absolute, symlink-free form. The target
// must exist.
func canonicalize(path string) (string, error) {
	if err := RequireAbsolute(path); err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// canonicalizeNearestExisting walks up from path until it finds an existing
// ancestor, resolves that ancestor's symlinks, and rejoins the
// not-yet-existing suffix.
func canonicalizeNearestExisting(path string) (string, error) {
	suffix := []string{}
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(suffix) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, suffix[i])
			}
			return filepath.Clean(resolved), nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrInvalidPath
		}
		suffix = append(suffix, filepath.Base(current))
		current = parent
	}
}

// isDescendantOrEqual reports whether candidate is root or lies under it,
// comparing path components rather than raw string prefixes (so
// "/a/bb" is not considered a descendant of "/a/b").
func isDescendantOrEqual(root, candidate string) bool {
	if root == candidate {
		return true
	}
	separator := string(filepath.Separator)
	rootWithSep := root
	if !strings.HasSuffix(rootWithSep, separator) {
		rootWithSep += separator
	}
	return strings.HasPrefix(candidate, rootWithSep)
}
