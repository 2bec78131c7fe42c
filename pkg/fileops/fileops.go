// Package fileops implements the file-tree sync operations named in §4.6:
// copy (with and without overwrite), move, delete, mkdir, and handing a
// path off to the system viewer. Every verb that accepts a destination
// root is confinement-checked via pkg/pathguard before touching disk.
//
// The copy strategy is adapted from opencoff-go-fio's safefile.go/clone.go:
// a file is written to a sibling temporary name in the destination
// directory and renamed into place only once the copy completes without
// error, so a failed copy never leaves a partial file at the final name.
// Directories are walked and recreated entry-by-entry rather than cloned as
// a unit, since this module's directories carry no metadata beyond
// structure (see pkg/entrymodel).
package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dualpane/corefs/pkg/logging"
	"github.com/dualpane/corefs/pkg/must"
	"github.com/dualpane/corefs/pkg/pathguard"
)

// Sentinel errors matching the taxonomy in spec.md §7. Wrapped at the point
// of origin by callers (pkg/facade) with github.com/pkg/errors.Wrap so
// errors.Is against these still works while the returned message carries
// full context.
var (
	ErrAlreadyExists = errors.New("fileops: destination already exists")
	ErrNotFound      = errors.New("fileops: target does not exist")
	ErrInvalidName   = errors.New("fileops: invalid name")
	ErrInvalidPath   = pathguard.ErrInvalidPath
	ErrLaunchFailed  = errors.New("fileops: unable to launch system viewer")
)

// CopyEntry copies source (file or directory, recursively) into
// destDir/<basename(source)>. It fails with ErrAlreadyExists if the
// destination path already exists. destDir must be confined within root.
func CopyEntry(root, source, destDir string, logger *logging.Logger) error {
	dest, err := resolveDestination(root, source, destDir)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dest); err == nil {
		return ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("fileops: unable to stat destination: %w", err)
	}
	return copyInto(source, dest, logger)
}

// CopyEntryOverwrite is like CopyEntry but removes any existing destination
// (recursively, for directories) before copying.
func CopyEntryOverwrite(root, source, destDir string, logger *logging.Logger) error {
	dest, err := resolveDestination(root, source, destDir)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dest); err == nil {
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("fileops: unable to remove existing destination: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("fileops: unable to stat destination: %w", err)
	}
	return copyInto(source, dest, logger)
}

// MoveEntry moves source into destDir/<basename(source)>. It attempts
// os.Rename first (the same-filesystem fast path) and falls back to
// copy-then-delete across filesystems. Fails with ErrAlreadyExists if the
// destination already exists.
func MoveEntry(root, source, destDir string, logger *logging.Logger) error {
	dest, err := resolveDestination(root, source, destDir)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dest); err == nil {
		return ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("fileops: unable to stat destination: %w", err)
	}

	if err := os.Rename(source, dest); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return fmt.Errorf("fileops: unable to rename: %w", err)
	}

	if err := copyInto(source, dest, logger); err != nil {
		return err
	}
	if err := os.RemoveAll(source); err != nil {
		return fmt.Errorf("fileops: copied but unable to remove source: %w", err)
	}
	return nil
}

// DeleteEntry recursively removes target.
func DeleteEntry(target string) error {
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("fileops: unable to stat target: %w", err)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("fileops: unable to remove: %w", err)
	}
	return nil
}

// CreateDirectory creates parentPath/name. It rejects names containing a
// path separator, "..", or a NUL byte, and fails with ErrAlreadyExists if
// the directory already exists.
func CreateDirectory(parentPath, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	target := filepath.Join(parentPath, name)
	if err := os.Mkdir(target, 0755); err != nil {
		if os.IsExist(err) {
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("fileops: unable to create directory: %w", err)
	}
	return target, nil
}

// OpenFile hands path off to the host OS's registered viewer for its type.
// It does not wait on the viewer process's lifetime; spawn failure is
// reported immediately, but the core has no further visibility into the
// launched application.
func OpenFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	// Reap the launcher process asynchronously; we don't wait on the
	// viewer itself (it's typically forked away from cmd already, but the
	// launcher process we started still needs its exit status collected).
	go func() { _ = cmd.Wait() }()
	return nil
}

// validateName rejects names that aren't a single path component.
func validateName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\") || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

// resolveDestination validates source exists and computes/confinement-checks
// the full destination path for a copy/move into destDir.
func resolveDestination(root, source, destDir string) (string, error) {
	if _, err := os.Lstat(source); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("fileops: unable to stat source: %w", err)
	}
	dest := filepath.Join(destDir, filepath.Base(source))
	canonical, err := pathguard.WithinNonExistent(root, dest)
	if err != nil {
		return "", err
	}
	return canonical, nil
}

// copyInto copies source (file, directory, or symlink) to dest, recursing
// for directories. Symlinks are recreated as links, never dereferenced, per
// the module-wide no-traversal-of-symlinks rule.
func copyInto(source, dest string, logger *logging.Logger) error {
	info, err := os.Lstat(source)
	if err != nil {
		return fmt.Errorf("fileops: unable to stat source: %w", err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return copySymlink(source, dest)
	case info.IsDir():
		return copyDir(source, dest, logger)
	default:
		return copyFileAtomic(source, dest, info.Mode())
	}
}

func copySymlink(source, dest string) error {
	target, err := os.Readlink(source)
	if err != nil {
		return fmt.Errorf("fileops: unable to read link: %w", err)
	}
	if err := os.Symlink(target, dest); err != nil {
		return fmt.Errorf("fileops: unable to create link: %w", err)
	}
	return nil
}

func copyDir(source, dest string, logger *logging.Logger) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("fileops: unable to stat directory: %w", err)
	}
	if err := os.Mkdir(dest, info.Mode().Perm()); err != nil && !os.IsExist(err) {
		return fmt.Errorf("fileops: unable to create directory: %w", err)
	}

	children, err := os.ReadDir(source)
	if err != nil {
		return fmt.Errorf("fileops: unable to read directory: %w", err)
	}
	for _, child := range children {
		childSource := filepath.Join(source, child.Name())
		childDest := filepath.Join(dest, child.Name())
		if err := copyInto(childSource, childDest, logger); err != nil {
			must.RemoveAll(dest, logger)
			return err
		}
	}
	return nil
}

// copyFileAtomic copies source to a sibling temporary file in dest's
// directory, then renames it into place. A failed copy never leaves a
// partial file at dest — the temporary is removed instead.
func copyFileAtomic(source, dest string, mode os.FileMode) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("fileops: unable to open source: %w", err)
	}
	defer in.Close()

	temporary, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("fileops: unable to create temporary file: %w", err)
	}
	temporaryPath := temporary.Name()

	if _, err := io.Copy(temporary, in); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("fileops: unable to copy data: %w", err)
	}
	if err := temporary.Chmod(mode.Perm()); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("fileops: unable to set file mode: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("fileops: unable to close temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, dest); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("fileops: unable to rename into place: %w", err)
	}
	return nil
}

// isCrossDevice reports whether err represents a rename failure due to the
// source and destination residing on different filesystems (EXDEV), the
// signal that MoveEntry should fall back to copy+delete.
func isCrossDevice(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	if !ok {
		return false
	}
	return strings.Contains(linkErr.Err.Error(), "cross-device") ||
		strings.Contains(strings.ToLower(linkErr.Err.Error()), "exdev")
}
