package facade

import "errors"

// Sentinel errors matching the kind taxonomy in spec.md §7. Each is wrapped
// at the point of origin with github.com/pkg/errors.Wrap (mutagen's own
// wrap-at-origin convention) so that errors.Is against the sentinel still
// works for host code while the returned message carries full context.
var (
	ErrInvalidPath        = errors.New("invalid path")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotADirectory      = errors.New("not a directory")
	ErrIsADirectory       = errors.New("is a directory")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrIoFailed           = errors.New("I/O operation failed")
	ErrOperationCancelled = errors.New("operation cancelled")
	ErrLaunchFailed       = errors.New("unable to launch external process")
	ErrInternalError      = errors.New("internal error")
)

// errNotADirectory is an internal marker distinguishing "not a directory"
// from other stat failures in listDirectory, translated to ErrNotADirectory
// by translateListErr. It never escapes this package.
var errNotADirectory = errors.New("facade: path is not a directory")
