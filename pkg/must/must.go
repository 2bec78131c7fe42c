// Package must provides helpers for cleanup operations that can fail but
// whose failure isn't actionable by the caller (closing a file we're done
// with, removing a scratch temp file) — the alternative is a swallowed error
// or a wall of "if err := x.Close(); err != nil { log... }" at every call
// site. Each helper logs a warning on failure and otherwise does nothing.
package must

import (
	"io"
	"os"

	"github.com/dualpane/corefs/pkg/logging"
)

// Close closes c, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// Remove removes the named file or empty directory, logging a warning on
// failure.
func Remove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}

// RemoveAll recursively removes path, logging a warning on failure.
func RemoveAll(path string, logger *logging.Logger) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warnf("unable to remove '%s': %s", path, err.Error())
	}
}

// Signal sends sig to s, logging a warning on failure.
func Signal(s interface{ Signal(os.Signal) error }, sig os.Signal, logger *logging.Logger) {
	if err := s.Signal(sig); err != nil {
		logger.Warnf("unable to signal '%s': %s", sig, err.Error())
	}
}

// Kill forcibly terminates s, logging a warning on failure.
func Kill(s interface{ Kill() error }, logger *logging.Logger) {
	if err := s.Kill(); err != nil {
		logger.Warnf("unable to kill: %s", err.Error())
	}
}

// IOCopy copies from src to dst, logging a warning if the copy is
// interrupted by an error.
func IOCopy(dst io.Writer, src io.Reader, logger *logging.Logger) {
	if _, err := io.Copy(dst, src); err != nil {
		logger.Warnf("unable to copy: %s", err.Error())
	}
}

// Truncate truncates t to size, logging a warning on failure.
func Truncate(t interface{ Truncate(int64) error }, size int64, logger *logging.Logger) {
	if err := t.Truncate(size); err != nil {
		logger.Warnf("unable to truncate to size %d: %s", size, err.Error())
	}
}

// Succeed logs a warning if a best-effort operation identified by task
// failed, without otherwise surfacing the error to the caller.
func Succeed(err error, task string, logger *logging.Logger) {
	if err != nil {
		logger.Warnf("unable to complete %s: %s", task, err.Error())
	}
}
