package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and routes
// each complete line to a callback.
type writer struct {
	callback func(string)
	buffer   []byte
}

func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is a leveled, prefixable logger. A nil *Logger is valid and silently
// discards everything, so callers that haven't wired a logger (e.g. in
// lightweight tests) never need a nil check. It is safe for concurrent use.
type Logger struct {
	// level gates which methods actually produce output.
	level Level
	// output is the underlying destination for formatted lines.
	output io.Writer
	// outputLock serializes writes to output, since io.Writer.Write is not
	// guaranteed to be safe for concurrent use by arbitrary writers.
	outputLock *sync.Mutex
	// prefix is the dotted sublogger path, e.g. "scanner.worker".
	prefix string
}

// NewLogger creates a root logger at the given level, writing to output.
func NewLogger(level Level, output io.Writer) *Logger {
	return &Logger{
		level:      level,
		output:     output,
		outputLock: &sync.Mutex{},
	}
}

// RootLogger is a process-wide default logger writing to stderr at info
// level. Components that aren't handed an explicit logger by their
// constructor fall back to a sublogger of this one.
var RootLogger = NewLogger(LevelInfo, os.Stderr)

// Sublogger creates a new logger with name appended to the dotted prefix.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{
		level:      l.level,
		output:     l.output,
		outputLock: l.outputLock,
		prefix:     prefix,
	}
}

func (l *Logger) line(level Level, text string) {
	if l == nil || l.level < level {
		return
	}
	if l.prefix != "" {
		text = fmt.Sprintf("[%s] %s", l.prefix, text)
	}
	l.outputLock.Lock()
	defer l.outputLock.Unlock()
	fmt.Fprintln(l.output, text)
}

// Error logs err, prefixed and colorized red, if the logger's level is at
// least LevelError.
func (l *Logger) Error(err error) {
	l.line(LevelError, color.RedString("error: %v", err))
}

// Errorf formats and logs at LevelError.
func (l *Logger) Errorf(format string, v ...any) {
	l.line(LevelError, color.RedString("error: "+format, v...))
}

// Warn logs err, prefixed and colorized yellow, if the logger's level is at
// least LevelWarn.
func (l *Logger) Warn(err error) {
	l.line(LevelWarn, color.YellowString("warning: %v", err))
}

// Warnf formats and logs at LevelWarn.
func (l *Logger) Warnf(format string, v ...any) {
	l.line(LevelWarn, color.YellowString("warning: "+format, v...))
}

// Info logs at LevelInfo with fmt.Sprint semantics.
func (l *Logger) Info(v ...any) {
	l.line(LevelInfo, fmt.Sprint(v...))
}

// Infof logs at LevelInfo with fmt.Sprintf semantics.
func (l *Logger) Infof(format string, v ...any) {
	l.line(LevelInfo, fmt.Sprintf(format, v...))
}

// Debug logs at LevelDebug with fmt.Sprint semantics.
func (l *Logger) Debug(v ...any) {
	l.line(LevelDebug, fmt.Sprint(v...))
}

// Debugf logs at LevelDebug with fmt.Sprintf semantics.
func (l *Logger) Debugf(format string, v ...any) {
	l.line(LevelDebug, fmt.Sprintf(format, v...))
}

// Trace logs at LevelTrace with fmt.Sprint semantics.
func (l *Logger) Trace(v ...any) {
	l.line(LevelTrace, fmt.Sprint(v...))
}

// Tracef logs at LevelTrace with fmt.Sprintf semantics.
func (l *Logger) Tracef(format string, v ...any) {
	l.line(LevelTrace, fmt.Sprintf(format, v...))
}

// Writer returns an io.Writer that forwards complete lines to Info. It's
// useful for plumbing a *Logger in as the destination for a subprocess's
// stdout/stderr chatter.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Info(s) }}
}
