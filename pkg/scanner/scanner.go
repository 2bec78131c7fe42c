// Package scanner implements the cancellable parallel directory walk that
// feeds the full comparator: given an absolute root, it produces a flat map
// from slash-separated relative path to entrymodel.EntryMeta. It is grounded
// on mutagen's pkg/synchronization/core scan.go (recursive walk producing a
// flat entry tree) and opencoff-go-fio's workpool.go (bounded worker
// concurrency), adapted here as unbounded goroutine spawn per subdirectory
// gated by a semaphore acquired inside each walk call rather than a
// fixed-size submission channel: the fan-out factor isn't known up front,
// and a producer that holds its own slot while blocking to acquire one for
// its child can deadlock once concurrent branching exceeds the worker
// count. Gating entry into the walk body instead of entry into the spawn
// call keeps every blocked goroutine resource-free while it waits its turn.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dualpane/corefs/pkg/entrymodel"
	"github.com/dualpane/corefs/pkg/logging"
	"github.com/dualpane/corefs/pkg/state"
)

// ErrCancelled is returned by Scan when the context is cancelled before the
// walk completes. Whatever was gathered before cancellation is still
// returned alongside the error.
var ErrCancelled = context.Canceled

// progressInterval is the coalescing window for progress callbacks, meeting
// the "at most 10Hz" contract.
const progressInterval = 100 * time.Millisecond

// Result is the output of a completed or cancelled scan.
type Result struct {
	// Entries maps relative path (slash-separated, root excluded) to its
	// metadata. Keys are case-sensitive, independent of the host
	// filesystem's own case sensitivity.
	Entries map[string]entrymodel.EntryMeta
	// Errors holds one message per relative path that could not be
	// inspected (permission errors, races against concurrent deletion,
	// etc). These do not abort the scan.
	Errors map[string]string
}

// Options configures a Scan call.
type Options struct {
	// Workers bounds walk concurrency. Zero or negative selects
	// runtime.NumCPU().
	Workers int
	// Progress, if non-nil, is invoked at no more than ~10Hz with the
	// cumulative number of entries scanned so far. It may be called from
	// any goroutine.
	Progress func(entriesScanned uint64)
	// Logger receives diagnostic output; may be nil.
	Logger *logging.Logger
}

// Scan walks root and returns a flat relative-path-to-metadata map. On
// cancellation via ctx, it returns everything gathered so far along with
// ErrCancelled.
func Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}

	result := &Result{
		Entries: make(map[string]entrymodel.EntryMeta),
		Errors:  make(map[string]string),
	}

	var scanned uint64
	var resultLock sync.Mutex
	var cancelled state.Marker

	coalescer := state.NewCoalescer(progressInterval)
	defer coalescer.Terminate()
	if opts.Progress != nil {
		go func() {
			for range coalescer.Events() {
				opts.Progress(atomic.LoadUint64(&scanned))
			}
		}()
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	// Concurrency is throttled by acquiring sem as the first thing each
	// walk call does, not by the caller acquiring on its behalf before
	// spawning. Goroutine creation itself stays unbounded (cheap): a
	// goroutine blocked waiting for its turn holds no resource, so there is
	// no cycle where every walker is stuck holding a slot while waiting for
	// one more. Acquiring-before-spawn would let that cycle form as soon as
	// directory branching exceeds the worker count.
	var walk func(relDir, absDir string)
	walk = func(relDir, absDir string) {
		defer wg.Done()

		sem <- struct{}{}
		defer func() { <-sem }()

		if ctx.Err() != nil {
			cancelled.Mark()
			return
		}

		children, err := os.ReadDir(absDir)
		if err != nil {
			resultLock.Lock()
			result.Errors[relDir] = err.Error()
			resultLock.Unlock()
			if opts.Logger != nil {
				opts.Logger.Warnf("unable to read directory %q: %v", absDir, err)
			}
			return
		}

		for _, child := range children {
			if ctx.Err() != nil {
				cancelled.Mark()
				return
			}

			name := child.Name()
			relPath := name
			if relDir != "" {
				relPath = path.Join(filepath.ToSlash(relDir), name)
			}
			absPath := filepath.Join(absDir, name)

			info, err := os.Lstat(absPath)
			if err != nil {
				resultLock.Lock()
				result.Errors[relPath] = err.Error()
				resultLock.Unlock()
				continue
			}

			meta, err := classify(absPath, info)
			if err != nil {
				resultLock.Lock()
				result.Errors[relPath] = err.Error()
				resultLock.Unlock()
				continue
			}

			resultLock.Lock()
			result.Entries[relPath] = meta
			resultLock.Unlock()
			atomic.AddUint64(&scanned, 1)
			coalescer.Strobe()

			if meta.Kind == entrymodel.KindDir {
				wg.Add(1)
				go walk(relPath, absPath)
			}
		}
	}

	wg.Add(1)
	go walk("", root)
	wg.Wait()

	if cancelled.Marked() {
		return result, ErrCancelled
	}
	return result, nil
}

// classify converts an os.FileInfo (from Lstat, so symlinks are never
// dereferenced) into an entrymodel.EntryMeta, reading the link target for
// symlinks.
func classify(absPath string, info os.FileInfo) (entrymodel.EntryMeta, error) {
	modTime := info.ModTime().UnixMilli()

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		target, err := os.Readlink(absPath)
		if err != nil {
			return entrymodel.EntryMeta{}, fmt.Errorf("unable to read link target: %w", err)
		}
		return entrymodel.EntryMeta{
			Kind:            entrymodel.KindSymlink,
			ModifiedEpochMs: &modTime,
			SymlinkTarget:   &target,
		}, nil
	case mode.IsDir():
		return entrymodel.EntryMeta{Kind: entrymodel.KindDir, ModifiedEpochMs: &modTime}, nil
	default:
		return entrymodel.EntryMeta{
			Kind:            entrymodel.KindFile,
			SizeBytes:       uint64(info.Size()),
			ModifiedEpochMs: &modTime,
		}, nil
	}
}
