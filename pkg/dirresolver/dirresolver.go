// Package dirresolver implements the background worker that settles
// "pending" subdirectories from an on-demand directory comparison into
// "same" or "modified" verdicts, per entry, as soon as each is known. It is
// the hardest component in this module: bounded-parallel, cancellable
// mid-subtree, LRU-cached, and stamped so a caller can discard events from a
// superseded run without the resolver tracking any notion of "current UI
// view" itself.
//
// The LRU is github.com/golang/groupcache/lru, a direct dependency of the
// teacher repository's own go.mod; bounded eviction here plays the same role
// mutagen's non-recursive watch implementation uses it for (a capped cache
// of recently-seen directory state keyed by a composite key).
package dirresolver

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/dualpane/corefs/pkg/entrymodel"
	"github.com/dualpane/corefs/pkg/logging"
	"github.com/dualpane/corefs/pkg/parallelism"
	"github.com/dualpane/corefs/pkg/scanner"
)

// defaultCacheCapacity is the bounded LRU size named in §4.5.
const defaultCacheCapacity = 1024

// cacheKey identifies one deep-equal verdict. It is comparable, so it can be
// used directly as a groupcache/lru.Key.
type cacheKey struct {
	left, right string
	mode        entrymodel.CompareMode
}

// cacheValue is what's stored per cacheKey.
type cacheValue struct {
	status    entrymodel.CompareStatus
	totalSize uint64
}

// Resolver resolves pending subdirectories into same/modified verdicts. At
// most one run is active at a time; starting a new run cancels the previous
// one. Resolver is safe for concurrent use.
type Resolver struct {
	logger *logging.Logger

	cacheCapacity int

	cacheLock sync.Mutex
	cache     *lru.Cache

	runLock    sync.Mutex
	cancelPrev context.CancelFunc
}

// NewResolver creates a resolver whose LRU verdict cache holds at most
// cacheCapacity entries. A non-positive cacheCapacity selects
// defaultCacheCapacity (the config package's loader already applies this
// same default before the facade ever constructs a Resolver, but the zero
// value of an unconfigured config.Configuration shouldn't silently produce
// an unbounded or zero-size cache).
func NewResolver(logger *logging.Logger, cacheCapacity int) *Resolver {
	if cacheCapacity <= 0 {
		cacheCapacity = defaultCacheCapacity
	}
	return &Resolver{
		logger:        logger,
		cacheCapacity: cacheCapacity,
		cache:         lru.New(cacheCapacity),
	}
}

// Run describes one resolver invocation: settle the named pending
// subdirectories of leftDir/rightDir.
type Run struct {
	LeftDir  string
	RightDir string
	Mode     entrymodel.CompareMode
	// Names is the list of child names known to be pending (both sides
	// present, both directories) from the triggering dircompare.Result.
	Names   []string
	Workers int
}

// Start cancels any run currently in progress and begins a new one. emit is
// invoked once per resolved name, in any order, carrying the
// (leftDir, rightDir) stamp so the caller can discard stale events. Start
// returns immediately; resolution happens on background goroutines bounded
// by run.Workers.
func (r *Resolver) Start(ctx context.Context, run Run, emit func(entrymodel.ResolvedDirStatus)) {
	r.runLock.Lock()
	if r.cancelPrev != nil {
		r.cancelPrev()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancelPrev = cancel
	r.runLock.Unlock()

	go r.execute(runCtx, run, emit)
}

// Cancel stops the currently active run, if any. Outstanding subdirectories
// abort without emitting further events.
func (r *Resolver) Cancel() {
	r.runLock.Lock()
	defer r.runLock.Unlock()
	if r.cancelPrev != nil {
		r.cancelPrev()
	}
}

// ClearCache discards all cached verdicts.
func (r *Resolver) ClearCache() {
	r.cacheLock.Lock()
	defer r.cacheLock.Unlock()
	r.cache = lru.New(r.cacheCapacity)
}

func (r *Resolver) execute(ctx context.Context, run Run, emit func(entrymodel.ResolvedDirStatus)) {
	pool := parallelism.NewPool(run.Workers, func(_ int, name string) error {
		if ctx.Err() != nil {
			return nil
		}
		status, totalSize := r.resolveOne(ctx, run.LeftDir, run.RightDir, name, run.Mode)
		if ctx.Err() != nil {
			// A cancellation observed mid-resolution must not emit an
			// event for this subdirectory.
			return nil
		}
		emit(entrymodel.ResolvedDirStatus{
			Name:      name,
			Status:    status,
			LeftPath:  run.LeftDir,
			RightPath: run.RightDir,
			TotalSize: totalSize,
		})
		return nil
	})
	for _, name := range run.Names {
		pool.Submit(name)
	}
	pool.Close()
	if err := pool.Wait(); err != nil && r.logger != nil {
		r.logger.Warnf("dirresolver: run for (%s, %s) completed with errors: %v", run.LeftDir, run.RightDir, err)
	}
}

// resolveOne resolves a single pending subdirectory name, consulting and
// populating the LRU cache.
func (r *Resolver) resolveOne(ctx context.Context, leftDir, rightDir, name string, mode entrymodel.CompareMode) (entrymodel.CompareStatus, uint64) {
	left := join(leftDir, name)
	right := join(rightDir, name)
	key := cacheKey{left: left, right: right, mode: mode}

	r.cacheLock.Lock()
	if cached, ok := r.cache.Get(key); ok {
		r.cacheLock.Unlock()
		value := cached.(cacheValue)
		return value.status, value.totalSize
	}
	r.cacheLock.Unlock()

	status, totalSize := deepCompare(ctx, left, right, mode, r.logger)
	if ctx.Err() != nil {
		// A verdict computed from a cancelled, partial scan is not cached.
		return status, totalSize
	}

	r.cacheLock.Lock()
	r.cache.Add(key, cacheValue{status: status, totalSize: totalSize})
	r.cacheLock.Unlock()

	return status, totalSize
}

// deepCompare walks both subtrees via the scanner and decides same/modified
// per the deep-equal definition in §4.5. Read errors on either side are
// treated conservatively as "modified", logged but never surfaced as
// resolver-level errors (the UI has no representation for dir-level errors
// in compare mode).
func deepCompare(ctx context.Context, left, right string, mode entrymodel.CompareMode, logger *logging.Logger) (entrymodel.CompareStatus, uint64) {
	leftResult, leftErr := scanner.Scan(ctx, left, scanner.Options{Logger: logger})
	rightResult, rightErr := scanner.Scan(ctx, right, scanner.Options{Logger: logger})

	var totalSize uint64
	if leftResult != nil {
		for _, meta := range leftResult.Entries {
			if meta.Kind == entrymodel.KindFile {
				totalSize += meta.SizeBytes
			}
		}
	}

	if leftErr != nil && leftErr != scanner.ErrCancelled {
		logConservative(logger, left, right, leftErr)
		return entrymodel.StatusModified, totalSize
	}
	if rightErr != nil && rightErr != scanner.ErrCancelled {
		logConservative(logger, left, right, rightErr)
		return entrymodel.StatusModified, totalSize
	}
	if len(leftResult.Errors) > 0 || len(rightResult.Errors) > 0 {
		return entrymodel.StatusModified, totalSize
	}

	if len(leftResult.Entries) != len(rightResult.Entries) {
		return entrymodel.StatusModified, totalSize
	}
	for relPath, leftMeta := range leftResult.Entries {
		rightMeta, ok := rightResult.Entries[relPath]
		if !ok || leftMeta.Kind != rightMeta.Kind {
			return entrymodel.StatusModified, totalSize
		}
		switch leftMeta.Kind {
		case entrymodel.KindFile:
			if mode == entrymodel.ModeSmart && leftMeta.SizeBytes != rightMeta.SizeBytes {
				return entrymodel.StatusModified, totalSize
			}
		case entrymodel.KindSymlink:
			leftTarget, rightTarget := "", ""
			if leftMeta.SymlinkTarget != nil {
				leftTarget = *leftMeta.SymlinkTarget
			}
			if rightMeta.SymlinkTarget != nil {
				rightTarget = *rightMeta.SymlinkTarget
			}
			if leftTarget != rightTarget {
				return entrymodel.StatusModified, totalSize
			}
		}
	}

	return entrymodel.StatusSame, totalSize
}

func logConservative(logger *logging.Logger, left, right string, err error) {
	if logger != nil {
		logger.Warnf("dirresolver: treating (%s, %s) as modified after read error: %v", left, right, err)
	}
}

func join(dir, name string) string {
	if len(dir) > 0 && dir[len(dir)-1] == '/' {
		return dir + name
	}
	return dir + "/" + name
}
