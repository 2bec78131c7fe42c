// Package appstate implements the process-wide container described in §4.9
// and §3: the active full-compare handle, the active resolver handle, the
// PTY supervisor, and the persisted preference blob, each guarded by its
// own lock rather than one global mutex. Field mutations go through
// pkg/state.TrackingLock so each one bumps a change index on release; this
// module's facade still delivers state transitions to callers over its own
// async event channel rather than by long-polling that index (see
// pkg/facade), so the index itself is consumed only by this package's own
// tests — appstate's locking discipline is the part of the teacher's idiom
// actually in play here, not the long-poll machinery mutagen builds on it.
package appstate

import (
	"context"
	"sync"

	"github.com/dualpane/corefs/pkg/config"
	"github.com/dualpane/corefs/pkg/entrymodel"
	"github.com/dualpane/corefs/pkg/ptysupervisor"
	"github.com/dualpane/corefs/pkg/state"
)

// ScanHandle identifies the currently active (or most recently completed)
// full two-root comparison.
type ScanHandle struct {
	ID        string
	LeftRoot  string
	RightRoot string
	Mode      entrymodel.CompareMode
	Cancel    context.CancelFunc
}

// ResolverHandle identifies the currently active background dir-resolver
// run and carries the staleness stamp it was started with.
type ResolverHandle struct {
	ID       string
	LeftDir  string
	RightDir string
	Cancel   context.CancelFunc
}

// DiffsResult holds the last completed full compare's output, retrieved via
// the get_diffs verb.
type DiffsResult struct {
	Items   []entrymodel.DiffItem
	Summary entrymodel.CompareSummary
}

// State is the process-wide container created at startup and destroyed at
// process exit. Every exported accessor is individually locked; there is no
// global lock over the whole struct.
type State struct {
	scanTracker *state.Tracker
	scanLock    *state.TrackingLock
	scan        *ScanHandle
	diffs       *DiffsResult

	resolverTracker *state.Tracker
	resolverLock    *state.TrackingLock
	resolver        *ResolverHandle

	ptyOnce sync.Once
	pty     *ptysupervisor.Supervisor

	blobLock sync.Mutex
	blob     []byte

	configLock sync.Mutex
	cfg        *config.Configuration
}

// New creates an empty app-state container seeded with cfg (use
// config.Default() if the host hasn't loaded a configuration file).
func New(cfg *config.Configuration) *State {
	scanTracker := state.NewTracker()
	resolverTracker := state.NewTracker()
	return &State{
		scanTracker:     scanTracker,
		scanLock:        state.NewTrackingLock(scanTracker),
		resolverTracker: resolverTracker,
		resolverLock:    state.NewTrackingLock(resolverTracker),
		cfg:             cfg,
	}
}

// Close terminates the trackers and the PTY supervisor. Call once at
// process shutdown.
func (s *State) Close() {
	s.scanLock.Lock()
	s.scan = nil
	s.scanLock.UnlockWithoutNotify()
	s.scanTracker.Terminate()

	s.resolverLock.Lock()
	s.resolver = nil
	s.resolverLock.UnlockWithoutNotify()
	s.resolverTracker.Terminate()

	if s.pty != nil {
		s.pty.Shutdown()
	}
}

// SetScan replaces the active scan handle, cancelling and discarding
// whatever was there before (starting a new full compare implicitly
// cancels the previous one, per §5).
func (s *State) SetScan(h *ScanHandle) {
	s.scanLock.Lock()
	defer s.scanLock.Unlock()
	if s.scan != nil && s.scan.Cancel != nil {
		s.scan.Cancel()
	}
	s.scan = h
}

// Scan returns the most recently set scan handle, or nil if none has been
// set. The handle stays in place after its run ends or is cancelled, until
// SetScan replaces it.
func (s *State) Scan() *ScanHandle {
	s.scanLock.Lock()
	defer s.scanLock.UnlockWithoutNotify()
	return s.scan
}

// CancelScan cancels the active scan, if any, without clearing the handle
// (the handle stays in place until the next SetScan replaces it).
func (s *State) CancelScan() {
	s.scanLock.Lock()
	defer s.scanLock.UnlockWithoutNotify()
	if s.scan != nil && s.scan.Cancel != nil {
		s.scan.Cancel()
	}
}

// SetDiffs stores the result of a completed full compare, retrievable via
// Diffs.
func (s *State) SetDiffs(result *DiffsResult) {
	s.scanLock.Lock()
	defer s.scanLock.Unlock()
	s.diffs = result
}

// Diffs returns the last completed full compare's result, or nil if none
// has completed yet.
func (s *State) Diffs() *DiffsResult {
	s.scanLock.Lock()
	defer s.scanLock.UnlockWithoutNotify()
	return s.diffs
}

// SetResolver replaces the active resolver handle, cancelling whatever was
// there before. Navigating to a different comparison directory cancels the
// old run before starting the new one, per §4.5.
func (s *State) SetResolver(h *ResolverHandle) {
	s.resolverLock.Lock()
	defer s.resolverLock.Unlock()
	if s.resolver != nil && s.resolver.Cancel != nil {
		s.resolver.Cancel()
	}
	s.resolver = h
}

// Resolver returns the most recently set resolver handle, or nil if none
// has been set. The handle stays in place after its run ends or is
// cancelled, until SetResolver replaces it.
func (s *State) Resolver() *ResolverHandle {
	s.resolverLock.Lock()
	defer s.resolverLock.UnlockWithoutNotify()
	return s.resolver
}

// CancelResolver cancels the active resolver run, if any.
func (s *State) CancelResolver() {
	s.resolverLock.Lock()
	defer s.resolverLock.UnlockWithoutNotify()
	if s.resolver != nil && s.resolver.Cancel != nil {
		s.resolver.Cancel()
	}
}

// PTY returns the lazily-constructed PTY supervisor shared by the facade's
// terminal verbs.
func (s *State) PTY() *ptysupervisor.Supervisor {
	s.ptyOnce.Do(func() {
		s.pty = ptysupervisor.New(nil)
	})
	return s.pty
}

// SetBlob atomically replaces the opaque persisted-state blob.
func (s *State) SetBlob(blob []byte) {
	s.blobLock.Lock()
	defer s.blobLock.Unlock()
	s.blob = append([]byte(nil), blob...)
}

// Blob returns the opaque persisted-state blob, or nil if none has been
// saved in this process.
func (s *State) Blob() []byte {
	s.blobLock.Lock()
	defer s.blobLock.Unlock()
	if s.blob == nil {
		return nil
	}
	return append([]byte(nil), s.blob...)
}

// Config returns the active configuration.
func (s *State) Config() *config.Configuration {
	s.configLock.Lock()
	defer s.configLock.Unlock()
	return s.cfg
}
