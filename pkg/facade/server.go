// Package facade implements the command/event boundary described in §4.8
// and exposed verbatim in §6: one Go method per request verb, plus a single
// asynchronous event stream for progress and long-running-operation
// results. It is the one place that wires together every other package —
// scanner, comparator, dircompare, dirresolver, fileops, ptysupervisor,
// appstate, export, and config — and the single place that logs each
// verb's entry and exit, mirroring mutagen's pkg/service/*/server.go
// (one method per verb) shape and its one-logger-per-service-method
// convention.
package facade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/dualpane/corefs/pkg/appstate"
	"github.com/dualpane/corefs/pkg/comparator"
	"github.com/dualpane/corefs/pkg/dircompare"
	"github.com/dualpane/corefs/pkg/dirresolver"
	"github.com/dualpane/corefs/pkg/entrymodel"
	"github.com/dualpane/corefs/pkg/export"
	"github.com/dualpane/corefs/pkg/fileops"
	"github.com/dualpane/corefs/pkg/identifier"
	"github.com/dualpane/corefs/pkg/logging"
	"github.com/dualpane/corefs/pkg/pathguard"
	"github.com/dualpane/corefs/pkg/ptysupervisor"
	"github.com/dualpane/corefs/pkg/scanner"
)

// eventBufferSize bounds the facade's own event channel, mirroring
// ptysupervisor's lossy-output policy at the boundary the UI actually
// subscribes to.
const eventBufferSize = 512

// Server implements every verb in spec.md §6 and owns the single events
// channel callers subscribe to via Events.
type Server struct {
	state    *appstate.State
	logger   *logging.Logger
	resolver *dirresolver.Resolver

	events chan Event

	ptyPumpOnce sync.Once
}

// NewServer creates a facade server wired to st. logger may be nil.
func NewServer(st *appstate.State, logger *logging.Logger) *Server {
	return &Server{
		state:    st,
		logger:   logger,
		resolver: dirresolver.NewResolver(logger.Sublogger("dirresolver"), st.Config().Resolve.CacheCapacity),
		events:   make(chan Event, eventBufferSize),
	}
}

// Events returns the facade's unified event stream.
func (s *Server) Events() <-chan Event {
	return s.events
}

// logCall logs a verb's entry at LevelDebug and returns a function that
// logs its exit; call as `defer s.logCall("verb_name")()`.
func (s *Server) logCall(name string) func() {
	s.logger.Debugf("%s: enter", name)
	return func() { s.logger.Debugf("%s: exit", name) }
}

// recoverBackground recovers a panic in a background goroutine spawned by
// the facade (a verb's asynchronous continuation, not the verb call itself)
// and logs it at LevelError rather than crashing the embedding host
// process; the panic is not reported to any caller. Call as
// `defer s.recoverBackground("name")`.
func (s *Server) recoverBackground(name string) {
	if r := recover(); r != nil {
		s.logger.Errorf("%s: recovered from panic: %v", name, r)
	}
}

// emit performs a non-blocking send, dropping the oldest queued event if the
// channel is full. Used for every event other than compare-done and
// compare-error (scan-progress, dir-status-resolved, terminal-output,
// terminal-exit).
func (s *Server) emit(ev Event) {
	select {
	case s.events <- ev:
		return
	default:
	}
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- ev:
	default:
	}
}

// emitGuaranteed performs a blocking send. Used for discrete, one-shot
// events a caller cannot recover any other way: compare-done must be
// delivered exactly once per successful full compare (§5), and
// compare-error is its only failure-path counterpart — drop-oldest
// backpressure silently violating that guarantee would be worse than a
// background goroutine blocking until the UI drains its event channel.
func (s *Server) emitGuaranteed(ev Event) {
	s.events <- ev
}

// InitBrowse returns the host's home directory plus its listing.
func (s *Server) InitBrowse() (*InitBrowseResponse, error) {
	defer s.logCall("init_browse")()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, pkgerrors.Wrap(ErrInternalError, err.Error())
	}
	entries, err := listDirectory(home)
	if err != nil {
		return nil, translateListErr(err)
	}
	return &InitBrowseResponse{Home: home, Entries: entries}, nil
}

// ListDirectory returns a shallow listing of req.Path.
func (s *Server) ListDirectory(req ListDirectoryRequest) (*ListDirectoryResponse, error) {
	defer s.logCall("list_directory")()

	if err := pathguard.RequireAbsolute(req.Path); err != nil {
		return nil, pkgerrors.Wrap(ErrInvalidPath, err.Error())
	}
	entries, err := listDirectory(req.Path)
	if err != nil {
		return nil, translateListErr(err)
	}
	return &ListDirectoryResponse{Entries: entries}, nil
}

// StartCompare begins a full two-root compare in the background. Starting
// a new compare implicitly cancels any compare already in progress.
func (s *Server) StartCompare(req StartCompareRequest) error {
	defer s.logCall("start_compare")()

	if req.LeftRoot == "" || req.RightRoot == "" {
		return pkgerrors.Wrap(ErrInvalidPath, "leftRoot and rightRoot are required")
	}
	if err := pathguard.RequireAbsolute(req.LeftRoot); err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, "leftRoot: "+err.Error())
	}
	if err := pathguard.RequireAbsolute(req.RightRoot); err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, "rightRoot: "+err.Error())
	}

	mode := req.Mode
	if mode == "" {
		mode = s.state.Config().Compare.DefaultMode
	}

	id, err := identifier.New(identifier.PrefixScan)
	if err != nil {
		return pkgerrors.Wrap(ErrInternalError, err.Error())
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.state.SetScan(&appstate.ScanHandle{
		ID: id, LeftRoot: req.LeftRoot, RightRoot: req.RightRoot, Mode: mode, Cancel: cancel,
	})

	go s.runCompare(runCtx, id, req.LeftRoot, req.RightRoot, mode)
	return nil
}

// runCompare performs both scans concurrently and emits the documented
// scan-progress / compare-done / compare-error events. Events for a run
// that has since been superseded (by cancellation or a newer StartCompare
// call) are suppressed at the point of emission, satisfying invariant 8.
func (s *Server) runCompare(ctx context.Context, id, leftRoot, rightRoot string, mode entrymodel.CompareMode) {
	defer s.recoverBackground("start_compare")

	workers := s.state.Config().Scan.Workers

	// emitProgress drops scan-progress events once the run is cancelled.
	emitProgress := func(ev Event) {
		if ctx.Err() == nil {
			s.emitIfCurrent(id, ev)
		}
	}

	var wg sync.WaitGroup
	var leftResult, rightResult *scanner.Result
	var leftErr, rightErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		leftResult, leftErr = scanner.Scan(ctx, leftRoot, scanner.Options{
			Workers: workers,
			Logger:  s.logger,
			Progress: func(n uint64) {
				emitProgress(Event{Name: EventScanProgress, Payload: ScanProgressPayload{Side: "left", EntriesScanned: n, Phase: "scanning"}})
			},
		})
		count := uint64(0)
		if leftResult != nil {
			count = uint64(len(leftResult.Entries))
		}
		emitProgress(Event{Name: EventScanProgress, Payload: ScanProgressPayload{Side: "left", EntriesScanned: count, Phase: "done"}})
	}()
	go func() {
		defer wg.Done()
		rightResult, rightErr = scanner.Scan(ctx, rightRoot, scanner.Options{
			Workers: workers,
			Logger:  s.logger,
			Progress: func(n uint64) {
				emitProgress(Event{Name: EventScanProgress, Payload: ScanProgressPayload{Side: "right", EntriesScanned: n, Phase: "scanning"}})
			},
		})
		count := uint64(0)
		if rightResult != nil {
			count = uint64(len(rightResult.Entries))
		}
		emitProgress(Event{Name: EventScanProgress, Payload: ScanProgressPayload{Side: "right", EntriesScanned: count, Phase: "done"}})
	}()
	wg.Wait()

	if !s.isCurrentScan(id) {
		return
	}
	if ctx.Err() != nil {
		// Cancellation is not reported as an error event; the run simply
		// ends, per §7.
		return
	}
	if leftErr != nil && leftErr != scanner.ErrCancelled {
		s.emitIfCurrentGuaranteed(id, Event{Name: EventCompareError, Payload: CompareErrorPayload{Message: fmt.Sprintf("unable to scan left root: %v", leftErr)}})
		return
	}
	if rightErr != nil && rightErr != scanner.ErrCancelled {
		s.emitIfCurrentGuaranteed(id, Event{Name: EventCompareError, Payload: CompareErrorPayload{Message: fmt.Sprintf("unable to scan right root: %v", rightErr)}})
		return
	}

	scanErrors := make(map[string]string, len(leftResult.Errors)+len(rightResult.Errors))
	for path, msg := range leftResult.Errors {
		scanErrors[path] = msg
	}
	for path, msg := range rightResult.Errors {
		scanErrors[path] = msg
	}

	items, summary := comparator.Compare(leftResult.Entries, rightResult.Entries, scanErrors, mode)

	if !s.isCurrentScan(id) {
		return
	}
	s.state.SetDiffs(&appstate.DiffsResult{Items: items, Summary: summary})
	s.emitIfCurrentGuaranteed(id, Event{Name: EventCompareDone, Payload: CompareDonePayload{Summary: summary}})
}

// isCurrentScan reports whether id still identifies the active scan
// handle (it may have been replaced by a newer StartCompare call).
func (s *Server) isCurrentScan(id string) bool {
	handle := s.state.Scan()
	return handle != nil && handle.ID == id
}

// emitIfCurrent emits ev only if id still identifies the active scan, via
// the lossy drop-oldest path (scan-progress).
func (s *Server) emitIfCurrent(id string, ev Event) {
	if s.isCurrentScan(id) {
		s.emit(ev)
	}
}

// emitIfCurrentGuaranteed is emitIfCurrent's guaranteed-delivery
// counterpart, for compare-done/compare-error.
func (s *Server) emitIfCurrentGuaranteed(id string, ev Event) {
	if s.isCurrentScan(id) {
		s.emitGuaranteed(ev)
	}
}

// CancelCompare cancels the active full compare, if any.
func (s *Server) CancelCompare() error {
	defer s.logCall("cancel_compare")()
	s.state.CancelScan()
	return nil
}

// GetDiffs returns the last completed full compare's diff list.
func (s *Server) GetDiffs() (*GetDiffsResponse, error) {
	defer s.logCall("get_diffs")()
	result := s.state.Diffs()
	if result == nil {
		return &GetDiffsResponse{}, nil
	}
	return &GetDiffsResponse{Items: result.Items}, nil
}

// CompareDirectory performs an on-demand shallow comparison and, if any
// subdirectories came back pending, starts the background resolver for
// them automatically (per §4.4).
func (s *Server) CompareDirectory(req CompareDirectoryRequest) (*CompareDirectoryResponse, error) {
	defer s.logCall("compare_directory")()

	if err := pathguard.RequireAbsolute(req.LeftPath); err != nil {
		return nil, pkgerrors.Wrap(ErrInvalidPath, "leftPath: "+err.Error())
	}
	if err := pathguard.RequireAbsolute(req.RightPath); err != nil {
		return nil, pkgerrors.Wrap(ErrInvalidPath, "rightPath: "+err.Error())
	}

	result, err := dircompare.Compare(req.LeftPath, req.RightPath)
	if err != nil {
		return nil, translateListErr(err)
	}

	if pending := pendingNames(result.Entries); len(pending) > 0 {
		s.startResolve(req.LeftPath, req.RightPath, pending)
	}

	return &CompareDirectoryResponse{
		Entries: result.Entries, LeftPath: result.LeftPath, RightPath: result.RightPath, Summary: result.Summary,
	}, nil
}

// ResolveDirStatuses re-derives the pending subdirectory set for
// (leftPath, rightPath) and starts the background resolver for it,
// cancelling whatever run was previously active.
func (s *Server) ResolveDirStatuses(req ResolveDirStatusesRequest) error {
	defer s.logCall("resolve_dir_statuses")()

	if err := pathguard.RequireAbsolute(req.LeftPath); err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, "leftPath: "+err.Error())
	}
	if err := pathguard.RequireAbsolute(req.RightPath); err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, "rightPath: "+err.Error())
	}

	result, err := dircompare.Compare(req.LeftPath, req.RightPath)
	if err != nil {
		return translateListErr(err)
	}

	s.startResolve(req.LeftPath, req.RightPath, pendingNames(result.Entries))
	return nil
}

func pendingNames(entries []entrymodel.CompareEntry) []string {
	var names []string
	for _, entry := range entries {
		if entry.Status == entrymodel.StatusPending {
			names = append(names, entry.Name)
		}
	}
	return names
}

func (s *Server) startResolve(leftDir, rightDir string, names []string) {
	id, err := identifier.New(identifier.PrefixResolve)
	if err != nil {
		s.logger.Errorf("resolve_dir_statuses: unable to allocate run id: %v", err)
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.state.SetResolver(&appstate.ResolverHandle{ID: id, LeftDir: leftDir, RightDir: rightDir, Cancel: cancel})

	run := dirresolver.Run{
		LeftDir:  leftDir,
		RightDir: rightDir,
		Mode:     s.state.Config().Compare.DefaultMode,
		Names:    names,
		Workers:  s.state.Config().Resolve.Workers,
	}
	s.resolver.Start(runCtx, run, func(resolved entrymodel.ResolvedDirStatus) {
		s.emit(Event{Name: EventDirStatusResolved, Payload: DirStatusResolvedPayload{
			Name: resolved.Name, Status: string(resolved.Status),
			LeftPath: resolved.LeftPath, RightPath: resolved.RightPath, TotalSize: resolved.TotalSize,
		}})
	})
}

// CancelDirResolve cancels the active resolver run, if any.
func (s *Server) CancelDirResolve() error {
	defer s.logCall("cancel_dir_resolve")()
	s.state.CancelResolver()
	s.resolver.Cancel()
	return nil
}

// ClearDirResolveCache discards all cached resolver verdicts.
func (s *Server) ClearDirResolveCache() error {
	defer s.logCall("clear_dir_resolve_cache")()
	s.resolver.ClearCache()
	return nil
}

// CopyEntry copies a file or directory into req.DestDir, failing if the
// destination already exists.
func (s *Server) CopyEntry(req CopyEntryRequest) error {
	defer s.logCall("copy_entry")()
	if err := fileops.CopyEntry(req.DestRoot, req.SourcePath, req.DestDir, s.logger); err != nil {
		return translateFileopsErr(err)
	}
	return nil
}

// CopyEntryOverwrite is like CopyEntry but replaces an existing
// destination.
func (s *Server) CopyEntryOverwrite(req CopyEntryRequest) error {
	defer s.logCall("copy_entry_overwrite")()
	if err := fileops.CopyEntryOverwrite(req.DestRoot, req.SourcePath, req.DestDir, s.logger); err != nil {
		return translateFileopsErr(err)
	}
	return nil
}

// MoveEntry moves a file or directory into req.DestDir, failing if the
// destination already exists.
func (s *Server) MoveEntry(req MoveEntryRequest) error {
	defer s.logCall("move_entry")()
	if err := fileops.MoveEntry(req.DestRoot, req.SourcePath, req.DestDir, s.logger); err != nil {
		return translateFileopsErr(err)
	}
	return nil
}

// DeleteEntry recursively removes req.TargetPath.
func (s *Server) DeleteEntry(req DeleteEntryRequest) error {
	defer s.logCall("delete_entry")()
	if err := fileops.DeleteEntry(req.TargetPath); err != nil {
		return translateFileopsErr(err)
	}
	return nil
}

// CreateDirectory creates req.ParentPath/req.Name.
func (s *Server) CreateDirectory(req CreateDirectoryRequest) (*CreateDirectoryResponse, error) {
	defer s.logCall("create_directory")()
	path, err := fileops.CreateDirectory(req.ParentPath, req.Name)
	if err != nil {
		return nil, translateFileopsErr(err)
	}
	return &CreateDirectoryResponse{Path: path}, nil
}

// OpenFile hands req.Path off to the host OS's registered viewer.
func (s *Server) OpenFile(req OpenFileRequest) error {
	defer s.logCall("open_file")()
	if err := fileops.OpenFile(req.Path); err != nil {
		return pkgerrors.Wrap(ErrLaunchFailed, err.Error())
	}
	return nil
}

// ensurePTYPump starts the goroutine translating ptysupervisor events into
// facade events, exactly once per Server.
func (s *Server) ensurePTYPump() {
	s.ptyPumpOnce.Do(func() {
		go func() {
			defer s.recoverBackground("pty_event_pump")
			for ev := range s.state.PTY().Events() {
				switch ev.Kind {
				case ptysupervisor.EventOutput:
					s.emit(Event{Name: EventTerminalOutput, Payload: TerminalOutputPayload{Side: string(ev.Side), Data: string(ev.Data)}})
				case ptysupervisor.EventExit:
					s.emit(Event{Name: EventTerminalExit, Payload: TerminalExitPayload{Side: string(ev.Side)}})
				}
			}
		}()
	})
}

// SpawnTerminal spawns a shell on req.Side in req.Cwd. No-op if a shell is
// already alive on that side.
func (s *Server) SpawnTerminal(req SpawnTerminalRequest) error {
	defer s.logCall("spawn_terminal")()
	side, err := parseSide(req.Side)
	if err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, err.Error())
	}
	s.ensurePTYPump()
	if err := s.state.PTY().SpawnTerminal(side, req.Cwd, req.Rows, req.Cols); err != nil {
		return pkgerrors.Wrap(ErrLaunchFailed, err.Error())
	}
	return nil
}

// WriteTerminal forwards bytes to req.Side's shell stdin.
func (s *Server) WriteTerminal(req WriteTerminalRequest) error {
	defer s.logCall("write_terminal")()
	side, err := parseSide(req.Side)
	if err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, err.Error())
	}
	if err := s.state.PTY().WriteTerminal(side, []byte(req.Data)); err != nil {
		return pkgerrors.Wrap(ErrIoFailed, err.Error())
	}
	return nil
}

// ResizeTerminal resizes req.Side's PTY.
func (s *Server) ResizeTerminal(req ResizeTerminalRequest) error {
	defer s.logCall("resize_terminal")()
	side, err := parseSide(req.Side)
	if err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, err.Error())
	}
	if err := s.state.PTY().ResizeTerminal(side, req.Rows, req.Cols); err != nil {
		return pkgerrors.Wrap(ErrIoFailed, err.Error())
	}
	return nil
}

// KillTerminal terminates req.Side's shell.
func (s *Server) KillTerminal(req KillTerminalRequest) error {
	defer s.logCall("kill_terminal")()
	side, err := parseSide(req.Side)
	if err != nil {
		return pkgerrors.Wrap(ErrInvalidPath, err.Error())
	}
	if err := s.state.PTY().KillTerminal(side); err != nil {
		return pkgerrors.Wrap(ErrIoFailed, err.Error())
	}
	return nil
}

// ExportReport serializes the last completed full compare to req.Path,
// stamping the current time as the document's generated-at field (the
// export package itself never calls time.Now, to stay deterministically
// testable).
func (s *Server) ExportReport(req ExportReportRequest) error {
	defer s.logCall("export_report")()

	result := s.state.Diffs()
	if result == nil {
		return pkgerrors.Wrap(ErrInternalError, "no comparison result available to export")
	}

	var leftRoot, rightRoot string
	mode := s.state.Config().Compare.DefaultMode
	if scan := s.state.Scan(); scan != nil {
		leftRoot, rightRoot, mode = scan.LeftRoot, scan.RightRoot, scan.Mode
	}

	doc := export.Document{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		LeftRoot:    leftRoot,
		RightRoot:   rightRoot,
		Mode:        mode,
		Summary:     result.Summary,
		Items:       result.Items,
	}
	if err := export.Write(req.Path, doc); err != nil {
		return pkgerrors.Wrap(ErrIoFailed, err.Error())
	}
	if req.IncludeSummary {
		summaryPath := strings.TrimSuffix(req.Path, filepath.Ext(req.Path)) + ".txt"
		if err := export.WriteSummaryText(summaryPath, doc); err != nil {
			return pkgerrors.Wrap(ErrIoFailed, err.Error())
		}
	}
	return nil
}

// LoadAppState returns the opaque persisted-state blob, or nil if none has
// been saved in this process.
func (s *Server) LoadAppState() (*LoadAppStateResponse, error) {
	defer s.logCall("load_app_state")()
	return &LoadAppStateResponse{State: s.state.Blob()}, nil
}

// SaveAppState replaces the opaque persisted-state blob.
func (s *Server) SaveAppState(req SaveAppStateRequest) error {
	defer s.logCall("save_app_state")()
	s.state.SetBlob(req.State)
	return nil
}

// parseSide validates and converts a wire side string.
func parseSide(side string) (ptysupervisor.Side, error) {
	switch side {
	case "left":
		return ptysupervisor.SideLeft, nil
	case "right":
		return ptysupervisor.SideRight, nil
	default:
		return "", fmt.Errorf("facade: invalid side %q (want \"left\" or \"right\")", side)
	}
}

// listDirectory performs a shallow, one-level directory listing (no
// confinement check — that's a higher-layer concern for list_directory per
// §4.1).
func listDirectory(path string) ([]entrymodel.BrowseEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errNotADirectory
	}

	children, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]entrymodel.BrowseEntry, 0, len(children))
	for _, child := range children {
		childPath := filepath.Join(path, child.Name())
		childInfo, err := os.Lstat(childPath)
		if err != nil {
			continue
		}
		entries = append(entries, browseEntryFor(child.Name(), childInfo))
	}
	return entries, nil
}

func browseEntryFor(name string, info os.FileInfo) entrymodel.BrowseEntry {
	modTime := info.ModTime().UnixMilli()
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return entrymodel.BrowseEntry{Name: name, Kind: entrymodel.KindSymlink, Modified: &modTime}
	case mode.IsDir():
		return entrymodel.BrowseEntry{Name: name, Kind: entrymodel.KindDir, Modified: &modTime}
	default:
		return entrymodel.BrowseEntry{Name: name, Kind: entrymodel.KindFile, Size: uint64(info.Size()), Modified: &modTime}
	}
}

// translateListErr maps a browsing/comparison I/O error onto the facade's
// sentinel taxonomy.
func translateListErr(err error) error {
	switch {
	case errors.Is(err, errNotADirectory):
		return pkgerrors.Wrap(ErrNotADirectory, err.Error())
	case errors.Is(err, os.ErrNotExist):
		return pkgerrors.Wrap(ErrNotFound, err.Error())
	case errors.Is(err, os.ErrPermission):
		return pkgerrors.Wrap(ErrPermissionDenied, err.Error())
	default:
		return pkgerrors.Wrap(ErrIoFailed, err.Error())
	}
}

// translateFileopsErr maps a pkg/fileops sentinel error onto the facade's
// taxonomy.
func translateFileopsErr(err error) error {
	switch {
	case errors.Is(err, fileops.ErrAlreadyExists):
		return pkgerrors.Wrap(ErrAlreadyExists, err.Error())
	case errors.Is(err, fileops.ErrNotFound):
		return pkgerrors.Wrap(ErrNotFound, err.Error())
	case errors.Is(err, fileops.ErrInvalidName), errors.Is(err, fileops.ErrInvalidPath):
		return pkgerrors.Wrap(ErrInvalidPath, err.Error())
	case errors.Is(err, fileops.ErrLaunchFailed):
		return pkgerrors.Wrap(ErrLaunchFailed, err.Error())
	default:
		return pkgerrors.Wrap(ErrIoFailed, err.Error())
	}
}
