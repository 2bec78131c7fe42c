package facade

import "github.com/dualpane/corefs/pkg/entrymodel"

// EventName identifies the shape of an Event's Payload, matching the names
// given verbatim in spec.md §6.
type EventName string

const (
	EventScanProgress      EventName = "scan-progress"
	EventCompareDone       EventName = "compare-done"
	EventCompareError      EventName = "compare-error"
	EventDirStatusResolved EventName = "dir-status-resolved"
	EventTerminalOutput    EventName = "terminal-output"
	EventTerminalExit      EventName = "terminal-exit"
)

// Event is one entry on the facade's asynchronous event stream. UI code
// subscribes via Server.Events and switches on Name to decode Payload.
type Event struct {
	Name    EventName   `json:"name"`
	Payload interface{} `json:"payload"`
}

// ScanProgressPayload is emitted at no more than ~10Hz while a full compare
// is scanning either side.
type ScanProgressPayload struct {
	Side           string `json:"side"`
	EntriesScanned uint64 `json:"entriesScanned"`
	Phase          string `json:"phase"`
}

// CompareDonePayload is emitted exactly once per successful full compare,
// strictly after all ScanProgressPayload events for that run.
type CompareDonePayload struct {
	Summary entrymodel.CompareSummary `json:"summary"`
}

// CompareErrorPayload is emitted in place of CompareDonePayload when a full
// compare fails outright (as opposed to per-entry scan errors, which
// surface inside the diff list itself).
type CompareErrorPayload struct {
	Message string `json:"message"`
}

// DirStatusResolvedPayload carries one resolved subdirectory verdict and
// the (leftPath, rightPath) staleness stamp of the run that produced it.
type DirStatusResolvedPayload struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LeftPath  string `json:"leftPath"`
	RightPath string `json:"rightPath"`
	TotalSize uint64 `json:"totalSize"`
}

// TerminalOutputPayload carries one chunk of a PTY side's output, decoded
// UTF-8 best-effort per §4.7.
type TerminalOutputPayload struct {
	Side string `json:"side"`
	Data string `json:"data"`
}

// TerminalExitPayload is emitted once a PTY side's shell has exited and its
// reader goroutine has drained.
type TerminalExitPayload struct {
	Side string `json:"side"`
}
