package facade

import "github.com/dualpane/corefs/pkg/entrymodel"

// InitBrowseResponse is the result of init_browse.
type InitBrowseResponse struct {
	Home    string                   `json:"home"`
	Entries []entrymodel.BrowseEntry `json:"entries"`
}

// ListDirectoryRequest is the argument to list_directory.
type ListDirectoryRequest struct {
	Path string `json:"path"`
}

// ListDirectoryResponse is the result of list_directory.
type ListDirectoryResponse struct {
	Entries []entrymodel.BrowseEntry `json:"entries"`
}

// StartCompareRequest is the argument to start_compare. spec.md §6 names
// only {mode} on the wire, but a full two-root compare cannot run without
// knowing which two roots to scan; this module resolves that ambiguity by
// carrying the roots alongside mode on the same request (see DESIGN.md).
type StartCompareRequest struct {
	LeftRoot  string                 `json:"leftRoot"`
	RightRoot string                 `json:"rightRoot"`
	Mode      entrymodel.CompareMode `json:"mode"`
}

// GetDiffsResponse is the result of get_diffs.
type GetDiffsResponse struct {
	Items []entrymodel.DiffItem `json:"items"`
}

// CompareDirectoryRequest is the argument to compare_directory.
type CompareDirectoryRequest struct {
	LeftPath  string `json:"leftPath"`
	RightPath string `json:"rightPath"`
}

// CompareDirectoryResponse is the result of compare_directory.
type CompareDirectoryResponse struct {
	Entries   []entrymodel.CompareEntry `json:"entries"`
	LeftPath  string                    `json:"leftPath"`
	RightPath string                    `json:"rightPath"`
	Summary   entrymodel.CompareSummary `json:"summary"`
}

// ResolveDirStatusesRequest is the argument to resolve_dir_statuses.
type ResolveDirStatusesRequest struct {
	LeftPath  string `json:"leftPath"`
	RightPath string `json:"rightPath"`
}

// CopyEntryRequest is the argument to copy_entry and copy_entry_overwrite.
// DestRoot is the declared confinement root checked per §4.1; it is
// typically the root of the destination pane's current browse location.
type CopyEntryRequest struct {
	SourcePath string `json:"sourcePath"`
	DestDir    string `json:"destDir"`
	DestRoot   string `json:"destRoot"`
}

// MoveEntryRequest is the argument to move_entry.
type MoveEntryRequest struct {
	SourcePath string `json:"sourcePath"`
	DestDir    string `json:"destDir"`
	DestRoot   string `json:"destRoot"`
}

// DeleteEntryRequest is the argument to delete_entry.
type DeleteEntryRequest struct {
	TargetPath string `json:"targetPath"`
}

// CreateDirectoryRequest is the argument to create_directory.
type CreateDirectoryRequest struct {
	ParentPath string `json:"parentPath"`
	Name       string `json:"name"`
}

// CreateDirectoryResponse is the result of create_directory.
type CreateDirectoryResponse struct {
	Path string `json:"path"`
}

// OpenFileRequest is the argument to open_file.
type OpenFileRequest struct {
	Path string `json:"path"`
}

// SpawnTerminalRequest is the argument to spawn_terminal.
type SpawnTerminalRequest struct {
	Side string `json:"side"`
	Cwd  string `json:"cwd"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// WriteTerminalRequest is the argument to write_terminal.
type WriteTerminalRequest struct {
	Side string `json:"side"`
	Data string `json:"data"`
}

// ResizeTerminalRequest is the argument to resize_terminal.
type ResizeTerminalRequest struct {
	Side string `json:"side"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// KillTerminalRequest is the argument to kill_terminal.
type KillTerminalRequest struct {
	Side string `json:"side"`
}

// ExportReportRequest is the argument to export_report. IncludeSummary is
// the [EXPANSION] companion-text opt-in described in pkg/export's doc
// comment; it is additive and defaults to false.
type ExportReportRequest struct {
	Path           string `json:"path"`
	IncludeSummary bool   `json:"includeSummary"`
}

// LoadAppStateResponse is the result of load_app_state. State is nil when
// nothing has been saved in this process yet.
type LoadAppStateResponse struct {
	State []byte `json:"state"`
}

// SaveAppStateRequest is the argument to save_app_state.
type SaveAppStateRequest struct {
	State []byte `json:"state"`
}
