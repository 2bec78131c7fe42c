package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/dualpane/corefs/pkg/appstate"
	"github.com/dualpane/corefs/pkg/config"
	"github.com/dualpane/corefs/pkg/facade"
	"github.com/dualpane/corefs/pkg/logging"
)

// handlerFunc decodes params, invokes the matching facade.Server method, and
// returns its result (nil for verbs that return only an error).
type handlerFunc func(s *facade.Server, params json.RawMessage) (interface{}, error)

// handlers maps each wire verb name from spec.md §6 onto its facade call.
var handlers = map[string]handlerFunc{
	"init_browse": func(s *facade.Server, _ json.RawMessage) (interface{}, error) {
		return s.InitBrowse()
	},
	"list_directory": decodeThenCall(func(s *facade.Server, req facade.ListDirectoryRequest) (interface{}, error) {
		return s.ListDirectory(req)
	}),
	"start_compare": decodeThenCall(func(s *facade.Server, req facade.StartCompareRequest) (interface{}, error) {
		return nil, s.StartCompare(req)
	}),
	"cancel_compare": func(s *facade.Server, _ json.RawMessage) (interface{}, error) {
		return nil, s.CancelCompare()
	},
	"get_diffs": func(s *facade.Server, _ json.RawMessage) (interface{}, error) {
		return s.GetDiffs()
	},
	"compare_directory": decodeThenCall(func(s *facade.Server, req facade.CompareDirectoryRequest) (interface{}, error) {
		return s.CompareDirectory(req)
	}),
	"resolve_dir_statuses": decodeThenCall(func(s *facade.Server, req facade.ResolveDirStatusesRequest) (interface{}, error) {
		return nil, s.ResolveDirStatuses(req)
	}),
	"cancel_dir_resolve": func(s *facade.Server, _ json.RawMessage) (interface{}, error) {
		return nil, s.CancelDirResolve()
	},
	"clear_dir_resolve_cache": func(s *facade.Server, _ json.RawMessage) (interface{}, error) {
		return nil, s.ClearDirResolveCache()
	},
	"copy_entry": decodeThenCall(func(s *facade.Server, req facade.CopyEntryRequest) (interface{}, error) {
		return nil, s.CopyEntry(req)
	}),
	"copy_entry_overwrite": decodeThenCall(func(s *facade.Server, req facade.CopyEntryRequest) (interface{}, error) {
		return nil, s.CopyEntryOverwrite(req)
	}),
	"move_entry": decodeThenCall(func(s *facade.Server, req facade.MoveEntryRequest) (interface{}, error) {
		return nil, s.MoveEntry(req)
	}),
	"delete_entry": decodeThenCall(func(s *facade.Server, req facade.DeleteEntryRequest) (interface{}, error) {
		return nil, s.DeleteEntry(req)
	}),
	"create_directory": decodeThenCall(func(s *facade.Server, req facade.CreateDirectoryRequest) (interface{}, error) {
		return s.CreateDirectory(req)
	}),
	"open_file": decodeThenCall(func(s *facade.Server, req facade.OpenFileRequest) (interface{}, error) {
		return nil, s.OpenFile(req)
	}),
	"spawn_terminal": decodeThenCall(func(s *facade.Server, req facade.SpawnTerminalRequest) (interface{}, error) {
		return nil, s.SpawnTerminal(req)
	}),
	"write_terminal": decodeThenCall(func(s *facade.Server, req facade.WriteTerminalRequest) (interface{}, error) {
		return nil, s.WriteTerminal(req)
	}),
	"resize_terminal": decodeThenCall(func(s *facade.Server, req facade.ResizeTerminalRequest) (interface{}, error) {
		return nil, s.ResizeTerminal(req)
	}),
	"kill_terminal": decodeThenCall(func(s *facade.Server, req facade.KillTerminalRequest) (interface{}, error) {
		return nil, s.KillTerminal(req)
	}),
	"export_report": decodeThenCall(func(s *facade.Server, req facade.ExportReportRequest) (interface{}, error) {
		return nil, s.ExportReport(req)
	}),
	"load_app_state": func(s *facade.Server, _ json.RawMessage) (interface{}, error) {
		return s.LoadAppState()
	},
	"save_app_state": decodeThenCall(func(s *facade.Server, req facade.SaveAppStateRequest) (interface{}, error) {
		return nil, s.SaveAppState(req)
	}),
}

// decodeThenCall adapts a typed verb function into a handlerFunc, decoding
// params into a fresh TReq value first.
func decodeThenCall[TReq any](fn func(s *facade.Server, req TReq) (interface{}, error)) handlerFunc {
	return func(s *facade.Server, params json.RawMessage) (interface{}, error) {
		var req TReq
		if len(params) > 0 {
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, fmt.Errorf("invalid params: %w", err)
			}
		}
		return fn(s, req)
	}
}

// serve runs the line-oriented JSON harness described in SPEC_FULL.md §1:
// one request object per line on in, one response object per line on out,
// events as JSON lines on events. It blocks until in is exhausted.
func serve(in io.Reader, out, events io.Writer, cfgPath string, logLevel logging.Level) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(events, "corefsd: stdin is a terminal; this harness expects one JSON request object per line")
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to load configuration: %w", err)
		}
		if err == nil {
			cfg = loaded
		}
	}

	logger := logging.NewLogger(logLevel, events)
	st := appstate.New(cfg)
	defer st.Close()
	server := facade.NewServer(st, logger)

	eventEncoder := json.NewEncoder(events)
	go func() {
		for ev := range server.Events() {
			_ = eventEncoder.Encode(eventLine{Name: string(ev.Name), Payload: ev.Payload})
		}
	}()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := handleLine(server, line)
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("unable to write response: %w", err)
		}
	}
	return scanner.Err()
}

// handleLine decodes and dispatches one request line, recovering from a
// panic in the handler itself so one malformed/adversarial request can never
// take down the whole harness process.
func handleLine(server *facade.Server, line []byte) (resp response) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return response{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	resp.ID = req.ID

	handler, ok := handlers[req.Verb]
	if !ok {
		resp.Error = fmt.Sprintf("unknown verb %q", req.Verb)
		return resp
	}

	defer func() {
		if r := recover(); r != nil {
			resp.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	result, err := handler(server, req.Params)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	return resp
}
