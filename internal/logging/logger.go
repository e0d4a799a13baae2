// Package logging provides leveled logging and step tracing for orbitsim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StepTracer for structured JSONL step traces (<trace dir>/steps.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug.
// At this level every completed simulation step is logged.
const LevelTrace = slog.LevelDebug - 4

// TraceFileName is the name of the JSONL file written by a StepTracer.
const TraceFileName = "steps.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// StepTracer writes structured step events to a JSONL file.
// It is safe for concurrent use. A nil StepTracer is safe to use;
// all methods are no-ops on nil receiver.
type StepTracer struct {
	mu    sync.Mutex
	file  *os.File
	lines int
}

// NewStepTracer creates a tracer writing to dir/steps.jsonl.
// At "info" level and above, or with an empty dir, it returns nil and no
// file is created. At "debug" or "trace" level the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewStepTracer(dir string, level string) *StepTracer {
	if dir == "" || ParseLevel(level) > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, TraceFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &StepTracer{file: f}
}

// Enabled reports whether events will be written.
func (st *StepTracer) Enabled() bool {
	if st == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.file != nil
}

// Log writes an event as a single JSONL line.
// A "time" field is added automatically. The caller's map is not mutated.
// Safe to call on nil receiver.
func (st *StepTracer) Log(event map[string]any) {
	if st == nil {
		return
	}

	// Copy to avoid mutating caller's map
	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.file == nil {
		return
	}
	if _, err := st.file.Write(data); err == nil {
		st.lines++
	}
}

// Lines returns the number of events written so far.
func (st *StepTracer) Lines() int {
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lines
}

// Close closes the underlying file. Safe to call on nil receiver.
func (st *StepTracer) Close() {
	if st == nil {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.file == nil {
		return
	}
	st.file.Close()
	st.file = nil
}
