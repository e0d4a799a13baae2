package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readAuditEntries(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, AuditFileName))
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_NilSafety(t *testing.T) {
	t.Run("nil logger Log is no-op", func(t *testing.T) {
		var logger *AuditLogger
		logger.Log(AuditEntry{Tool: "test"})
	})

	t.Run("nil logger Close is no-op", func(t *testing.T) {
		var logger *AuditLogger
		if err := logger.Close(); err != nil {
			t.Errorf("Close() on nil logger returned error: %v", err)
		}
	})
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "orbitsim_step",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"steps": "10"},
		Step:       10,
	})

	entries := readAuditEntries(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Tool != "orbitsim_step" {
		t.Errorf("tool = %q, want orbitsim_step", e.Tool)
	}
	if e.DurationMs != 42 {
		t.Errorf("duration_ms = %d, want 42", e.DurationMs)
	}
	if e.Params["steps"] != "10" {
		t.Errorf("params[steps] = %q, want 10", e.Params["steps"])
	}
	if e.Step != 10 {
		t.Errorf("step = %d, want 10", e.Step)
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audit")
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	logger.Log(AuditEntry{Tool: "test"})

	info, err := os.Stat(filepath.Join(dir, AuditFileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	const goroutines = 10
	const entriesPerGoroutine = 5

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				logger.Log(AuditEntry{Tool: "orbitsim_bodies", Status: "success"})
			}
		}()
	}
	wg.Wait()

	if got := len(readAuditEntries(t, dir)); got != goroutines*entriesPerGoroutine {
		t.Errorf("got %d entries, want %d", got, goroutines*entriesPerGoroutine)
	}
}

func TestAuditLogger_LogAfterClose(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Log(AuditEntry{Tool: "before"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	logger.Log(AuditEntry{Tool: "after"})
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	entries := readAuditEntries(t, dir)
	if len(entries) != 1 || entries[0].Tool != "before" {
		t.Errorf("entries = %+v, want only the entry written before Close", entries)
	}
}

func TestAuditLogger_NonFatalOnBadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if logger := NewAuditLogger(filepath.Join(blocker, "sub")); logger != nil {
		logger.Close()
		t.Error("expected nil logger when the directory cannot be created")
	}
}

func TestToolParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   map[string]string
	}{
		{
			name:   "nil params",
			params: nil,
			want:   nil,
		},
		{
			name:   "known values kept",
			params: map[string]any{"steps": 10, "trail": 5},
			want:   map[string]string{"steps": "10", "trail": "5", "_param_count": "2"},
		},
		{
			name:   "zero values are not counted",
			params: map[string]any{"steps": 0, "scenario": ""},
			want:   map[string]string{"_param_count": "0"},
		},
		{
			name:   "unknown keys counted but dropped",
			params: map[string]any{"name": "earth", "secret": "x"},
			want:   map[string]string{"name": "earth", "_param_count": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toolParams(tt.params)
			if tt.want == nil {
				if got != nil {
					t.Errorf("toolParams() = %v, want nil", got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("toolParams() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("toolParams()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestAuditTool_RecordsStatusAndStep(t *testing.T) {
	dir := t.TempDir()
	server := newTestServer(t, dir)

	start := time.Now()
	server.auditTool("orbitsim_step", start, nil, map[string]string{"steps": "1"})
	server.auditTool("orbitsim_trail", start, errors.New("no body named \"pluto\""), nil)

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[0].Error != "" {
		t.Errorf("first entry = %+v, want success without error", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Errorf("second entry = %+v, want error with message", entries[1])
	}
}
