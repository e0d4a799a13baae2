package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/orbitsim/internal/physics"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

func newTestSim(t *testing.T) *simulation.Simulation {
	t.Helper()
	s, err := simulation.New(simulation.DefaultConfig(), []physics.BodySpec{
		{Name: "Sun", Mass: 1.989e30, Reference: true, Color: "#ffff00"},
		{Name: "Earth", Position: physics.Vec2{X: 1.496e11}, Velocity: physics.Vec2{Y: -29783}, Mass: 5.974e24},
	})
	if err != nil {
		t.Fatalf("simulation.New: %v", err)
	}
	return s
}

func recorders() map[string]func(t *testing.T) Recorder {
	return map[string]func(t *testing.T) Recorder{
		"memory": func(t *testing.T) Recorder { return NewInMemoryRecorder() },
		"sqlite": func(t *testing.T) Recorder {
			r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
			if err != nil {
				t.Fatalf("NewSQLiteRecorder() error = %v", err)
			}
			return r
		},
	}
}

func TestRecorder_RecordRun(t *testing.T) {
	for name, mk := range recorders() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk(t)
			defer r.Close()

			s := newTestSim(t)
			id, err := StartRun(ctx, r, "earth-sun", s)
			if err != nil {
				t.Fatalf("StartRun() error = %v", err)
			}
			if err := s.Run(ctx, 10, Observer(ctx, r, id, 5)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			samples, err := r.Samples(ctx, id)
			if err != nil {
				t.Fatalf("Samples() error = %v", err)
			}
			// Steps 0, 5 and 10, two bodies each.
			if len(samples) != 6 {
				t.Fatalf("got %d samples, want 6", len(samples))
			}
			wantSteps := []int{0, 0, 5, 5, 10, 10}
			wantBodies := []string{"Sun", "Earth", "Sun", "Earth", "Sun", "Earth"}
			for i, smp := range samples {
				if smp.Step != wantSteps[i] || smp.Body != wantBodies[i] {
					t.Errorf("sample %d = step %d body %s, want step %d body %s",
						i, smp.Step, smp.Body, wantSteps[i], wantBodies[i])
				}
			}

			last := samples[5]
			earth, _ := s.Body("Earth")
			if last.X != earth.Position().X || last.VY != earth.Velocity().Y {
				t.Errorf("last sample %+v does not match Earth state %v/%v", last, earth.Position(), earth.Velocity())
			}
			if last.DistanceToReference != earth.DistanceToReference() {
				t.Errorf("distance = %g, want %g", last.DistanceToReference, earth.DistanceToReference())
			}
			if last.Elapsed != s.Elapsed() {
				t.Errorf("elapsed = %g, want %g", last.Elapsed, s.Elapsed())
			}

			runs, err := r.Runs(ctx)
			if err != nil {
				t.Fatalf("Runs() error = %v", err)
			}
			if len(runs) != 1 {
				t.Fatalf("got %d runs, want 1", len(runs))
			}
			run := runs[0]
			if run.ID != id || run.Scenario != "earth-sun" || run.Samples != 6 {
				t.Errorf("unexpected run %+v", run)
			}
			if run.TimeStep != s.Config().TimeStep || run.GravitationalConstant != s.Config().GravitationalConstant {
				t.Errorf("run constants %g/%g do not match config", run.GravitationalConstant, run.TimeStep)
			}
			if len(run.Bodies) != 2 || !run.Bodies[0].Reference || run.Bodies[0].Color != "#ffff00" || run.Bodies[1].Name != "Earth" {
				t.Errorf("unexpected run bodies %+v", run.Bodies)
			}
		})
	}
}

func TestRecorder_RepeatedStepReplaces(t *testing.T) {
	for name, mk := range recorders() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk(t)
			defer r.Close()

			s := newTestSim(t)
			id, err := StartRun(ctx, r, "x", s)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Record(ctx, id, 0, 0, s.Snapshot(-1)); err != nil {
				t.Fatal(err)
			}
			samples, err := r.Samples(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if len(samples) != 2 {
				t.Errorf("got %d samples, want 2", len(samples))
			}
		})
	}
}

func TestRecorder_UnknownRun(t *testing.T) {
	for name, mk := range recorders() {
		t.Run(name, func(t *testing.T) {
			r := mk(t)
			defer r.Close()

			_, err := r.Samples(context.Background(), 42)
			if !errors.Is(err, ErrRunNotFound) {
				t.Errorf("expected ErrRunNotFound, got %v", err)
			}
		})
	}
}

func TestExportJSONL(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRecorder()

	for i := 0; i < 2; i++ {
		s := newTestSim(t)
		id, err := StartRun(ctx, r, "earth-sun", s)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Run(ctx, 3, Observer(ctx, r, id, 1)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		runID int64
		want  int
	}{
		{"single run", 2, 8},
		{"all runs", 0, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := ExportJSONL(ctx, r, tt.runID, &buf)
			if err != nil {
				t.Fatalf("ExportJSONL() error = %v", err)
			}
			if n != tt.want {
				t.Errorf("wrote %d lines, want %d", n, tt.want)
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != tt.want {
				t.Fatalf("got %d lines, want %d", len(lines), tt.want)
			}
			var first Sample
			if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
				t.Fatalf("line is not a sample: %v", err)
			}
			if tt.runID != 0 && first.RunID != tt.runID {
				t.Errorf("run_id = %d, want %d", first.RunID, tt.runID)
			}
		})
	}

	if _, err := ExportJSONL(ctx, r, 99, &bytes.Buffer{}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteRecorder_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.db")

	r, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() error = %v", err)
	}
	s := newTestSim(t)
	id, err := StartRun(ctx, r, "earth-sun", s)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(ctx, 4, Observer(ctx, r, id, 2)); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if reopened.Path() != path {
		t.Errorf("Path() = %s, want %s", reopened.Path(), path)
	}
	samples, err := reopened.Samples(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 6 {
		t.Errorf("got %d samples after reopen, want 6", len(samples))
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	if err := InitSchema(ctx, r.db); err != nil {
		t.Fatalf("second InitSchema() error = %v", err)
	}
	version, err := getSchemaVersion(ctx, r.db)
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestInitSchema_RejectsNewerVersion(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(ctx, r.db); err == nil {
		t.Error("expected error for newer schema version")
	}
}

func TestInitSchema_MigratesVersion1(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v1.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		t.Fatalf("creating v1 tables: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (1, datetime('now'))`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO runs (scenario, gravitational_constant, time_step, created_at) VALUES ('solar', 6.67428e-11, 86400, '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	r, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("opening v1 database: %v", err)
	}
	defer r.Close()

	version, err := getSchemaVersion(ctx, r.db)
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}

	var indexes int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name IN ('idx_runs_created_at', 'idx_samples_body')`).Scan(&indexes); err != nil {
		t.Fatal(err)
	}
	if indexes != 2 {
		t.Errorf("found %d migration indexes, want 2", indexes)
	}

	runs, err := r.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Scenario != "solar" {
		t.Errorf("runs after migration = %+v", runs)
	}
}

func TestDefaultDBPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, ".orbitsim", DefaultFileName)
	if got != want {
		t.Errorf("DefaultDBPath() = %s, want %s", got, want)
	}
}
