package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/orbitsim/internal/simulation"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRecorder implements Recorder on a SQLite database file.
type SQLiteRecorder struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRecorder opens or creates the database at path.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRecorder{db: db, dbPath: path}, nil
}

// Path returns the database file path.
func (r *SQLiteRecorder) Path() string { return r.dbPath }

// BeginRun inserts a run with its bodies.
func (r *SQLiteRecorder) BeginRun(ctx context.Context, info RunInfo) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (scenario, gravitational_constant, time_step, created_at) VALUES (?, ?, ?, ?)`,
		info.Scenario, info.Config.GravitationalConstant, info.Config.TimeStep,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for i, b := range info.Bodies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_bodies (run_id, idx, name, mass, reference, color) VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, b.Name, b.Mass, boolToInt(b.Reference), b.Color); err != nil {
			return 0, fmt.Errorf("failed to insert body %s: %w", b.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// Record inserts one sample per body in a single transaction.
func (r *SQLiteRecorder) Record(ctx context.Context, runID int64, step int, elapsed float64, bodies []simulation.BodyState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO samples
			(run_id, step, body_idx, body, elapsed, x, y, vx, vy, distance_to_reference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range samplesFor(runID, step, elapsed, bodies) {
		if _, err := stmt.ExecContext(ctx,
			s.RunID, s.Step, i, s.Body, s.Elapsed, s.X, s.Y, s.VX, s.VY, s.DistanceToReference); err != nil {
			return fmt.Errorf("failed to insert sample for %s at step %d: %w", s.Body, step, err)
		}
	}

	return tx.Commit()
}

// Runs lists recorded runs, oldest first.
func (r *SQLiteRecorder) Runs(ctx context.Context) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.scenario, r.gravitational_constant, r.time_step, r.created_at,
			(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)
		FROM runs r
		ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &run.Scenario, &run.GravitationalConstant, &run.TimeStep, &created, &run.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		bodies, err := r.runBodies(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Bodies = bodies
	}
	return runs, nil
}

func (r *SQLiteRecorder) runBodies(ctx context.Context, runID int64) ([]RunBody, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, mass, reference, color FROM run_bodies WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run bodies: %w", err)
	}
	defer rows.Close()

	var bodies []RunBody
	for rows.Next() {
		var b RunBody
		var ref int
		var color sql.NullString
		if err := rows.Scan(&b.Name, &b.Mass, &ref, &color); err != nil {
			return nil, fmt.Errorf("failed to scan run body: %w", err)
		}
		b.Reference = ref != 0
		b.Color = color.String
		bodies = append(bodies, b)
	}
	return bodies, rows.Err()
}

// Samples returns a run's samples ordered by step, then body order.
func (r *SQLiteRecorder) Samples(ctx context.Context, runID int64) ([]Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, step, elapsed, body, x, y, vx, vy, distance_to_reference
		FROM samples
		WHERE run_id = ?
		ORDER BY step, body_idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.RunID, &s.Step, &s.Elapsed, &s.Body, &s.X, &s.Y, &s.VX, &s.VY, &s.DistanceToReference); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}
	return samples, nil
}

// DeleteRun removes a run; its bodies and samples go with it by cascade.
func (r *SQLiteRecorder) DeleteRun(ctx context.Context, runID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
