package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/orbitsim/internal/simulation"
)

// InMemoryRecorder implements Recorder for testing and for runs that are
// only exported, never written to disk.
type InMemoryRecorder struct {
	mu      sync.RWMutex
	runs    []Run
	samples map[int64][]Sample
	lastID  int64
}

// NewInMemoryRecorder creates an empty in-memory recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{
		samples: make(map[int64][]Sample),
	}
}

// BeginRun registers a run. IDs start at 1 and are never reused.
func (r *InMemoryRecorder) BeginRun(ctx context.Context, info RunInfo) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	id := r.lastID
	r.runs = append(r.runs, Run{
		ID:                    id,
		Scenario:              info.Scenario,
		GravitationalConstant: info.Config.GravitationalConstant,
		TimeStep:              info.Config.TimeStep,
		CreatedAt:             time.Now().UTC(),
		Bodies:                runBodies(info.Bodies),
	})
	r.samples[id] = nil
	return id, nil
}

// Record appends one sample per body. A repeated step replaces the earlier one.
func (r *InMemoryRecorder) Record(ctx context.Context, runID int64, step int, elapsed float64, bodies []simulation.BodyState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.samples[runID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}

	kept := existing[:0]
	for _, s := range existing {
		if s.Step != step {
			kept = append(kept, s)
		}
	}
	kept = append(kept, samplesFor(runID, step, elapsed, bodies)...)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Step < kept[j].Step })
	r.samples[runID] = kept
	return nil
}

// Runs lists recorded runs, oldest first.
func (r *InMemoryRecorder) Runs(ctx context.Context) ([]Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Run, len(r.runs))
	for i, run := range r.runs {
		run.Bodies = append([]RunBody(nil), run.Bodies...)
		run.Samples = len(r.samples[run.ID])
		out[i] = run
	}
	return out, nil
}

// Samples returns a copy of a run's samples.
func (r *InMemoryRecorder) Samples(ctx context.Context, runID int64) ([]Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	samples, ok := r.samples[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return append([]Sample(nil), samples...), nil
}

// DeleteRun removes a run and its samples.
func (r *InMemoryRecorder) DeleteRun(ctx context.Context, runID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.samples[runID]; !ok {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	delete(r.samples, runID)
	for i, run := range r.runs {
		if run.ID == runID {
			r.runs = append(r.runs[:i], r.runs[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (r *InMemoryRecorder) Close() error {
	return nil
}
