package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/orbitsim/internal/simulation"
)

// Observer returns a simulation observer that records the state of every
// body every n steps into runID. n <= 1 records every step.
func Observer(ctx context.Context, r Recorder, runID int64, n int) simulation.Observer {
	if n < 1 {
		n = 1
	}
	return func(step int, s *simulation.Simulation) error {
		if step%n != 0 {
			return nil
		}
		return r.Record(ctx, runID, step, s.Elapsed(), s.Snapshot(-1))
	}
}

// StartRun registers s with r and records its current state as the first
// sample.
func StartRun(ctx context.Context, r Recorder, scenario string, s *simulation.Simulation) (int64, error) {
	bodies := s.Snapshot(-1)
	id, err := r.BeginRun(ctx, RunInfo{Scenario: scenario, Config: s.Config(), Bodies: bodies})
	if err != nil {
		return 0, err
	}
	if err := r.Record(ctx, id, s.Steps(), s.Elapsed(), bodies); err != nil {
		return 0, err
	}
	return id, nil
}

// ExportJSONL writes the samples of runID as JSON lines to w. A runID of 0
// exports every run in order. Returns the number of lines written.
func ExportJSONL(ctx context.Context, r Recorder, runID int64, w io.Writer) (int, error) {
	ids := []int64{runID}
	if runID == 0 {
		runs, err := r.Runs(ctx)
		if err != nil {
			return 0, err
		}
		ids = ids[:0]
		for _, run := range runs {
			ids = append(ids, run.ID)
		}
	}

	enc := json.NewEncoder(w)
	n := 0
	for _, id := range ids {
		samples, err := r.Samples(ctx, id)
		if err != nil {
			return n, err
		}
		for _, s := range samples {
			if err := enc.Encode(s); err != nil {
				return n, fmt.Errorf("failed to write sample: %w", err)
			}
			n++
		}
	}
	return n, nil
}
