// Package store defines the Recorder interface for writing simulation runs
// and reading them back for export.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/orbitsim/internal/simulation"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunInfo describes a run at the moment recording starts.
type RunInfo struct {
	Scenario string
	Config   simulation.Config
	Bodies   []simulation.BodyState
}

// Run is a recorded run.
type Run struct {
	ID                    int64     `json:"id"`
	Scenario              string    `json:"scenario"`
	GravitationalConstant float64   `json:"gravitational_constant"`
	TimeStep              float64   `json:"time_step"`
	CreatedAt             time.Time `json:"created_at"`
	Bodies                []RunBody `json:"bodies"`
	Samples               int       `json:"samples"`
}

// RunBody is one body of a recorded run, in construction order.
type RunBody struct {
	Name      string  `json:"name"`
	Mass      float64 `json:"mass"`
	Reference bool    `json:"reference"`
	Color     string  `json:"color,omitempty"`
}

// Sample is the state of one body after one step.
type Sample struct {
	RunID               int64   `json:"run_id"`
	Step                int     `json:"step"`
	Elapsed             float64 `json:"elapsed"`
	Body                string  `json:"body"`
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	VX                  float64 `json:"vx"`
	VY                  float64 `json:"vy"`
	DistanceToReference float64 `json:"distance_to_reference"`
}

// Recorder stores runs and their per-step samples.
type Recorder interface {
	// BeginRun registers a new run and returns its ID.
	BeginRun(ctx context.Context, info RunInfo) (int64, error)

	// Record stores one sample per body for the given step.
	Record(ctx context.Context, runID int64, step int, elapsed float64, bodies []simulation.BodyState) error

	// Runs lists recorded runs, oldest first.
	Runs(ctx context.Context) ([]Run, error)

	// Samples returns a run's samples ordered by step, then body order.
	Samples(ctx context.Context, runID int64) ([]Sample, error)

	// DeleteRun removes a run with its bodies and samples.
	DeleteRun(ctx context.Context, runID int64) error

	Close() error
}

func samplesFor(runID int64, step int, elapsed float64, bodies []simulation.BodyState) []Sample {
	out := make([]Sample, len(bodies))
	for i, b := range bodies {
		out[i] = Sample{
			RunID:               runID,
			Step:                step,
			Elapsed:             elapsed,
			Body:                b.Name,
			X:                   b.Position.X,
			Y:                   b.Position.Y,
			VX:                  b.Velocity.X,
			VY:                  b.Velocity.Y,
			DistanceToReference: b.DistanceToReference,
		}
	}
	return out
}

func runBodies(bodies []simulation.BodyState) []RunBody {
	out := make([]RunBody, len(bodies))
	for i, b := range bodies {
		out[i] = RunBody{Name: b.Name, Mass: b.Mass, Reference: b.Reference, Color: b.Color}
	}
	return out
}
