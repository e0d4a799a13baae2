package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvandessel/orbitsim/internal/logging"
	"github.com/nvandessel/orbitsim/internal/physics"
)

// Tracer receives one structured event per completed step.
// logging.StepTracer satisfies it.
type Tracer interface {
	Enabled() bool
	Log(event map[string]any)
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the operational logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the per-step event sink.
func WithTracer(t Tracer) Option {
	return func(s *Simulation) {
		s.tracer = t
	}
}

// Simulation owns a fixed set of bodies and advances them in lockstep.
// It is not safe for concurrent use.
type Simulation struct {
	cfg    Config
	bodies []*physics.Body
	index  map[string]int
	forces []physics.Vec2
	steps  int

	logger *slog.Logger
	tracer Tracer
}

// BodyState is a read-only copy of one body, as handed to drivers.
type BodyState struct {
	Name                string         `json:"name"`
	Color               string         `json:"color,omitempty"`
	Mass                float64        `json:"mass"`
	Reference           bool           `json:"reference"`
	Position            physics.Vec2   `json:"position"`
	Velocity            physics.Vec2   `json:"velocity"`
	DistanceToReference float64        `json:"distance_to_reference"`
	TrailLen            int            `json:"trail_len"`
	Trail               []physics.Vec2 `json:"trail,omitempty"`
}

// New builds a simulation from cfg and the initial body set. Bodies without
// a name are labelled "body-<index>"; names must be unique.
func New(cfg Config, specs []physics.BodySpec, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one body is required", ErrInvalidConfig)
	}

	s := &Simulation{
		cfg:    cfg,
		bodies: make([]*physics.Body, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
		forces: make([]physics.Vec2, len(specs)),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, spec := range specs {
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("body-%d", i)
		}
		if _, dup := s.index[spec.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate body name %q", ErrInvalidConfig, spec.Name)
		}
		b, err := physics.NewBody(spec, cfg.MaxTrailLength)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		s.index[spec.Name] = i
		s.bodies = append(s.bodies, b)
	}

	s.logger.Debug("simulation created",
		"bodies", len(s.bodies),
		"g", cfg.GravitationalConstant,
		"time_step", cfg.TimeStep,
		"max_trail_length", cfg.MaxTrailLength,
		"workers", cfg.Workers)

	return s, nil
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.bodies) }

// Steps returns the number of completed steps.
func (s *Simulation) Steps() int { return s.steps }

// Elapsed returns the simulated time in seconds.
func (s *Simulation) Elapsed() float64 { return float64(s.steps) * s.cfg.TimeStep }

// Body returns the body with the given name.
func (s *Simulation) Body(name string) (*physics.Body, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.bodies[i], true
}

// At returns the i-th body in construction order.
func (s *Simulation) At(i int) *physics.Body { return s.bodies[i] }

// Step advances every body by one time step.
//
// All forces are computed from the positions at the start of the step before
// any body moves. If a force cannot be evaluated the step is aborted, no body
// is modified and the error wraps physics.ErrDegenerateGeometry.
func (s *Simulation) Step() error {
	if err := s.computeForces(); err != nil {
		var ge *physics.GeometryError
		if errors.As(err, &ge) {
			s.logger.Warn("degenerate geometry", "step", s.steps+1, "a", ge.A, "b", ge.B)
		}
		return fmt.Errorf("step %d: %w", s.steps+1, err)
	}

	dt := s.cfg.TimeStep
	for i, b := range s.bodies {
		b.Integrate(s.forces[i], dt)
	}
	s.refreshReferenceDistances()
	s.steps++

	s.logger.Log(context.Background(), logging.LevelTrace, "step complete", "step", s.steps, "elapsed", s.Elapsed())
	s.trace()
	return nil
}

// StepN calls Step n times, stopping at the first error.
func (s *Simulation) StepN(n int) error {
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// refreshReferenceDistances records, for every body, the distance to the
// nearest other reference body at the current instant. Bodies with no other
// reference body keep their previous value.
func (s *Simulation) refreshReferenceDistances() {
	for i, b := range s.bodies {
		best := -1.0
		for j, r := range s.bodies {
			if i == j || !r.IsReference() {
				continue
			}
			d := b.Position().Dist(r.Position())
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 {
			b.SetDistanceToReference(best)
		}
	}
}

// Bodies returns snapshots of all bodies with their full trails.
func (s *Simulation) Bodies() []BodyState {
	return s.Snapshot(0)
}

// Snapshot returns copies of all bodies in construction order. tail selects
// how much of each trail is copied: 0 for all of it, n > 0 for the newest n
// points, and a negative value for none.
func (s *Simulation) Snapshot(tail int) []BodyState {
	out := make([]BodyState, len(s.bodies))
	for i, b := range s.bodies {
		st := BodyState{
			Name:                b.Name(),
			Color:               b.Color(),
			Mass:                b.Mass(),
			Reference:           b.IsReference(),
			Position:            b.Position(),
			Velocity:            b.Velocity(),
			DistanceToReference: b.DistanceToReference(),
			TrailLen:            b.TrailLen(),
		}
		switch {
		case tail == 0:
			st.Trail = b.Trail()
		case tail > 0:
			st.Trail = b.TrailTail(tail)
		}
		out[i] = st
	}
	return out
}

func (s *Simulation) trace() {
	if s.tracer == nil || !s.tracer.Enabled() {
		return
	}

	bodies := make([]map[string]any, len(s.bodies))
	for i, b := range s.bodies {
		p := b.Position()
		bodies[i] = map[string]any{
			"name":                  b.Name(),
			"x":                     p.X,
			"y":                     p.Y,
			"distance_to_reference": b.DistanceToReference(),
		}
	}
	s.tracer.Log(map[string]any{
		"event":   "step",
		"step":    s.steps,
		"elapsed": s.Elapsed(),
		"bodies":  bodies,
	})
}
