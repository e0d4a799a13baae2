package simulation

import (
	"context"
)

// Observer is called after every completed step. Returning an error stops
// the run and the error is returned from Run.
type Observer func(step int, s *Simulation) error

// Run advances the simulation n steps, or until ctx is cancelled when n < 0.
// Run with n == 0 leaves the simulation untouched. The context is checked
// before every step; cancellation returns ctx.Err().
func (s *Simulation) Run(ctx context.Context, n int, observe Observer) error {
	s.logger.Debug("run started", "steps", n, "from_step", s.steps)

	for i := 0; n < 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			s.logger.Debug("run cancelled", "step", s.steps)
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
		if observe != nil {
			if err := observe(s.steps, s); err != nil {
				return err
			}
		}
	}

	s.logger.Debug("run finished", "step", s.steps, "elapsed", s.Elapsed())
	return nil
}
