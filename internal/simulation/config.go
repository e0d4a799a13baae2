package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/orbitsim/internal/constants"
)

// ErrInvalidConfig is returned when a simulation cannot be built from its
// configuration or body set.
var ErrInvalidConfig = errors.New("simulation: invalid configuration")

// Config holds the constants of one simulation run.
type Config struct {
	// GravitationalConstant is G in m³ kg⁻¹ s⁻².
	GravitationalConstant float64 `json:"gravitational_constant" yaml:"gravitational_constant"`

	// TimeStep is the number of seconds advanced by each Step.
	TimeStep float64 `json:"time_step" yaml:"time_step"`

	// MaxTrailLength caps each body's trail. 0 keeps the full trajectory.
	MaxTrailLength int `json:"max_trail_length" yaml:"max_trail_length"`

	// Workers bounds the goroutines used by the force phase.
	// 0 or 1 evaluates forces sequentially.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns SI gravity with a one-day step and unbounded trails.
func DefaultConfig() Config {
	return Config{
		GravitationalConstant: constants.GravitationalConstant,
		TimeStep:              constants.Day,
		MaxTrailLength:        0,
		Workers:               1,
	}
}

// Validate checks that the configuration can drive a simulation.
func (c Config) Validate() error {
	if !(c.GravitationalConstant > 0) || math.IsInf(c.GravitationalConstant, 0) {
		return fmt.Errorf("%w: gravitational_constant must be finite and positive, got %g", ErrInvalidConfig, c.GravitationalConstant)
	}
	if !(c.TimeStep > 0) || math.IsInf(c.TimeStep, 0) {
		return fmt.Errorf("%w: time_step must be finite and positive, got %g", ErrInvalidConfig, c.TimeStep)
	}
	if c.MaxTrailLength < 0 {
		return fmt.Errorf("%w: max_trail_length must be non-negative, got %d", ErrInvalidConfig, c.MaxTrailLength)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
