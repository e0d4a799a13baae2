// Package scenario describes initial body sets: the built-in scenarios and
// YAML scenario files, and turns them into simulations.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/orbitsim/internal/physics"
	"github.com/nvandessel/orbitsim/internal/sanitize"
	"github.com/nvandessel/orbitsim/internal/simulation"
	"gopkg.in/yaml.v3"
)

// ErrUnknownScenario is returned when a scenario name is not built in.
var ErrUnknownScenario = errors.New("unknown scenario")

// ErrInvalidScenario is returned when a scenario file cannot describe a body set.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a named initial body set.
type Scenario struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// AutoOrbit gives every non-reference body that starts at rest the
	// velocity of a clockwise circular orbit around the heaviest reference body.
	AutoOrbit bool `json:"auto_orbit,omitempty" yaml:"auto_orbit,omitempty"`

	Bodies []Body `json:"bodies" yaml:"bodies"`
}

// Body is one entry of a scenario. Positions are in meters, velocities in
// meters per second, mass in kilograms.
type Body struct {
	Name      string  `json:"name" yaml:"name"`
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	VX        float64 `json:"vx,omitempty" yaml:"vx,omitempty"`
	VY        float64 `json:"vy,omitempty" yaml:"vy,omitempty"`
	Mass      float64 `json:"mass" yaml:"mass"`
	Reference bool    `json:"reference,omitempty" yaml:"reference,omitempty"`
	Color     string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Parse decodes a YAML scenario. Names, the description, and colors are
// sanitized before validation.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	sc.sanitize()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads and parses a YAML scenario file. A file without a name is
// named after its base name minus the extension.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		base := filepath.Base(path)
		sc.Name = sanitize.Name(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return sc, nil
}

// Resolve returns the scenario loaded from file when file is set, and the
// built-in scenario called name otherwise.
func Resolve(name, file string) (*Scenario, error) {
	if file != "" {
		return LoadFile(file)
	}
	return Builtin(name)
}

// Validate checks the structure of the scenario. Mass checks are left to
// physics.NewBody.
func (sc *Scenario) Validate() error {
	if len(sc.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidScenario)
	}
	seen := make(map[string]bool, len(sc.Bodies))
	for i, b := range sc.Bodies {
		if b.Name == "" {
			continue
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: body %d: duplicate name %q", ErrInvalidScenario, i, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

func (sc *Scenario) sanitize() {
	sc.Name = sanitize.Name(sc.Name)
	sc.Description = sanitize.Description(sc.Description)
	for i := range sc.Bodies {
		sc.Bodies[i].Name = sanitize.Name(sc.Bodies[i].Name)
		sc.Bodies[i].Color = sanitize.Color(sc.Bodies[i].Color)
	}
}

// Marshal encodes the scenario as YAML.
func (sc *Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(sc)
}

// Specs converts the scenario into body specs, applying auto orbits with
// gravitational constant g.
func (sc *Scenario) Specs(g float64) []physics.BodySpec {
	specs := make([]physics.BodySpec, len(sc.Bodies))
	for i, b := range sc.Bodies {
		specs[i] = physics.BodySpec{
			Name:      b.Name,
			Position:  physics.Vec2{X: b.X, Y: b.Y},
			Velocity:  physics.Vec2{X: b.VX, Y: b.VY},
			Mass:      b.Mass,
			Reference: b.Reference,
			Color:     b.Color,
		}
	}
	if sc.AutoOrbit {
		applyAutoOrbit(specs, g)
	}
	return specs
}

// Build creates a simulation of the scenario under cfg.
func (sc *Scenario) Build(cfg simulation.Config, opts ...simulation.Option) (*simulation.Simulation, error) {
	s, err := simulation.New(cfg, sc.Specs(cfg.GravitationalConstant), opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return s, nil
}

func applyAutoOrbit(specs []physics.BodySpec, g float64) {
	center := -1
	for i, s := range specs {
		if s.Reference && (center < 0 || s.Mass > specs[center].Mass) {
			center = i
		}
	}
	if center < 0 {
		return
	}

	c := specs[center]
	for i := range specs {
		if i == center || specs[i].Reference || specs[i].Velocity != (physics.Vec2{}) {
			continue
		}
		v := simulation.CircularVelocity(g, c.Mass, c.Position, specs[i].Position, true)
		specs[i].Velocity = v.Add(c.Velocity)
	}
}
