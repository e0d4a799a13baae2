package physics

import (
	"errors"
	"fmt"
)

// Sentinel errors for force evaluation and body construction.
var (
	// ErrDegenerateGeometry means two bodies occupied the same position when a
	// force between them was evaluated.
	ErrDegenerateGeometry = errors.New("physics: degenerate geometry (coincident bodies)")

	// ErrInvalidMass means a body was constructed with a mass that is not a
	// finite positive number.
	ErrInvalidMass = errors.New("physics: mass must be finite and positive")

	// ErrSelfInteraction means a body was asked for the force it exerts on itself.
	ErrSelfInteraction = errors.New("physics: body cannot interact with itself")
)

// GeometryError records which pair of bodies coincided.
type GeometryError struct {
	A, B     string
	Position Vec2
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("physics: bodies %q and %q coincide at (%g, %g)", e.A, e.B, e.Position.X, e.Position.Y)
}

func (e *GeometryError) Unwrap() error {
	return ErrDegenerateGeometry
}

// MassError records the rejected mass of a body.
type MassError struct {
	Name string
	Mass float64
}

func (e *MassError) Error() string {
	return fmt.Sprintf("physics: body %q has invalid mass %g", e.Name, e.Mass)
}

func (e *MassError) Unwrap() error {
	return ErrInvalidMass
}
