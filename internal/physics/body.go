// Package physics implements the point-mass body entity and the Newtonian
// gravity it obeys.
//
// A Body knows nothing about the simulation that owns it: the gravitational
// constant and the time step are passed in by the caller on every operation,
// so several simulations with different constants can coexist in one process.
package physics

import (
	"math"
)

// BodySpec describes a body at creation time.
type BodySpec struct {
	Name      string  `json:"name"`
	Position  Vec2    `json:"position"`
	Velocity  Vec2    `json:"velocity"`
	Mass      float64 `json:"mass"`
	Reference bool    `json:"reference"`

	// Color is an optional "#rrggbb" hint for drivers. It is never interpreted here.
	Color string `json:"color,omitempty"`
}

// Body is a point mass with a recorded trajectory.
type Body struct {
	name      string
	color     string
	mass      float64
	reference bool

	pos Vec2
	vel Vec2

	distanceToReference float64
	trail               *Trail
}

// NewBody validates spec and returns a body whose trail holds the initial
// position. trailLimit <= 0 keeps the full trajectory.
func NewBody(spec BodySpec, trailLimit int) (*Body, error) {
	if !(spec.Mass > 0) || math.IsInf(spec.Mass, 0) {
		return nil, &MassError{Name: spec.Name, Mass: spec.Mass}
	}

	b := &Body{
		name:      spec.Name,
		color:     spec.Color,
		mass:      spec.Mass,
		reference: spec.Reference,
		pos:       spec.Position,
		vel:       spec.Velocity,
		trail:     NewTrail(trailLimit),
	}
	b.trail.Append(b.pos)
	return b, nil
}

func (b *Body) Name() string      { return b.name }
func (b *Body) Color() string     { return b.color }
func (b *Body) Mass() float64     { return b.mass }
func (b *Body) IsReference() bool { return b.reference }
func (b *Body) Position() Vec2    { return b.pos }
func (b *Body) Velocity() Vec2    { return b.vel }

// DistanceToReference returns the last recorded distance to a reference
// body, or 0 if none has been recorded yet.
func (b *Body) DistanceToReference() float64 {
	return b.distanceToReference
}

// SetDistanceToReference records d as the current distance to a reference body.
func (b *Body) SetDistanceToReference(d float64) {
	b.distanceToReference = d
}

// Trail returns a copy of the recorded positions, oldest first.
func (b *Body) Trail() []Vec2 {
	return b.trail.Points()
}

// TrailLen returns the number of recorded positions without copying them.
func (b *Body) TrailLen() int {
	return b.trail.Len()
}

// TrailTail returns a copy of the newest n recorded positions.
func (b *Body) TrailTail(n int) []Vec2 {
	return b.trail.Tail(n)
}

// ForceFrom returns the gravitational force other exerts on b.
//
// If other is a reference body, b's distance to reference is set to the
// current separation as a side effect.
func (b *Body) ForceFrom(other *Body, g float64) (Vec2, error) {
	if other == b {
		return Vec2{}, ErrSelfInteraction
	}

	f, d, err := Gravity(g, b.mass, other.mass, b.pos, other.pos)
	if err != nil {
		return Vec2{}, &GeometryError{A: b.name, B: other.name, Position: b.pos}
	}

	if other.reference {
		b.distanceToReference = d
	}
	return f, nil
}

// Integrate advances b by one semi-implicit Euler step under force f: the
// velocity is updated first and the new velocity moves the position. The new
// position is appended to the trail.
func (b *Body) Integrate(f Vec2, dt float64) {
	b.vel = b.vel.Add(f.Scale(dt / b.mass))
	b.pos = b.pos.Add(b.vel.Scale(dt))
	b.trail.Append(b.pos)
}

// KineticEnergy returns ½mv².
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.mass * (b.vel.X*b.vel.X + b.vel.Y*b.vel.Y)
}

// Gravity returns the force a mass m2 at p2 exerts on a mass m1 at p1, along
// with their separation. The direction is decomposed from the angle of the
// vector p1→p2. Coincident positions yield ErrDegenerateGeometry.
func Gravity(g, m1, m2 float64, p1, p2 Vec2) (Vec2, float64, error) {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	d := math.Sqrt(dx*dx + dy*dy)
	if d == 0 {
		return Vec2{}, 0, ErrDegenerateGeometry
	}

	force := g * m1 * m2 / (d * d)
	theta := math.Atan2(dy, dx)
	return Vec2{X: math.Cos(theta) * force, Y: math.Sin(theta) * force}, d, nil
}
