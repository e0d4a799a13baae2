package simulation

import (
	"math"

	"github.com/nvandessel/orbitsim/internal/physics"
)

// CircularSpeed returns the speed of a circular orbit of radius r around a
// mass centralMass under constant g: v = sqrt(g M / r).
func CircularSpeed(g, centralMass, r float64) float64 {
	if r <= 0 {
		return 0
	}
	return math.Sqrt(g * centralMass / r)
}

// CircularVelocity returns the velocity that puts a body at pos on a circular
// orbit around a mass at center. The orbit runs counter-clockwise unless
// clockwise is set.
func CircularVelocity(g, centralMass float64, center, pos physics.Vec2, clockwise bool) physics.Vec2 {
	rel := pos.Sub(center)
	r := rel.Len()
	if r == 0 {
		return physics.Vec2{}
	}
	v := CircularSpeed(g, centralMass, r)

	// Tangent is the radius rotated a quarter turn.
	t := physics.Vec2{X: -rel.Y / r, Y: rel.X / r}
	if clockwise {
		t = t.Neg()
	}
	return t.Scale(v)
}

// TwoBody returns a reference body of mass centralMass at the origin and a
// satellite of mass m on the +x axis at radius r with circular-orbit velocity.
func TwoBody(g, centralMass, m, r float64) []physics.BodySpec {
	sat := physics.Vec2{X: r}
	return []physics.BodySpec{
		{Name: "primary", Mass: centralMass, Reference: true},
		{
			Name:     "satellite",
			Position: sat,
			Velocity: CircularVelocity(g, centralMass, physics.Vec2{}, sat, false),
			Mass:     m,
		},
	}
}
