package simulation

import (
	"math"

	"github.com/nvandessel/orbitsim/internal/physics"
)

// KineticEnergy returns Σ ½mv² over all bodies, in joules.
func (s *Simulation) KineticEnergy() float64 {
	ke := 0.0
	for _, b := range s.bodies {
		ke += b.KineticEnergy()
	}
	return ke
}

// PotentialEnergy returns Σ -G mᵢ mⱼ / rᵢⱼ over all unordered pairs.
// Coincident pairs make it -Inf.
func (s *Simulation) PotentialEnergy() float64 {
	g := s.cfg.GravitationalConstant
	pe := 0.0
	for i := 0; i < len(s.bodies); i++ {
		for j := i + 1; j < len(s.bodies); j++ {
			r := s.bodies[i].Position().Dist(s.bodies[j].Position())
			if r == 0 {
				return math.Inf(-1)
			}
			pe -= g * s.bodies[i].Mass() * s.bodies[j].Mass() / r
		}
	}
	return pe
}

// TotalEnergy returns kinetic plus potential energy.
func (s *Simulation) TotalEnergy() float64 {
	return s.KineticEnergy() + s.PotentialEnergy()
}

// Momentum returns Σ m·v.
func (s *Simulation) Momentum() physics.Vec2 {
	var p physics.Vec2
	for _, b := range s.bodies {
		p = p.Add(b.Velocity().Scale(b.Mass()))
	}
	return p
}

// AngularMomentum returns Σ m (r × v) about the origin.
func (s *Simulation) AngularMomentum() float64 {
	l := 0.0
	for _, b := range s.bodies {
		l += b.Mass() * b.Position().Cross(b.Velocity())
	}
	return l
}

// CenterOfMass returns the mass-weighted mean position.
func (s *Simulation) CenterOfMass() physics.Vec2 {
	var sum physics.Vec2
	total := 0.0
	for _, b := range s.bodies {
		sum = sum.Add(b.Position().Scale(b.Mass()))
		total += b.Mass()
	}
	return sum.Scale(1 / total)
}
