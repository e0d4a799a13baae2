package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/orbitsim/internal/physics"
)

// AssertTrailLengths asserts that every body holds want trail points.
func AssertTrailLengths(t *testing.T, s *Simulation, want int) {
	t.Helper()
	for _, b := range s.bodies {
		if got := b.TrailLen(); got != want {
			t.Errorf("AssertTrailLengths: body %s has %d trail points, want %d", b.Name(), got, want)
		}
	}
}

// AssertReferenceDistances asserts that every body's recorded distance
// matches its current distance to the nearest other reference body.
func AssertReferenceDistances(t *testing.T, s *Simulation, relTol float64) {
	t.Helper()
	for i, b := range s.bodies {
		want := -1.0
		for j, r := range s.bodies {
			if i == j || !r.IsReference() {
				continue
			}
			if d := b.Position().Dist(r.Position()); want < 0 || d < want {
				want = d
			}
		}
		if want < 0 {
			continue
		}
		got := b.DistanceToReference()
		if math.Abs(got-want) > relTol*want {
			t.Errorf("AssertReferenceDistances: body %s distance %.6g, want %.6g", b.Name(), got, want)
		}
	}
}

// AssertRadiusBounded asserts that the named body stays within frac of its
// initial distance from the origin over its whole trail.
func AssertRadiusBounded(t *testing.T, s *Simulation, name string, frac float64) {
	t.Helper()
	b, ok := s.Body(name)
	if !ok {
		t.Fatalf("AssertRadiusBounded: no body %q", name)
	}
	trail := b.Trail()
	r0 := trail[0].Len()
	for i, p := range trail {
		if r := p.Len(); math.Abs(r-r0) > frac*r0 {
			t.Errorf("AssertRadiusBounded: %s at point %d has radius %.6g, initial %.6g (limit ±%.2f%%)", name, i, r, r0, frac*100)
			return
		}
	}
}

// AssertEnergyDrift asserts that |E - e0| / |e0| stays within frac.
func AssertEnergyDrift(t *testing.T, s *Simulation, e0, frac float64) {
	t.Helper()
	e := s.TotalEnergy()
	if drift := math.Abs(e-e0) / math.Abs(e0); drift > frac {
		t.Errorf("AssertEnergyDrift: energy drifted %.4f%% (limit %.4f%%)", drift*100, frac*100)
	}
}

// AssertSameTrajectories asserts that two simulations hold bit-identical
// positions, velocities and trails.
func AssertSameTrajectories(t *testing.T, a, b *Simulation) {
	t.Helper()
	if a.Len() != b.Len() {
		t.Fatalf("AssertSameTrajectories: body counts differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.bodies {
		ba, bb := a.bodies[i], b.bodies[i]
		if ba.Position() != bb.Position() || ba.Velocity() != bb.Velocity() {
			t.Errorf("AssertSameTrajectories: body %s state differs: %v/%v vs %v/%v",
				ba.Name(), ba.Position(), ba.Velocity(), bb.Position(), bb.Velocity())
			continue
		}
		if !sameTrail(ba.Trail(), bb.Trail()) {
			t.Errorf("AssertSameTrajectories: body %s trails differ", ba.Name())
		}
	}
}

func sameTrail(a, b []physics.Vec2) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
