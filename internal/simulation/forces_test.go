package simulation

import (
	"testing"

	"github.com/nvandessel/orbitsim/internal/physics"
)

func TestNetForce_MatchesForceFrom(t *testing.T) {
	specs := []physics.BodySpec{
		{Name: "sun", Mass: 1.989e30, Reference: true},
		{Name: "earth", Position: physics.Vec2{X: 1.496e11}, Mass: 5.974e24},
		{Name: "mars", Position: physics.Vec2{X: -2.2e11, Y: 4e10}, Mass: 6.39e23},
	}
	s, err := New(DefaultConfig(), specs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	g := s.cfg.GravitationalConstant
	for i, b := range s.bodies {
		var want physics.Vec2
		for j, other := range s.bodies {
			if i == j {
				continue
			}
			f, err := b.ForceFrom(other, g)
			if err != nil {
				t.Fatalf("ForceFrom: %v", err)
			}
			want = want.Add(f)
		}

		got, err := s.netForce(i)
		if err != nil {
			t.Fatalf("netForce(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("netForce(%s) = %v, want %v", b.Name(), got, want)
		}
	}
}

func TestComputeForces_ChunkingCoversAllBodies(t *testing.T) {
	specs := make([]physics.BodySpec, 7)
	for i := range specs {
		specs[i] = physics.BodySpec{
			Position: physics.Vec2{X: float64(i+1) * 1e10, Y: float64(i%3) * 1e9},
			Mass:     1e24,
		}
	}

	for _, workers := range []int{2, 3, 5, 7, 20} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		s, err := New(cfg, specs)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.computeForces(); err != nil {
			t.Fatalf("workers=%d: computeForces: %v", workers, err)
		}
		for i, f := range s.forces {
			if f == (physics.Vec2{}) {
				t.Errorf("workers=%d: force on body %d was not computed", workers, i)
			}
		}
	}
}
