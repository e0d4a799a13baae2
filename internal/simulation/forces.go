package simulation

import (
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/orbitsim/internal/physics"
)

// computeForces fills s.forces with the net force on every body. It only
// reads body state, so no body changes if it fails.
func (s *Simulation) computeForces() error {
	workers := s.cfg.Workers
	if workers > len(s.bodies) {
		workers = len(s.bodies)
	}
	if workers <= 1 {
		for i := range s.bodies {
			f, err := s.netForce(i)
			if err != nil {
				return err
			}
			s.forces[i] = f
		}
		return nil
	}

	// Contiguous chunks; each goroutine writes only its own forces[i].
	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (len(s.bodies) + workers - 1) / workers
	for lo := 0; lo < len(s.bodies); lo += chunk {
		hi := min(lo+chunk, len(s.bodies))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				f, err := s.netForce(i)
				if err != nil {
					return err
				}
				s.forces[i] = f
			}
			return nil
		})
	}
	return g.Wait()
}

// netForce sums the pull of every other body on body i in index order.
func (s *Simulation) netForce(i int) (physics.Vec2, error) {
	bi := s.bodies[i]
	g := s.cfg.GravitationalConstant

	var total physics.Vec2
	for j, bj := range s.bodies {
		if j == i {
			continue
		}
		f, _, err := physics.Gravity(g, bi.Mass(), bj.Mass(), bi.Position(), bj.Position())
		if err != nil {
			return physics.Vec2{}, &physics.GeometryError{A: bi.Name(), B: bj.Name(), Position: bi.Position()}
		}
		total = total.Add(f)
	}
	return total, nil
}
