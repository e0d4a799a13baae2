// Package simulation advances a fixed set of physics.Body values through
// pairwise Newtonian gravity with a fixed time step.
//
// Every call to Step evaluates all pairwise forces against the positions of a
// single instant, then integrates each body with semi-implicit Euler (velocity
// first, then position from the new velocity), appends the new position to the
// body's trail and refreshes each body's distance to the nearest reference
// body. A failed force evaluation aborts the step before any body changes.
//
// The engine has no notion of screens, frame rates or display scale. Drivers
// read state through Bodies / Snapshot and decide how to present it.
//
// Usage:
//
//	sim, err := simulation.New(simulation.DefaultConfig(), []physics.BodySpec{
//	    {Name: "sun", Mass: 1.989e30, Reference: true},
//	    {Name: "earth", Position: physics.Vec2{X: 1.496e11}, Velocity: physics.Vec2{Y: -29783}, Mass: 5.974e24},
//	})
//	if err != nil {
//	    return err
//	}
//	for i := 0; i < 365; i++ {
//	    if err := sim.Step(); err != nil {
//	        return err
//	    }
//	}
//	earth, _ := sim.Body("earth")
//	fmt.Println(earth.DistanceToReference())
package simulation
