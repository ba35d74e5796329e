// Package starsystem models a set of point masses under mutual gravity.
//
// A [StarSystem] holds positions, velocities and masses, the list of unique
// interaction pairs (i < j), a force routine chosen by name and an
// integration method chosen by name. [StarSystem.Move] advances the system
// by one step of the configured method.
//
//	s, err := starsystem.FromPlanar([][]float64{{0, 0}, {1, 1}}, []float64{1, 0.9})
//	if err != nil {
//		return err
//	}
//	fmt.Println(s.Interactions()) // [{0 1}]
//	err = s.Move()
//
// The system also implements [dynamo.System] over the flat layout
// [x0 y0 z0 x1 ... | vx0 vy0 vz0 ...] so it can be handed to any integrator
// or to the simulator.
package starsystem
