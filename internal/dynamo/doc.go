// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// star system model, the integrators and the simulator:
//
//   - [State]: flat vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepping interface
//   - [Metric] and [Observer]: hooks fed once per step
//
// # Example
//
//	sys, _ := starsystem.New(pos, mass)
//	integ, _ := integrators.New("rk4")
//	x := integ.Step(sys, sys.State(), 0, 0.01)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. [ParallelFor]
// is the only concurrent helper here; callers must write to disjoint
// output slots from each chunk.
package dynamo
