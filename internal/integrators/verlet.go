package integrators

import "github.com/san-kum/starsys/internal/dynamo"

// Both schemes read positions from the first half of the state and
// velocities from the second. Accelerations must not depend on velocity.

// accel returns the acceleration half of sys.Derive at x.
func accel(sys dynamo.System, x dynamo.State, t float64) dynamo.State {
	return sys.Derive(x, t)[len(x)/2:]
}

// Verlet is velocity Verlet.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (Verlet) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	h := len(x) / 2
	q0, v0 := x[:h], x[h:]
	out := make(dynamo.State, len(x))
	q1, v1 := out[:h], out[h:]

	a0 := accel(sys, x, t)
	for i := range q1 {
		q1[i] = q0[i] + dt*(v0[i]+0.5*dt*a0[i])
	}
	copy(v1, v0)

	a1 := accel(sys, out, t+dt)
	for i := range v1 {
		v1[i] += 0.5 * dt * (a0[i] + a1[i])
	}
	return out
}

// Leapfrog is the kick-drift-kick form.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (Leapfrog) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	h := len(x) / 2
	q0, v0 := x[:h], x[h:]
	out := make(dynamo.State, len(x))
	q1, v1 := out[:h], out[h:]

	a0 := accel(sys, x, t)
	for i := range v1 {
		v1[i] = v0[i] + 0.5*dt*a0[i]
		q1[i] = q0[i] + dt*v1[i]
	}

	a1 := accel(sys, out, t+dt)
	for i := range v1 {
		v1[i] += 0.5 * dt * a1[i]
	}
	return out
}
