package integrators

import "github.com/san-kum/starsys/internal/dynamo"

// Classical RK4 tableau: stage i is evaluated at t+rk4Nodes[i]*dt from
// x + rk4Nodes[i]*dt*k[i-1] and weighted by rk4Weights[i]/6.
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1, 2, 2, 1}
)

// RK4 reuses its stage buffer between steps.
type RK4 struct {
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.stage) != n {
		r.stage = make(dynamo.State, n)
	}

	out := x.Clone()
	var k dynamo.State
	for s, c := range rk4Nodes {
		if s == 0 {
			k = sys.Derive(x, t)
		} else {
			for i := range r.stage {
				r.stage[i] = x[i] + c*dt*k[i]
			}
			k = sys.Derive(r.stage, t+c*dt)
		}
		w := rk4Weights[s] * dt / 6
		for i := range out {
			out[i] += w * k[i]
		}
	}
	return out
}
