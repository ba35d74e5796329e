package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/starsys/internal/dynamo"
)

var ErrInvalidArgument = errors.New("analysis: invalid argument")

// Lyapunov returns the mean logarithmic growth rate of a perturbation of
// size d0 applied to the first state component. The shadow trajectory is
// pulled back to distance d0 after every step, so the estimate does not
// saturate.
func Lyapunov(ctx context.Context, sys dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt, duration, d0 float64) (float64, error) {
	if len(x0) == 0 || len(x0) != sys.StateDim() {
		return 0, fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	if !(dt > 0) || !(duration >= dt) {
		return 0, fmt.Errorf("%w: dt %v, duration %v", ErrInvalidArgument, dt, duration)
	}
	if !(d0 > 0) {
		return 0, fmt.Errorf("%w: perturbation %v", ErrInvalidArgument, d0)
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += d0

	steps := dynamo.StepCount(duration, dt)
	sumLog := 0.0
	t := 0.0

	for i := 0; i < steps; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}

		x = integ.Step(sys, x, t, dt)
		xp = integ.Step(sys, xp, t, dt)
		t += dt

		if !x.IsValid() || !xp.IsValid() {
			return 0, &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState}
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			// the perturbation was lost to rounding; restart it
			xp = x.Clone()
			xp[0] += d0
			continue
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	return sumLog / (float64(steps) * dt), nil
}
