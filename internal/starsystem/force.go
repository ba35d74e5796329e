package starsystem

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
)

// parallelThreshold is the body count below which force evaluation stays
// on the calling goroutine.
const parallelThreshold = 64

// ForceRoutine returns the potential gradient on every body for the given
// positions. It must not modify pos.
type ForceRoutine func(s *StarSystem, pos []r3.Vec) []r3.Vec

var forceRoutines = map[string]ForceRoutine{
	"newton":    newtonGradient,
	"plummer":   plummerGradient,
	"barneshut": barnesHutGradient,
}

func ForceNames() []string {
	names := make([]string, 0, len(forceRoutines))
	for name := range forceRoutines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *StarSystem) defineForceRoutine() error {
	fn, ok := forceRoutines[s.force]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownForce, s.force)
	}
	s.gradient = fn
	return nil
}

func newtonGradient(s *StarSystem, pos []r3.Vec) []r3.Vec {
	return s.pairGradient(pos, 0)
}

func plummerGradient(s *StarSystem, pos []r3.Vec) []r3.Vec {
	return s.pairGradient(pos, s.softening2())
}

// softening2 is the squared softening length applied by the configured
// force routine. Newton is never softened.
func (s *StarSystem) softening2() float64 {
	if s.force == "newton" {
		return 0
	}
	return s.softening * s.softening
}

// pairGradient accumulates G*mi*mj/(r^2+eps2)^(3/2) * (ri - rj) onto i and
// its negation onto j for every interaction pair. Coincident bodies with no
// softening contribute nothing.
func (s *StarSystem) pairGradient(pos []r3.Vec, eps2 float64) []r3.Vec {
	n := len(pos)
	grad := make([]r3.Vec, n)

	if s.workers > 1 && n >= parallelThreshold {
		s.parallelGradient(pos, eps2, grad)
		return grad
	}

	for _, p := range s.pairs {
		d := r3.Sub(pos[p.I], pos[p.J])
		r2 := r3.Norm2(d) + eps2
		if r2 == 0 {
			continue
		}
		g := r3.Scale(s.G*s.Mass[p.I]*s.Mass[p.J]/(r2*math.Sqrt(r2)), d)
		grad[p.I] = r3.Add(grad[p.I], g)
		grad[p.J] = r3.Sub(grad[p.J], g)
	}
	return grad
}

// parallelGradient gives each body its own full sum so chunks never write
// to the same slot. It does twice the arithmetic of the pair loop.
func (s *StarSystem) parallelGradient(pos []r3.Vec, eps2 float64, grad []r3.Vec) {
	n := len(pos)
	chunk := (n + s.workers - 1) / s.workers
	_ = dynamo.ParallelFor(context.Background(), n, chunk, func(start, end int) error {
		for i := start; i < end; i++ {
			var g r3.Vec
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				d := r3.Sub(pos[i], pos[j])
				r2 := r3.Norm2(d) + eps2
				if r2 == 0 {
					continue
				}
				g = r3.Add(g, r3.Scale(s.G*s.Mass[i]*s.Mass[j]/(r2*math.Sqrt(r2)), d))
			}
			grad[i] = g
		}
		return nil
	})
}

type particle struct {
	pos  r3.Vec
	mass float64
}

func (p *particle) Coord3() r3.Vec { return p.pos }
func (p *particle) Mass() float64  { return p.mass }

// softenedGravity3 is barneshut.Gravity3 with Plummer softening.
func softenedGravity3(eps2 float64) barneshut.Force3 {
	if eps2 == 0 {
		return barneshut.Gravity3
	}
	return func(_, _ barneshut.Particle3, m1, m2 float64, v r3.Vec) r3.Vec {
		r2 := r3.Norm2(v) + eps2
		return r3.Scale(m1*m2/(r2*math.Sqrt(r2)), v)
	}
}

// barnesHutGradient approximates distant groups by their centre of mass.
// When the octree cannot be built it falls back to exact summation.
func barnesHutGradient(s *StarSystem, pos []r3.Vec) []r3.Vec {
	n := len(pos)
	particles := make([]barneshut.Particle3, n)
	for i := range pos {
		particles[i] = &particle{pos: pos[i], mass: s.Mass[i]}
	}

	vol, err := barneshut.NewVolume(particles)
	if err != nil {
		s.logger.Warn("barnes-hut tree unavailable, using exact forces", zap.Error(err))
		return s.pairGradient(pos, s.softening2())
	}

	force := softenedGravity3(s.softening2())
	grad := make([]r3.Vec, n)
	eval := func(start, end int) error {
		for i := start; i < end; i++ {
			// Gravity3 points from the body toward the attractors; the
			// gradient points the other way.
			f := vol.ForceOn(particles[i], s.theta, force)
			grad[i] = r3.Scale(-s.G, f)
		}
		return nil
	}

	if s.workers > 1 && n >= parallelThreshold {
		_ = dynamo.ParallelFor(context.Background(), n, (n+s.workers-1)/s.workers, eval)
	} else {
		_ = eval(0, n)
	}
	return grad
}
