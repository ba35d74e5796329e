package starsystem

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
)

// Energy returns kinetic plus potential energy of state x. The potential is
// softened the same way as the configured force routine.
func (s *StarSystem) Energy(x dynamo.State) float64 {
	n := len(s.Mass)
	if len(x) != 6*n {
		return math.NaN()
	}

	eps2 := s.softening2()

	ke := 0.0
	for i := 0; i < n; i++ {
		ke += 0.5 * s.Mass[i] * r3.Norm2(getVec(x, 3*(n+i)))
	}

	pe := 0.0
	for _, p := range s.pairs {
		r := math.Sqrt(r3.Norm2(r3.Sub(getVec(x, 3*p.I), getVec(x, 3*p.J))) + eps2)
		if r == 0 {
			continue
		}
		pe -= s.G * s.Mass[p.I] * s.Mass[p.J] / r
	}

	return ke + pe
}

func (s *StarSystem) TotalEnergy() float64 {
	return s.Energy(s.State())
}

func (s *StarSystem) Momentum() r3.Vec {
	var p r3.Vec
	for i, m := range s.Mass {
		p = r3.Add(p, r3.Scale(m, s.Vel[i]))
	}
	return p
}

// AngularMomentum is taken about the origin.
func (s *StarSystem) AngularMomentum() r3.Vec {
	var l r3.Vec
	for i, m := range s.Mass {
		l = r3.Add(l, r3.Scale(m, r3.Cross(s.Pos[i], s.Vel[i])))
	}
	return l
}

func (s *StarSystem) CenterOfMass() r3.Vec {
	var c r3.Vec
	total := 0.0
	for i, m := range s.Mass {
		c = r3.Add(c, r3.Scale(m, s.Pos[i]))
		total += m
	}
	return r3.Scale(1/total, c)
}

// MomentumOf and CenterOfMassOf evaluate the same quantities for a flat state.
func (s *StarSystem) MomentumOf(x dynamo.State) r3.Vec {
	n := len(s.Mass)
	var p r3.Vec
	for i, m := range s.Mass {
		p = r3.Add(p, r3.Scale(m, getVec(x, 3*(n+i))))
	}
	return p
}

func (s *StarSystem) CenterOfMassOf(x dynamo.State) r3.Vec {
	var c r3.Vec
	total := 0.0
	for i, m := range s.Mass {
		c = r3.Add(c, r3.Scale(m, getVec(x, 3*i)))
		total += m
	}
	return r3.Scale(1/total, c)
}

// PositionsOf extracts body positions from a flat state.
func (s *StarSystem) PositionsOf(x dynamo.State) []r3.Vec {
	pos := make([]r3.Vec, len(s.Mass))
	for i := range pos {
		pos[i] = getVec(x, 3*i)
	}
	return pos
}
