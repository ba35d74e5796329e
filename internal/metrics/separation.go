package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
)

type PositionSource interface {
	PositionsOf(x dynamo.State) []r3.Vec
}

// MinSeparation records the closest approach between any two bodies.
type MinSeparation struct {
	src PositionSource
	min float64
}

func NewMinSeparation(src PositionSource) *MinSeparation {
	return &MinSeparation{src: src, min: math.Inf(1)}
}

func (m *MinSeparation) Name() string { return "min_separation" }

func (m *MinSeparation) Observe(x dynamo.State, t float64) {
	pos := m.src.PositionsOf(x)
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			m.min = math.Min(m.min, r3.Norm(r3.Sub(pos[i], pos[j])))
		}
	}
}

// Value is +Inf until two bodies have been observed.
func (m *MinSeparation) Value() float64 { return m.min }

func (m *MinSeparation) Reset() { m.min = math.Inf(1) }
