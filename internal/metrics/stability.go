package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
)

type BodySource interface {
	PositionSource
	CenterOfMassOf(x dynamo.State) r3.Vec
}

// Bounded is the fraction of samples in which every body stays within radius
// of the centre of mass.
type Bounded struct {
	name       string
	src        BodySource
	radius     float64
	violations int
	samples    int
}

func NewBounded(src BodySource, radius float64) *Bounded {
	return &Bounded{
		name:   "bounded",
		src:    src,
		radius: radius,
	}
}

func (b *Bounded) Name() string {
	return b.name
}

func (b *Bounded) Observe(x dynamo.State, t float64) {
	b.samples++
	com := b.src.CenterOfMassOf(x)
	for _, p := range b.src.PositionsOf(x) {
		if r3.Norm(r3.Sub(p, com)) > b.radius {
			b.violations++
			break
		}
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
