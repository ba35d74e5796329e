package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
)

type MomentumSource interface {
	MomentumOf(x dynamo.State) r3.Vec
}

// MomentumDrift is the largest |p - p0| seen. Exact pairwise forces keep it
// at rounding level; tree approximations do not.
type MomentumDrift struct {
	src      MomentumSource
	initial  r3.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift(src MomentumSource) *MomentumDrift {
	return &MomentumDrift{src: src}
}

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(x dynamo.State, t float64) {
	p := m.src.MomentumOf(x)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(p, m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
