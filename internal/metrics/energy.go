package metrics

import (
	"math"

	"github.com/san-kum/starsys/internal/dynamo"
)

// EnergyDrift is the largest |E - E0| / |E0| seen. It stays zero when the
// first observed energy is zero.
type EnergyDrift struct {
	h        dynamo.Hamiltonian
	e0       float64
	maxDrift float64
	started  bool
}

func NewEnergyDrift(h dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{h: h}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy := e.h.Energy(x)
	if !e.started {
		e.e0, e.started = energy, true
		return
	}
	if e.e0 != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs((energy-e.e0)/e.e0))
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() { *e = EnergyDrift{h: e.h} }
