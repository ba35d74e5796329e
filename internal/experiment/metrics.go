package experiment

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/metrics"
	"github.com/san-kum/starsys/internal/starsystem"
)

// boundFactor scales the initial extent of a system into the radius used by
// the bounded metric.
const boundFactor = 10.0

func DefaultMetrics(s *starsystem.StarSystem) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergyDrift(s),
		metrics.NewMomentumDrift(s),
		metrics.NewMinSeparation(s),
		metrics.NewBounded(s, boundFactor*extent(s)),
	}
}

// extent is the largest distance of a body from the centre of mass, at
// least 1.
func extent(s *starsystem.StarSystem) float64 {
	com := s.CenterOfMass()
	r := 1.0
	for _, p := range s.Pos {
		r = math.Max(r, r3.Norm(r3.Sub(p, com)))
	}
	return r
}
