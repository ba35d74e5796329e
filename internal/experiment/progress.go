package experiment

import (
	"go.uber.org/zap"

	"github.com/san-kum/starsys/internal/dynamo"
)

const progressMarks = 10

// progress logs the simulated time at debug level each time the run passes
// another tenth of its duration.
type progress struct {
	logger   *zap.Logger
	duration float64
	marks    int
}

func (p *progress) threshold() float64 {
	return float64(p.marks) * p.duration / progressMarks
}

func (p *progress) OnStep(_ dynamo.State, t float64) {
	if p.marks >= progressMarks || t < p.threshold() {
		return
	}
	p.logger.Debug("progress", zap.Float64("t", t), zap.Int("percent", 100*p.marks/progressMarks))
	for p.marks < progressMarks && t >= p.threshold() {
		p.marks++
	}
}
