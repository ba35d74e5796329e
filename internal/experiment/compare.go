package experiment

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/sim"
)

// Comparison is the outcome of running one configuration with one method.
type Comparison struct {
	Method string
	Result *sim.Result
}

// Compare runs cfg once per method concurrently. Each run gets its own star
// system, so methods do not share integrator state.
func Compare(ctx context.Context, cfg *config.Config, methods []string, logger *zap.Logger) ([]Comparison, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("experiment: no methods to compare")
	}

	ens := sim.NewEnsemble(runtime.GOMAXPROCS(0))
	var simCfg sim.Config
	for _, method := range methods {
		c := cfg.Clone()
		c.Method = method

		exp := New(c, logger.With(zap.String("method", method)))
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		simCfg = exp.SimConfig()
		ens.Add(method, exp.Simulator(), exp.System().State())
	}

	results, err := ens.Run(ctx, simCfg)
	if err != nil {
		return nil, err
	}

	out := make([]Comparison, len(results))
	for i, name := range ens.Names() {
		out[i] = Comparison{Method: name, Result: results[i]}
	}
	return out, nil
}
