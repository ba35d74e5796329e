package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/integrators"
	"github.com/san-kum/starsys/internal/sim"
	"github.com/san-kum/starsys/internal/starsystem"
)

var ErrNotSetup = errors.New("experiment: not set up")

type Experiment struct {
	cfg       *config.Config
	system    *starsystem.StarSystem
	simulator *sim.Simulator
	progress  *progress
	logger    *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{
		cfg:    cfg,
		logger: logger.With(zap.String("system", cfg.Name)),
	}
}

// Setup builds the star system, its integrator and the default metrics.
func (e *Experiment) Setup() error {
	s, err := e.cfg.Build(starsystem.WithLogger(e.logger))
	if err != nil {
		return fmt.Errorf("build %s: %w", e.cfg.Name, err)
	}

	integ, err := integrators.New(e.cfg.Method)
	if err != nil {
		return err
	}

	e.system = s
	e.simulator = sim.New(s, integ)
	e.simulator.SetLogger(e.logger)
	for _, m := range DefaultMetrics(s) {
		e.simulator.AddMetric(m)
	}
	e.progress = &progress{logger: e.logger, duration: e.cfg.Duration}
	e.simulator.AddObserver(e.progress)
	return nil
}

// Run integrates the configured system and leaves it at the final state.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}

	cfg := e.SimConfig()
	e.logger.Info("running",
		zap.Int("bodies", e.system.Len()),
		zap.String("method", e.cfg.Method),
		zap.String("force", e.cfg.Force),
		zap.Float64("dt", cfg.Dt),
		zap.Float64("duration", cfg.Duration))

	e.progress.marks = 0
	result, err := e.simulator.Run(ctx, e.system.State(), cfg)
	if err != nil {
		return result, err
	}

	for _, stepErr := range result.Errors {
		e.logger.Warn("simulation stopped early", zap.Error(stepErr))
	}

	if final := result.Final(); final != nil {
		if err := e.system.SetState(final); err != nil {
			return result, err
		}
		e.system.Time = result.Times[len(result.Times)-1]
	}
	return result, nil
}

// SimConfig maps the system configuration onto simulator settings.
func (e *Experiment) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = e.cfg.Dt
	cfg.Duration = e.cfg.Duration
	cfg.Adaptive = e.cfg.Adaptive
	if e.cfg.Tolerance > 0 {
		cfg.Tolerance = e.cfg.Tolerance
	}
	if cfg.MaxDt < 10*e.cfg.Dt {
		cfg.MaxDt = 10 * e.cfg.Dt
	}
	return cfg
}

func (e *Experiment) Config() *config.Config         { return e.cfg }
func (e *Experiment) System() *starsystem.StarSystem { return e.system }
func (e *Experiment) Simulator() *sim.Simulator      { return e.simulator }
