package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/starsys/internal/dynamo"
)

type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *zap.Logger
}

func New(sys dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     zap.NewNop(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Simulator) System() dynamo.System { return s.sys }

// Run integrates from x0 for cfg.Duration. On cancellation it returns the
// states recorded so far together with the context error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	steps := dynamo.StepCount(cfg.Duration, cfg.Dt)
	result := &Result{
		States:  make([]dynamo.State, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	initialEnergy := s.computeEnergy(x)
	start := time.Now()

	s.logger.Debug("simulation started",
		zap.Int("dim", len(x0)),
		zap.Float64("dt", cfg.Dt),
		zap.Float64("duration", cfg.Duration),
		zap.Bool("adaptive", cfg.Adaptive))

	for i := 0; cfg.Adaptive || i < steps; i++ {
		if cfg.Adaptive && t >= cfg.Duration {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		var newX dynamo.State
		taken := dt

		if cfg.Adaptive {
			dt = math.Min(dt, cfg.Duration-t)
			var next float64
			var stepErr error
			newX, taken, next, stepErr = s.adaptiveStep(x, t, dt, cfg)
			if stepErr != nil {
				result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: t, Wrapped: stepErr})
				break
			}
			dt = next
		} else {
			newX = s.integrator.Step(s.sys, x, t, dt)
		}

		if cfg.ValidateState && !newX.IsValid() {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState})
			break
		}

		x = newX
		t += taken
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	finalEnergy := s.computeEnergy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("simulation finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("energy_drift", result.EnergyDrift),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Adaptive && !(cfg.Tolerance > 0) {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if cfg.Adaptive && !(cfg.MinDt > 0) {
		return fmt.Errorf("min dt must be positive for adaptive stepping")
	}
	return nil
}

func (s *Simulator) computeEnergy(x dynamo.State) float64 {
	if h, ok := s.sys.(dynamo.Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

// adaptiveStep uses the integrator's own error control when it has one and
// falls back to step doubling otherwise.
func (s *Simulator) adaptiveStep(x dynamo.State, t, dt float64, cfg Config) (dynamo.State, float64, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		newX, taken, next, err := adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, 0, 0, err
		}
		if cfg.MaxDt > 0 {
			next = math.Min(next, cfg.MaxDt)
		}
		return newX, taken, math.Max(next, cfg.MinDt), nil
	}

	for {
		x1 := s.integrator.Step(s.sys, x, t, dt)
		xHalf := s.integrator.Step(s.sys, x, t, dt/2)
		x2 := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)

		errEst := x1.Sub(x2).Norm()

		if !(errEst <= cfg.Tolerance) {
			if dt/2 < cfg.MinDt {
				return nil, 0, 0, dynamo.ErrStepTooSmall
			}
			dt /= 2
			continue
		}

		next := dt
		if errEst < cfg.Tolerance/10 {
			next = dt * 2
			if cfg.MaxDt > 0 {
				next = math.Min(next, cfg.MaxDt)
			}
		}
		return x2, dt, next, nil
	}
}

// RunWithCallback streams every state, starting with x0, to the observers
// and then to callback. It stops when the duration is covered, the callback
// returns false or ctx is done.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg Config, callback func(dynamo.State, float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	steps := dynamo.StepCount(cfg.Duration, cfg.Dt)
	x := x0.Clone()
	t := 0.0

	for i := 0; ; i++ {
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}
		if !callback(x, t) || i == steps {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		x = s.integrator.Step(s.sys, x, t, cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState}
		}
	}
}
