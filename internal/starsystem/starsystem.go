package starsystem

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/integrators"
)

const (
	DefaultG      = 1.0
	DefaultDt     = 0.1
	DefaultForce  = "newton"
	DefaultMethod = "euler"
	DefaultTheta  = 0.5
)

// Pair is one unique interaction between bodies I and J, with I < J.
type Pair struct {
	I, J int
}

type StarSystem struct {
	Pos  []r3.Vec
	Vel  []r3.Vec
	Mass []float64
	G    float64
	Dt   float64
	Time float64

	force     string
	method    string
	softening float64
	theta     float64
	workers   int

	pairs      []Pair
	gradient   ForceRoutine
	integrator dynamo.Integrator
	logger     *zap.Logger
}

type Option func(*StarSystem)

// WithVelocities sets initial velocities. Without it every body starts at rest.
func WithVelocities(vel []r3.Vec) Option {
	return func(s *StarSystem) {
		s.Vel = append([]r3.Vec(nil), vel...)
	}
}

func WithForce(name string) Option     { return func(s *StarSystem) { s.force = name } }
func WithMethod(name string) Option    { return func(s *StarSystem) { s.method = name } }
func WithDt(dt float64) Option         { return func(s *StarSystem) { s.Dt = dt } }
func WithG(g float64) Option           { return func(s *StarSystem) { s.G = g } }
func WithSoftening(eps float64) Option { return func(s *StarSystem) { s.softening = eps } }

// WithTheta sets the Barnes-Hut opening angle. Zero means exact summation.
func WithTheta(theta float64) Option { return func(s *StarSystem) { s.theta = theta } }

// WithWorkers bounds the goroutines used for force evaluation on large systems.
func WithWorkers(n int) Option { return func(s *StarSystem) { s.workers = n } }

func WithLogger(l *zap.Logger) Option {
	return func(s *StarSystem) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a star system from body positions and masses.
func New(pos []r3.Vec, mass []float64, opts ...Option) (*StarSystem, error) {
	if len(pos) == 0 {
		return nil, fmt.Errorf("%w: no bodies", ErrInvalidBodies)
	}
	if len(pos) != len(mass) {
		return nil, fmt.Errorf("%w: %d positions but %d masses", ErrInvalidBodies, len(pos), len(mass))
	}

	s := &StarSystem{
		Pos:     append([]r3.Vec(nil), pos...),
		Mass:    append([]float64(nil), mass...),
		G:       DefaultG,
		Dt:      DefaultDt,
		force:   DefaultForce,
		method:  DefaultMethod,
		theta:   DefaultTheta,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	s.configureInteractions()

	if err := s.defineForceRoutine(); err != nil {
		return nil, err
	}

	integ, err := integrators.New(s.method)
	if err != nil {
		return nil, fmt.Errorf("starsystem: %w", err)
	}
	s.integrator = integ

	s.logger.Debug("star system configured",
		zap.Int("bodies", len(s.Mass)),
		zap.Int("pairs", len(s.pairs)),
		zap.String("force", s.force),
		zap.String("method", s.method),
		zap.Float64("dt", s.Dt))

	return s, nil
}

// FromPlanar accepts positions as rows of two or three coordinates; planar
// rows get z = 0.
func FromPlanar(pos [][]float64, mass []float64, opts ...Option) (*StarSystem, error) {
	vecs, err := Vectors(pos)
	if err != nil {
		return nil, err
	}
	return New(vecs, mass, opts...)
}

// Vectors converts rows of length 2 or 3 to vectors.
func Vectors(rows [][]float64) ([]r3.Vec, error) {
	vecs := make([]r3.Vec, len(rows))
	for i, row := range rows {
		switch len(row) {
		case 2:
			vecs[i] = r3.Vec{X: row[0], Y: row[1]}
		case 3:
			vecs[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
		default:
			return nil, fmt.Errorf("%w: row %d has %d coordinates, want 2 or 3", ErrInvalidBodies, i, len(row))
		}
	}
	return vecs, nil
}

func (s *StarSystem) validate() error {
	n := len(s.Mass)
	for i, m := range s.Mass {
		if !(m > 0) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: mass %d is %v", ErrInvalidBodies, i, m)
		}
		if !finite(s.Pos[i]) {
			return fmt.Errorf("%w: position %d is not finite", ErrInvalidBodies, i)
		}
	}

	if s.Vel == nil {
		s.Vel = make([]r3.Vec, n)
	}
	if len(s.Vel) != n {
		return fmt.Errorf("%w: %d velocities for %d bodies", ErrInvalidBodies, len(s.Vel), n)
	}
	for i, v := range s.Vel {
		if !finite(v) {
			return fmt.Errorf("%w: velocity %d is not finite", ErrInvalidBodies, i)
		}
	}

	if !(s.Dt > 0) || math.IsInf(s.Dt, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidStep, s.Dt)
	}
	if math.IsNaN(s.G) || math.IsInf(s.G, 0) {
		return fmt.Errorf("%w: G is %v", ErrInvalidParameter, s.G)
	}
	if s.softening < 0 || math.IsNaN(s.softening) {
		return fmt.Errorf("%w: softening %v", ErrInvalidParameter, s.softening)
	}
	if s.theta < 0 || math.IsNaN(s.theta) {
		return fmt.Errorf("%w: theta %v", ErrInvalidParameter, s.theta)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return nil
}

func (s *StarSystem) configureInteractions() {
	n := len(s.Mass)
	s.pairs = make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s.pairs = append(s.pairs, Pair{I: i, J: j})
		}
	}
}

// Interactions returns the unique body pairs, ordered by I then J.
func (s *StarSystem) Interactions() []Pair {
	return append([]Pair(nil), s.pairs...)
}

func (s *StarSystem) Len() int           { return len(s.Mass) }
func (s *StarSystem) Force() string      { return s.force }
func (s *StarSystem) Method() string     { return s.method }
func (s *StarSystem) Softening() float64 { return s.softening }
func (s *StarSystem) Theta() float64     { return s.theta }

// Integrator returns the integrator Move steps with.
func (s *StarSystem) Integrator() dynamo.Integrator { return s.integrator }

// Gradient returns the gradient of the potential energy with respect to each
// body's position.
func (s *StarSystem) Gradient() []r3.Vec {
	return s.gradient(s, s.Pos)
}

// Forces returns the gravitational force on each body.
func (s *StarSystem) Forces() []r3.Vec {
	grad := s.Gradient()
	for i := range grad {
		grad[i] = r3.Scale(-1, grad[i])
	}
	return grad
}

// Move advances the system by one step of the configured method. On
// divergence the system is left unchanged.
func (s *StarSystem) Move() error {
	next := s.integrator.Step(s, s.State(), s.Time, s.Dt)
	if !next.IsValid() {
		return fmt.Errorf("%w at t=%.4f", ErrDiverged, s.Time)
	}
	s.load(next)
	s.Time += s.Dt
	return nil
}

func (s *StarSystem) Run(steps int) error {
	for i := 0; i < steps; i++ {
		if err := s.Move(); err != nil {
			return err
		}
	}
	return nil
}

func (s *StarSystem) StateDim() int { return 6 * len(s.Mass) }

// State flattens positions then velocities.
func (s *StarSystem) State() dynamo.State {
	n := len(s.Mass)
	x := make(dynamo.State, 6*n)
	for i := 0; i < n; i++ {
		putVec(x, 3*i, s.Pos[i])
		putVec(x, 3*(n+i), s.Vel[i])
	}
	return x
}

func (s *StarSystem) SetState(x dynamo.State) error {
	if len(x) != s.StateDim() {
		return fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(x), s.StateDim())
	}
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	s.load(x)
	return nil
}

func (s *StarSystem) load(x dynamo.State) {
	n := len(s.Mass)
	for i := 0; i < n; i++ {
		s.Pos[i] = getVec(x, 3*i)
		s.Vel[i] = getVec(x, 3*(n+i))
	}
}

// Derive returns velocities and accelerations for an arbitrary state of
// this system.
func (s *StarSystem) Derive(x dynamo.State, t float64) dynamo.State {
	n := len(s.Mass)
	pos := make([]r3.Vec, n)
	for i := range pos {
		pos[i] = getVec(x, 3*i)
	}

	grad := s.gradient(s, pos)

	dx := make(dynamo.State, len(x))
	copy(dx[:3*n], x[3*n:])
	for i := 0; i < n; i++ {
		putVec(dx, 3*(n+i), r3.Scale(-1/s.Mass[i], grad[i]))
	}
	return dx
}

// Clone returns an independent copy with its own integrator.
func (s *StarSystem) Clone() *StarSystem {
	c := *s
	c.Pos = append([]r3.Vec(nil), s.Pos...)
	c.Vel = append([]r3.Vec(nil), s.Vel...)
	c.Mass = append([]float64(nil), s.Mass...)
	c.pairs = append([]Pair(nil), s.pairs...)
	// the method name was resolved once in New
	c.integrator, _ = integrators.New(s.method)
	return &c
}

func putVec(x dynamo.State, off int, v r3.Vec) {
	x[off], x[off+1], x[off+2] = v.X, v.Y, v.Z
}

func getVec(x dynamo.State, off int) r3.Vec {
	return r3.Vec{X: x[off], Y: x[off+1], Z: x[off+2]}
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
