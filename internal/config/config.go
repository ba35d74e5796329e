package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/starsys/internal/integrators"
	"github.com/san-kum/starsys/internal/starsystem"
)

const (
	DefaultG        = 1.0
	DefaultDt       = 0.1
	DefaultDuration = 10.0
	DefaultMethod   = "euler"
	DefaultForce    = "newton"
	DefaultTheta    = 0.5
)

// Config describes a star system and how to integrate it. A zero Tolerance
// selects the simulator default for adaptive stepping.
type Config struct {
	Name      string       `yaml:"name"`
	G         float64      `yaml:"g"`
	Dt        float64      `yaml:"dt"`
	Duration  float64      `yaml:"duration"`
	Method    string       `yaml:"method"`
	Force     string       `yaml:"force"`
	Softening float64      `yaml:"softening,omitempty"`
	Theta     float64      `yaml:"theta,omitempty"`
	Workers   int          `yaml:"workers,omitempty"`
	Adaptive  bool         `yaml:"adaptive,omitempty"`
	Tolerance float64      `yaml:"tolerance,omitempty"`
	Bodies    []BodyConfig `yaml:"bodies,omitempty"`
	Ring      *RingConfig  `yaml:"ring,omitempty"`
}

type BodyConfig struct {
	Name string    `yaml:"name,omitempty"`
	Pos  []float64 `yaml:"pos"`
	Vel  []float64 `yaml:"vel,omitempty"`
	Mass float64   `yaml:"mass"`
}

// RingConfig places Count equal masses evenly on a circle in the x-y plane.
// A zero Speed selects the speed of uniform circular rotation.
type RingConfig struct {
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed,omitempty"`
	Mass   float64 `yaml:"mass"`
}

// DefaultConfig is the two-planet system: planets at (0,0) and (1,1) with
// masses 1 and 0.9, starting at rest.
func DefaultConfig() *Config {
	return &Config{
		Name:     "tatooine",
		G:        DefaultG,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Method:   DefaultMethod,
		Force:    DefaultForce,
		Theta:    DefaultTheta,
		Bodies: []BodyConfig{
			{Name: "a", Pos: []float64{0, 0}, Mass: 1},
			{Name: "b", Pos: []float64{1, 1}, Mass: 0.9},
		},
	}
}

// Load reads a YAML file over the defaults. Bodies and the name are never
// inherited; a file without a name is named after the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Name = ""
	cfg.Bodies = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Name == "" {
		base := filepath.Base(path)
		cfg.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem it finds, joined.
func (c *Config) Validate() error {
	var errs []error

	if !(c.Dt > 0) {
		errs = append(errs, fmt.Errorf("dt must be positive, got %v", c.Dt))
	}
	if !(c.Duration > 0) {
		errs = append(errs, fmt.Errorf("duration must be positive, got %v", c.Duration))
	}
	if math.IsNaN(c.G) || math.IsInf(c.G, 0) {
		errs = append(errs, fmt.Errorf("g must be finite, got %v", c.G))
	}
	if !slices.Contains(integrators.Names(), c.Method) {
		errs = append(errs, fmt.Errorf("unknown method %q (available: %v)", c.Method, integrators.Names()))
	}
	if !slices.Contains(starsystem.ForceNames(), c.Force) {
		errs = append(errs, fmt.Errorf("unknown force %q (available: %v)", c.Force, starsystem.ForceNames()))
	}
	if c.Softening < 0 {
		errs = append(errs, fmt.Errorf("softening must not be negative"))
	}
	if c.Softening > 0 && c.Force == "newton" {
		errs = append(errs, fmt.Errorf("newton force is unsoftened; use plummer or barneshut with softening"))
	}
	if c.Theta < 0 {
		errs = append(errs, fmt.Errorf("theta must not be negative"))
	}
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must not be negative"))
	}

	switch {
	case len(c.Bodies) > 0 && c.Ring != nil:
		errs = append(errs, errors.New("bodies and ring are mutually exclusive"))
	case len(c.Bodies) == 0 && c.Ring == nil:
		errs = append(errs, errors.New("no bodies defined"))
	case c.Ring != nil:
		if c.Ring.Count < 1 {
			errs = append(errs, fmt.Errorf("ring count must be at least 1, got %d", c.Ring.Count))
		}
		if !(c.Ring.Radius > 0) {
			errs = append(errs, fmt.Errorf("ring radius must be positive"))
		}
		if !(c.Ring.Mass > 0) {
			errs = append(errs, fmt.Errorf("ring mass must be positive"))
		}
	}

	for i, b := range c.Bodies {
		if len(b.Pos) != 2 && len(b.Pos) != 3 {
			errs = append(errs, fmt.Errorf("body %d: pos needs 2 or 3 coordinates, got %d", i, len(b.Pos)))
		}
		if len(b.Vel) != 0 && len(b.Vel) != 2 && len(b.Vel) != 3 {
			errs = append(errs, fmt.Errorf("body %d: vel needs 2 or 3 coordinates, got %d", i, len(b.Vel)))
		}
		if !(b.Mass > 0) {
			errs = append(errs, fmt.Errorf("body %d: mass must be positive, got %v", i, b.Mass))
		}
	}

	return errors.Join(errs...)
}

// Build validates the configuration and constructs the star system. Extra
// options are applied after the configured ones.
func (c *Config) Build(extra ...starsystem.Option) (*starsystem.StarSystem, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var posRows, velRows [][]float64
	var mass []float64
	if c.Ring != nil {
		posRows, velRows, mass = ringBodies(*c.Ring, c.G)
	} else {
		for _, b := range c.Bodies {
			posRows = append(posRows, b.Pos)
			vel := b.Vel
			if len(vel) == 0 {
				vel = []float64{0, 0, 0}
			}
			velRows = append(velRows, vel)
			mass = append(mass, b.Mass)
		}
	}

	vel, err := starsystem.Vectors(velRows)
	if err != nil {
		return nil, err
	}

	opts := []starsystem.Option{
		starsystem.WithG(c.G),
		starsystem.WithDt(c.Dt),
		starsystem.WithMethod(c.Method),
		starsystem.WithForce(c.Force),
		starsystem.WithSoftening(c.Softening),
		starsystem.WithTheta(c.Theta),
		starsystem.WithWorkers(c.Workers),
		starsystem.WithVelocities(vel),
	}
	return starsystem.FromPlanar(posRows, mass, append(opts, extra...)...)
}

// BodyNames returns display names, falling back to the body index.
func (c *Config) BodyNames() []string {
	if c.Ring != nil {
		names := make([]string, c.Ring.Count)
		for i := range names {
			names[i] = fmt.Sprintf("%d", i)
		}
		return names
	}
	names := make([]string, len(c.Bodies))
	for i, b := range c.Bodies {
		names[i] = b.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("%d", i)
		}
	}
	return names
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		out.Bodies[i] = BodyConfig{
			Name: b.Name,
			Pos:  slices.Clone(b.Pos),
			Vel:  slices.Clone(b.Vel),
			Mass: b.Mass,
		}
	}
	if c.Bodies == nil {
		out.Bodies = nil
	}
	if c.Ring != nil {
		ring := *c.Ring
		out.Ring = &ring
	}
	return &out
}

// ringBodies spaces count bodies on a circle. With no explicit speed each
// body gets the tangential speed that balances the pull of the others.
func ringBodies(ring RingConfig, g float64) (pos, vel [][]float64, mass []float64) {
	n := ring.Count
	speed := ring.Speed
	if speed == 0 && n > 1 {
		sum := 0.0
		for k := 1; k < n; k++ {
			sum += 1 / math.Sin(math.Pi*float64(k)/float64(n))
		}
		speed = math.Sqrt(g * ring.Mass * sum / (4 * ring.Radius))
	}

	for i := 0; i < n; i++ {
		angle := float64(i) * 2.0 * math.Pi / float64(n)
		pos = append(pos, []float64{ring.Radius * math.Cos(angle), ring.Radius * math.Sin(angle), 0})
		vel = append(vel, []float64{-math.Sin(angle) * speed, math.Cos(angle) * speed, 0})
		mass = append(mass, ring.Mass)
	}
	return pos, vel, mass
}
