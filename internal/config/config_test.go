package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/starsystem"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "tatooine", cfg.Name)
	assert.Equal(t, "euler", cfg.Method)
	assert.Equal(t, "newton", cfg.Force)
	assert.Equal(t, 0.1, cfg.Dt)
	assert.Equal(t, 1.0, cfg.G)
	require.NoError(t, cfg.Validate())

	s, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, []starsystem.Pair{{I: 0, J: 1}}, s.Interactions())
	assert.Equal(t, r3.Vec{X: 1, Y: 1}, s.Pos[1])
	assert.Equal(t, []float64{1, 0.9}, s.Mass)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.yaml")
	data := `
name: trio
dt: 0.05
method: rk4
bodies:
  - name: sun
    pos: [0, 0, 0]
    mass: 10
  - pos: [1, 0]
    vel: [0, 3]
    mass: 0.1
  - pos: [-2, 0]
    vel: [0, -2]
    mass: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trio", cfg.Name)
	assert.Equal(t, 0.05, cfg.Dt)
	assert.Equal(t, "rk4", cfg.Method)
	assert.Equal(t, "newton", cfg.Force, "unset fields keep their defaults")
	assert.Equal(t, DefaultDuration, cfg.Duration)
	require.Len(t, cfg.Bodies, 3)
	assert.Equal(t, []string{"sun", "1", "2"}, cfg.BodyNames())

	s, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, r3.Vec{Y: 3}, s.Vel[1])
	assert.Equal(t, r3.Vec{}, s.Vel[0])
	assert.Equal(t, "rk4", s.Method())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dt: [oops"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadDoesNotInheritBodies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ring: {count: 5, radius: 2, mass: 1}\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Bodies)
	assert.Equal(t, "ring", cfg.Name, "unnamed files are named after the file")
	require.NoError(t, cfg.Validate())

	s, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figure8.yaml")
	want := GetPreset("figure8")
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"unknown method", func(c *Config) { c.Method = "midpoint" }},
		{"unknown force", func(c *Config) { c.Force = "coulomb" }},
		{"negative softening", func(c *Config) { c.Softening = -1 }},
		{"softened newton", func(c *Config) { c.Softening = 0.1 }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"no bodies", func(c *Config) { c.Bodies = nil }},
		{"bodies and ring", func(c *Config) { c.Ring = &RingConfig{Count: 2, Radius: 1, Mass: 1} }},
		{"bad pos", func(c *Config) { c.Bodies[0].Pos = []float64{1} }},
		{"bad vel", func(c *Config) { c.Bodies[0].Vel = []float64{1, 2, 3, 4} }},
		{"zero mass", func(c *Config) { c.Bodies[1].Mass = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
			_, err := cfg.Build()
			assert.Error(t, err)
		})
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "tatooine")

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			assert.Equal(t, name, cfg.Name)
			require.NoError(t, cfg.Validate())
			_, err := cfg.Build()
			require.NoError(t, err)
		})
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("binary")
	require.NotNil(t, a)
	a.Bodies[0].Pos[0] = 99
	a.Dt = 1

	b := GetPreset("binary")
	assert.Equal(t, -0.5, b.Bodies[0].Pos[0])
	assert.Equal(t, 0.01, b.Dt)

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestFigureEightHasZeroMomentum(t *testing.T) {
	s, err := GetPreset("figure8").Build()
	require.NoError(t, err)
	assert.InDelta(t, 0, r3.Norm(s.Momentum()), 1e-8)
}

func TestRingRotatesUniformly(t *testing.T) {
	cfg := GetPreset("ring")
	cfg.Force = "newton"
	cfg.Softening = 0
	s, err := cfg.Build()
	require.NoError(t, err)

	// the inward pull on each body supplies exactly the centripetal force
	forces := s.Forces()
	for i := range forces {
		v2 := r3.Norm2(s.Vel[i])
		want := s.Mass[i] * v2 / cfg.Ring.Radius
		assert.InDelta(t, want, r3.Norm(forces[i]), 1e-9)
	}

	assert.InDelta(t, 0, r3.Norm(s.CenterOfMass()), 1e-12)
	assert.False(t, math.IsNaN(s.TotalEnergy()))
}

func TestSunEarthOrbitClosesInOneYear(t *testing.T) {
	cfg := GetPreset("sun_earth")
	s, err := cfg.Build()
	require.NoError(t, err)

	require.NoError(t, s.Run(int(math.Round(cfg.Duration/cfg.Dt))))
	earth := s.Pos[1]
	assert.InDelta(t, 1.0, earth.X, 0.01)
	assert.InDelta(t, 0.0, earth.Y, 0.02)
}
