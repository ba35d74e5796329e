package config

import (
	"math"
	"sort"
)

// earthMassesPerSun converts solar masses to earth masses.
const earthMassesPerSun = 332946.0

var Presets = map[string]*Config{
	"tatooine": DefaultConfig().withDuration(1.0),
	"binary": {
		Name:     "binary",
		G:        1,
		Dt:       0.01,
		Duration: 20.0,
		Method:   "leapfrog",
		Force:    "newton",
		Theta:    DefaultTheta,
		Bodies: []BodyConfig{
			{Name: "a", Pos: []float64{-0.5, 0}, Vel: []float64{0, -math.Sqrt(0.5)}, Mass: 1},
			{Name: "b", Pos: []float64{0.5, 0}, Vel: []float64{0, math.Sqrt(0.5)}, Mass: 1},
		},
	},
	// Chenciner-Montgomery figure-eight choreography.
	"figure8": {
		Name:     "figure8",
		G:        1,
		Dt:       0.005,
		Duration: 6.3259,
		Method:   "rk4",
		Force:    "newton",
		Theta:    DefaultTheta,
		Bodies: []BodyConfig{
			{Name: "a", Pos: []float64{0.97000436, -0.24308753}, Vel: []float64{0.466203685, 0.43236573}, Mass: 1},
			{Name: "b", Pos: []float64{-0.97000436, 0.24308753}, Vel: []float64{0.466203685, 0.43236573}, Mass: 1},
			{Name: "c", Pos: []float64{0, 0}, Vel: []float64{-0.93240737, -0.86473146}, Mass: 1},
		},
	},
	// Distances in AU, time in years, masses in earth masses.
	"sun_earth": {
		Name:     "sun_earth",
		G:        4 * math.Pi * math.Pi / earthMassesPerSun,
		Dt:       0.001,
		Duration: 1.0,
		Method:   "verlet",
		Force:    "newton",
		Theta:    DefaultTheta,
		Bodies: []BodyConfig{
			{Name: "sun", Pos: []float64{0, 0}, Vel: []float64{0, -2 * math.Pi / earthMassesPerSun}, Mass: earthMassesPerSun},
			{Name: "earth", Pos: []float64{1, 0}, Vel: []float64{0, 2 * math.Pi}, Mass: 1},
		},
	},
	"ring": {
		Name:      "ring",
		G:         1,
		Dt:        0.001,
		Duration:  5.0,
		Method:    "leapfrog",
		Force:     "plummer",
		Softening: 0.05,
		Theta:     DefaultTheta,
		Ring:      &RingConfig{Count: 8, Radius: 1, Mass: 1},
	},
	"cluster": {
		Name:      "cluster",
		G:         1,
		Dt:        0.001,
		Duration:  1.0,
		Method:    "leapfrog",
		Force:     "barneshut",
		Softening: 0.05,
		Theta:     0.5,
		Workers:   4,
		Ring:      &RingConfig{Count: 128, Radius: 4, Mass: 0.01},
	},
}

func (c *Config) withDuration(d float64) *Config {
	c.Duration = d
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
