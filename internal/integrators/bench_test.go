package integrators

import (
	"testing"

	"github.com/san-kum/starsys/internal/dynamo"
)

func benchmarkMethod(b *testing.B, name string, sys dynamo.System, x dynamo.State, dt float64) {
	integrator, err := New(name)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, dt)
	}
}

func BenchmarkEuler(b *testing.B) {
	benchmarkMethod(b, "euler", &harmonicOscillator{}, dynamo.State{1.0, 0.0}, 0.01)
}

func BenchmarkRK4(b *testing.B) {
	benchmarkMethod(b, "rk4", &harmonicOscillator{}, dynamo.State{1.0, 0.0}, 0.01)
}

func BenchmarkRK45(b *testing.B) {
	benchmarkMethod(b, "rk45", &harmonicOscillator{}, dynamo.State{1.0, 0.0}, 0.01)
}

func BenchmarkVerlet(b *testing.B) {
	benchmarkMethod(b, "verlet", &harmonicOscillator{}, dynamo.State{1.0, 0.0}, 0.01)
}

func BenchmarkLeapfrog(b *testing.B) {
	benchmarkMethod(b, "leapfrog", &harmonicOscillator{}, dynamo.State{1.0, 0.0}, 0.01)
}

// springs5 is five uncoupled 2-D springs laid out positions then velocities.
type springs5 struct{}

func (s *springs5) StateDim() int { return 20 }
func (s *springs5) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, 20)
	for i := 0; i < 10; i++ {
		dx[i] = x[10+i]
		dx[10+i] = -x[i] * 0.1
	}
	return dx
}

func springState() dynamo.State {
	x := make(dynamo.State, 20)
	for i := range x {
		x[i] = float64(i) * 0.1
	}
	return x
}

func BenchmarkRK4_Springs5(b *testing.B) {
	benchmarkMethod(b, "rk4", &springs5{}, springState(), 0.001)
}

func BenchmarkLeapfrog_Springs5(b *testing.B) {
	benchmarkMethod(b, "leapfrog", &springs5{}, springState(), 0.001)
}
