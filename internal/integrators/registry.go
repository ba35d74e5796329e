package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/starsys/internal/dynamo"
)

var methods = map[string]func() dynamo.Integrator{
	"euler":            func() dynamo.Integrator { return NewEuler() },
	"symplectic_euler": func() dynamo.Integrator { return NewSymplecticEuler() },
	"verlet":           func() dynamo.Integrator { return NewVerlet() },
	"leapfrog":         func() dynamo.Integrator { return NewLeapfrog() },
	"rk4":              func() dynamo.Integrator { return NewRK4() },
	"rk45":             func() dynamo.Integrator { return NewRK45() },
}

// New returns a fresh integrator for the named method. Each call gets its
// own scratch buffers.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownMethod, name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
