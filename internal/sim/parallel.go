package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/starsys/internal/dynamo"
)

// Ensemble runs independent simulations concurrently. Every member needs its
// own system and integrator since integrators keep scratch state.
type Ensemble struct {
	names []string
	sims  []*Simulator
	x0s   []dynamo.State
	limit int
}

func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

func (e *Ensemble) Add(name string, s *Simulator, x0 dynamo.State) {
	e.names = append(e.names, name)
	e.sims = append(e.sims, s)
	e.x0s = append(e.x0s, x0)
}

func (e *Ensemble) Names() []string { return append([]string(nil), e.names...) }

// Run returns results in the order members were added. The first failure
// cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.sims))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := range e.sims {
		i := i
		g.Go(func() error {
			res, err := e.sims[i].Run(ctx, e.x0s[i], cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", e.names[i], err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
