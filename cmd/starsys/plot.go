package main

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/starsystem"
	"github.com/san-kum/starsys/internal/storage"
)

const maxPlotBodies = 6

var plotColors = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Red, asciigraph.Green,
	asciigraph.Yellow, asciigraph.Magenta, asciigraph.Cyan,
}

func (c *cli) plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(c.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return errors.New("no data to plot")
	}

	energy, radii, err := series(meta, states)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "system: %s (%d bodies, %s, %s)\n", meta.Name, meta.Bodies, meta.Method, meta.Force)
	fmt.Fprintf(out, "samples: %d\n\n", len(states))

	fmt.Fprintln(out, asciigraph.Plot(energy,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("total energy"),
	))
	fmt.Fprintln(out)

	legends := make([]string, len(radii))
	for i := range radii {
		legends[i] = fmt.Sprintf("body %d", i)
		if i < len(meta.BodyNames) {
			legends[i] = meta.BodyNames[i]
		}
	}
	fmt.Fprintln(out, asciigraph.PlotMany(radii,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("distance from centre of mass"),
		asciigraph.SeriesColors(plotColors[:len(radii)]...),
		asciigraph.SeriesLegends(legends...),
	))
	return nil
}

// series rebuilds the system from run metadata and evaluates total energy
// and per-body distance from the centre of mass at every sample.
func series(meta *storage.RunMetadata, states [][]float64) ([]float64, [][]float64, error) {
	n := len(meta.Masses)
	if n == 0 {
		return nil, nil, errors.New("run has no bodies")
	}
	if len(states[0]) != 6*n {
		return nil, nil, fmt.Errorf("%w: %d values per state for %d bodies", dynamo.ErrDimensionMismatch, len(states[0]), n)
	}

	s, err := starsystem.New(make([]r3.Vec, n), meta.Masses,
		starsystem.WithG(meta.G),
		starsystem.WithForce(meta.Force),
		starsystem.WithSoftening(meta.Softening),
	)
	if err != nil {
		return nil, nil, err
	}

	shown := min(n, maxPlotBodies)
	energy := make([]float64, len(states))
	radii := make([][]float64, shown)
	for i := range radii {
		radii[i] = make([]float64, len(states))
	}

	for k, raw := range states {
		x := dynamo.State(raw)
		energy[k] = s.Energy(x)
		com := s.CenterOfMassOf(x)
		pos := s.PositionsOf(x)
		for i := 0; i < shown; i++ {
			radii[i][k] = r3.Norm(r3.Sub(pos[i], com))
		}
	}
	return energy, radii, nil
}
