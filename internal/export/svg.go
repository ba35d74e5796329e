package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
)

var ErrNoTracks = errors.New("export: nothing to draw")

var palette = []string{"#00ccff", "#ff6666", "#66ff99", "#ffcc00", "#cc66ff", "#ff9933", "#3399ff", "#ff66cc"}

// Tracks splits flattened states into one x-y-z track per body.
func Tracks(states [][]float64, bodies int) ([][]r3.Vec, error) {
	if bodies < 1 {
		return nil, ErrNoTracks
	}
	tracks := make([][]r3.Vec, bodies)
	for k, x := range states {
		if len(x) != 6*bodies {
			return nil, fmt.Errorf("%w: state %d has %d values for %d bodies", dynamo.ErrDimensionMismatch, k, len(x), bodies)
		}
		for i := range tracks {
			tracks[i] = append(tracks[i], r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]})
		}
	}
	return tracks, nil
}

// OrbitsSVG draws every track projected on the x-y plane, with the final
// positions marked. Both axes share one scale so orbits keep their shape.
func OrbitsSVG(w io.Writer, tracks [][]r3.Vec, width, height int) error {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, track := range tracks {
		for _, p := range track {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 0) || math.IsInf(minY, 0) || math.IsNaN(minX) || math.IsNaN(minY) {
		return ErrNoTracks
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	// 5% margin on every side
	scale := 0.9 * math.Min(float64(width), float64(height)) / span
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	project := func(p r3.Vec) (float64, float64) {
		return float64(width)/2 + (p.X-cx)*scale, float64(height)/2 - (p.Y-cy)*scale
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, track := range tracks {
		if len(track) == 0 {
			continue
		}
		color := palette[i%len(palette)]

		fmt.Fprintf(bw, `<polyline fill="none" stroke="%s" stroke-width="1.2" points="`, color)
		for k, p := range track {
			x, y := project(p)
			if k > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%.1f,%.1f", x, y)
		}
		bw.WriteString("\"/>\n")

		x, y := project(track[len(track)-1])
		fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", x, y, color)
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}
