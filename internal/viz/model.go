package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/sim"
	"github.com/san-kum/starsys/internal/starsystem"
)

const (
	defaultWidth    = 60
	defaultHeight   = 22
	statsWidth      = 44
	trailLength     = 120
	energyCapacity  = 300
	defaultPerFrame = 4
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model animates a star system. Each frame streams a batch of steps through
// a simulator and loads the last state back into the system; reset restores
// the state captured by NewModel.
type Model struct {
	name     string
	system   *starsystem.StarSystem
	initial  *starsystem.StarSystem
	sim      *sim.Simulator
	canvas   *Canvas
	view     Viewport
	fitScale float64

	running  bool
	perFrame int
	trails   [][]r3.Vec
	showTail bool
	energy   []float64
	energy0  float64
	err      error
}

func NewModel(name string, s *starsystem.StarSystem) Model {
	m := Model{
		name:     name,
		system:   s,
		initial:  s.Clone(),
		sim:      sim.New(s, s.Integrator()),
		canvas:   NewCanvas(defaultWidth, defaultHeight),
		running:  true,
		perFrame: defaultPerFrame,
		showTail: true,
		energy0:  s.TotalEnergy(),
	}
	m.clearHistory()
	m.fit()
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case "r":
			m.reset()
		case ".":
			if !m.running {
				m.advance(1)
			}
		case "+", "=":
			m.view.Scale *= 1.25
		case "-", "_":
			m.view.Scale /= 1.25
		case "0":
			m.fit()
		case "]":
			m.perFrame = min(m.perFrame*2, 1024)
		case "[":
			m.perFrame = max(m.perFrame/2, 1)
		case "t":
			m.showTail = !m.showTail
		}
	case tea.WindowSizeMsg:
		w := max(msg.Width-statsWidth-6, 10)
		h := max(msg.Height-4, 5)
		m.canvas = NewCanvas(w, h)
		m.fit()
	case TickMsg:
		if m.running {
			m.advance(m.perFrame)
		}
		return m, tick()
	}
	return m, nil
}

// advance moves the system n steps. A diverging step stops the animation
// at the last finite state.
func (m *Model) advance(n int) {
	cfg := sim.Config{Dt: m.system.Dt, Duration: float64(n) * m.system.Dt, ValidateState: true}

	last := m.system.State()
	elapsed := 0.0
	err := m.sim.RunWithCallback(context.Background(), last, cfg, func(x dynamo.State, t float64) bool {
		last, elapsed = x, t
		return true
	})
	if setErr := m.system.SetState(last); setErr != nil && err == nil {
		err = setErr
	}
	m.system.Time += elapsed

	if err != nil {
		m.err = fmt.Errorf("%w at t=%.4f", starsystem.ErrDiverged, m.system.Time)
		m.running = false
	}
	m.record()
}

func (m *Model) record() {
	for i, p := range m.system.Pos {
		m.trails[i] = append(m.trails[i], p)
		if len(m.trails[i]) > trailLength {
			m.trails[i] = m.trails[i][1:]
		}
	}
	m.energy = append(m.energy, m.system.TotalEnergy())
	if len(m.energy) > energyCapacity {
		m.energy = m.energy[1:]
	}
}

func (m *Model) reset() {
	m.system.Time = m.initial.Time
	if err := m.system.SetState(m.initial.State()); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.running = true
	m.clearHistory()
}

func (m *Model) clearHistory() {
	m.trails = make([][]r3.Vec, m.system.Len())
	m.energy = m.energy[:0]
	m.record()
}

// fit centres the view on the centre of mass and zooms to show every body.
func (m *Model) fit() {
	com := m.system.CenterOfMass()
	radius := 0.0
	for _, p := range m.system.Pos {
		radius = math.Max(radius, r3.Norm(r3.Sub(p, com)))
	}
	m.view = Viewport{CX: com.X, CY: com.Y, Scale: Fit(m.canvas, 1.2*radius)}
	m.fitScale = m.view.Scale
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.showTail {
		for _, trail := range m.trails {
			m.drawTrail(trail)
		}
	}
	for _, p := range m.system.Pos {
		if x, y, ok := m.view.Project(m.canvas, p.X, p.Y); ok {
			m.canvas.Dot(x, y, 1)
		}
	}
}

// drawTrail joins consecutive samples with lines. Segments with an end off
// the canvas are skipped.
func (m *Model) drawTrail(trail []r3.Vec) {
	px, py, prev := 0, 0, false
	for _, p := range trail {
		x, y, ok := m.view.Project(m.canvas, p.X, p.Y)
		ok = ok && m.canvas.contains(x, y)
		switch {
		case ok && prev:
			m.canvas.DrawLine(px, py, x, y)
		case ok:
			m.canvas.Set(x, y)
		}
		px, py, prev = x, y, ok
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return statusFailed.Render("DIVERGED")
	case m.running:
		return statusRunning.Render("RUNNING")
	default:
		return statusPaused.Render("PAUSED")
	}
}

func (m Model) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	e := m.system.TotalEnergy()
	drift := 0.0
	if m.energy0 != 0 {
		drift = math.Abs(e-m.energy0) / math.Abs(m.energy0)
	}

	s.WriteString(row("Time", "%.3f", m.system.Time))
	s.WriteString(row("Bodies", "%d", m.system.Len()))
	s.WriteString(row("Method", "%s", m.system.Method()))
	s.WriteString(row("Force", "%s", m.system.Force()))
	s.WriteString(row("dt", "%g x %d", m.system.Dt, m.perFrame))
	s.WriteString(row("Energy", "%.6g", e))
	s.WriteString(row("Drift", "%.2e", drift))
	s.WriteString(row("|p|", "%.2e", r3.Norm(m.system.Momentum())))
	s.WriteString(row("Zoom", "%.2fx", m.view.Scale/m.fitScale))
	if m.err != nil {
		s.WriteString("\n" + statusFailed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SPC:pause .:step r:reset q:quit\n+/-:zoom 0:fit [ ]:speed t:trails"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()))
}

// Time returns the simulated time shown by the model.
func (m Model) Time() float64 { return m.system.Time }

func (m Model) Running() bool { return m.running }

func (m Model) Err() error { return m.err }

func (m Model) String() string {
	return fmt.Sprintf("%s t=%.3f", m.name, m.system.Time)
}
