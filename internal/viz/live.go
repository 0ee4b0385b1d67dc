package viz

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/softfem/internal/control"
	"github.com/san-kum/softfem/internal/export"
	"github.com/san-kum/softfem/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	canvasWidth     = 60
	canvasHeight    = 30
	historyCapacity = 300
	tickInterval    = time.Second / 30
)

type TickMsg time.Time

// Model is the Bubble Tea model of the live view. It steps the scene one
// frame per tick.
type Model struct {
	scene  *scene.Scene
	ctrl   *control.Manual
	canvas *Canvas

	theme   Theme
	styles  styles
	running bool
	err     error
	status  string

	energy   []float64
	perBody  map[string][]float64
	attract  bool
	elapsed  time.Duration
	svgDir   string
	svgCount int
}

// NewModel creates the live view. ctrl must be the scene's controller so
// that key and mouse input reaches the bodies.
func NewModel(sc *scene.Scene, ctrl *control.Manual, theme string) Model {
	t := GetTheme(theme)
	return Model{
		scene:   sc,
		ctrl:    ctrl,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		theme:   t,
		styles:  newStyles(t),
		running: true,
		energy:  make([]float64, 0, historyCapacity),
		perBody: make(map[string][]float64),
		svgDir:  ".",
	}
}

// WithSVGDir sets where the p key writes frame snapshots.
func (m Model) WithSVGDir(dir string) Model {
	m.svgDir = dir
	return m
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "p":
		m.saveSVG()
	default:
		if m.ctrl.SetGravityKey(key) {
			g := m.ctrl.Gravity()
			m.status = fmt.Sprintf("gravity (%+.0f, %+.0f)", g.X, g.Y)
		}
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X-canvasPadLeft, msg.Y-canvasPadTop
	inside := col >= 0 && col < m.canvas.Width && row >= 0 && row < m.canvas.Height
	pos := m.canvas.World(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if !inside {
			return
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.ctrl.Attract(pos)
			m.attract = true
		case tea.MouseButtonRight:
			m.ctrl.Repel(pos)
			m.attract = true
		}
	case tea.MouseActionMotion:
		if !m.attract || !inside {
			return
		}
		f := m.ctrl.Compute(0)
		if f.AttractorStrength > 0 {
			m.ctrl.Attract(pos)
		} else {
			m.ctrl.Repel(pos)
		}
	case tea.MouseActionRelease:
		m.ctrl.Release()
		m.attract = false
	}
}

func (m *Model) step() {
	start := time.Now()
	if err := m.scene.Frame(context.Background()); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.elapsed = time.Since(start)

	total := 0.0
	for _, b := range m.scene.Bodies() {
		total += b.Energy()
		m.perBody[b.Name()] = appendCapped(m.perBody[b.Name()], b.Energy())
	}
	m.energy = appendCapped(m.energy, total)
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) reset() {
	if err := m.scene.Reset(); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.running = true
	m.attract = false
	m.energy = m.energy[:0]
	m.perBody = make(map[string][]float64)
	m.status = "reset"
}

func (m *Model) saveSVG() {
	opts := export.DefaultOptions()
	opts.Bar = m.scene.Bar()
	path, err := export.WriteFrame(m.svgDir, m.scene.FrameCount(), m.scene.Snapshots(), opts)
	if err != nil {
		m.status = "svg: " + err.Error()
		return
	}
	m.svgCount++
	m.status = "wrote " + path
}

func (m *Model) draw() {
	m.canvas.Clear()

	bar := m.scene.Bar()
	x0, y := m.canvas.Dot(r2.Vec{X: 0, Y: bar})
	x1, _ := m.canvas.Dot(r2.Vec{X: 1, Y: bar})
	m.canvas.DrawLine(x0, y, x1, y)

	for _, snap := range m.scene.Snapshots() {
		for _, f := range snap.Faces {
			m.canvas.DrawTriangle(snap.Positions[f[0]], snap.Positions[f[1]], snap.Positions[f[2]])
		}
	}

	f := m.ctrl.Compute(0)
	if f.AttractorStrength != 0 {
		x, y := m.canvas.Dot(f.AttractorPos)
		for d := -1; d <= 1; d++ {
			m.canvas.Set(x+d, y)
			m.canvas.Set(x, y+d)
		}
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()

	barRow := m.canvas.BarRow(m.scene.Bar())
	var cv strings.Builder
	for i := 0; i < m.canvas.Height; i++ {
		style := m.styles.mesh
		if i >= barRow {
			style = m.styles.bar
		}
		cv.WriteString(style.Render(m.canvas.Row(i)))
		if i < m.canvas.Height-1 {
			cv.WriteByte('\n')
		}
	}
	canvasView := m.styles.canvas.Render(cv.String())

	var s strings.Builder
	s.WriteString(m.styles.header.Render("SOFTFEM") + "\n")

	status := "RUNNING"
	switch {
	case m.err != nil:
		status = m.styles.err.Render("HALTED")
	case !m.running:
		status = m.styles.warn.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption("elastic energy"))
		s.WriteString(m.styles.graph.Render(chart) + "\n")
	}

	g := m.ctrl.Gravity()
	f := m.ctrl.Compute(0)
	s.WriteString(m.row("Frame", fmt.Sprintf("%d", m.scene.FrameCount())))
	s.WriteString(m.row("Time", fmt.Sprintf("%.2fs", m.scene.Time())))
	s.WriteString(m.row("Gravity", fmt.Sprintf("(%+.0f, %+.0f)", g.X, g.Y)))
	attractor := "off"
	if f.AttractorStrength > 0 {
		attractor = fmt.Sprintf("pull (%.2f, %.2f)", f.AttractorPos.X, f.AttractorPos.Y)
	} else if f.AttractorStrength < 0 {
		attractor = fmt.Sprintf("push (%.2f, %.2f)", f.AttractorPos.X, f.AttractorPos.Y)
	}
	s.WriteString(m.row("Attractor", attractor))
	s.WriteString(m.row("Frame cost", m.elapsed.Round(time.Microsecond).String()))

	s.WriteString("\nBODIES\n")
	for _, b := range m.scene.Bodies() {
		state := "ok"
		if !b.Valid() {
			state = m.styles.err.Render("invalid")
		}
		line := fmt.Sprintf("%-6s U=%-9.3g %s", b.Name(), b.Energy(), state)
		s.WriteString(m.styles.value.Render(line) + "\n")
		s.WriteString("  " + m.styles.mesh.Render(Sparkline(m.perBody[b.Name()], 30)) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + m.styles.err.Render(wrap(m.err.Error(), 44)) + "\n")
	} else if m.status != "" {
		s.WriteString("\n" + m.styles.label.Width(44).Render(m.status) + "\n")
	}

	s.WriteString(m.styles.help.Render("─────────────────────\nWASD/←↑↓→: gravity  mouse L/R: pull/push\nSP:Pause R:Reset T:Theme P:SVG Q:Quit"))
	statsView := m.styles.stats.Render(s.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

func wrap(s string, width int) string {
	if len(s) <= width {
		return s
	}
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width] + "\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

// Run starts the live view on the terminal.
func Run(sc *scene.Scene, ctrl *control.Manual, theme, svgDir string) error {
	m := NewModel(sc, ctrl, theme).WithSVGDir(svgDir)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithOutput(os.Stdout))
	_, err := p.Run()
	return err
}
