package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/control"
	"github.com/san-kum/softfem/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	assert.Equal(t, rune(blank|0x1), c.Grid[0][0])
	assert.Equal(t, rune(blank|0x80), c.Grid[0][1])

	c.Clear()
	assert.Equal(t, strings.Repeat(string(rune(blank)), 2)+"\n", c.String())
}

func TestCanvasWorldMapping(t *testing.T) {
	c := NewCanvas(60, 30)

	x, y := c.Dot(r2.Vec{X: 0.5, Y: 0.5})
	assert.Equal(t, 60, x)
	assert.Equal(t, 60, y)

	p := c.World(30, 15)
	assert.InDelta(t, 0.5+0.5/60, p.X, 1e-12)
	assert.InDelta(t, 0.5-0.5/30, p.Y, 1e-12)

	assert.Equal(t, 24, c.BarRow(0.2))
}

func TestCanvasDrawTriangle(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawTriangle(r2.Vec{X: 0.1, Y: 0.9}, r2.Vec{X: 0.9, Y: 0.9}, r2.Vec{X: 0.5, Y: 0.1})

	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 5)

	// non-finite vertices are skipped
	c.Clear()
	c.DrawSegment(r2.Vec{X: 0.5}, r2.Vec{X: nan()})
	assert.Equal(t, NewCanvas(10, 5).String(), c.String())
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "───", Sparkline(nil, 3))
	assert.Equal(t, "▁█", Sparkline([]float64{0, 1}, 5))
	assert.Equal(t, 4, len([]rune(Sparkline([]float64{0, 1, 2, 3, 4, 5}, 4))))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "retro", GetTheme("retro").Name)
	assert.Equal(t, "classic", GetTheme("unknown").Name)
	assert.Equal(t, "retro", NextTheme(ThemeClassic).Name)
	assert.Equal(t, "classic", NextTheme(ThemeOcean).Name)
	assert.Len(t, ThemeNames(), 3)
}

func newTestModel(t *testing.T) (Model, *control.Manual) {
	t.Helper()
	ctrl := control.NewManual(r2.Vec{Y: -1})
	sc, err := scene.FromConfig(config.DefaultConfig(), scene.WithController(ctrl))
	require.NoError(t, err)
	return NewModel(sc, ctrl, "classic"), ctrl
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelGravityKeys(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	assert.Equal(t, r2.Vec{X: -1}, ctrl.Gravity())

	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, r2.Vec{Y: 1}, ctrl.Gravity())
	assert.Contains(t, m.status, "gravity")
}

func TestModelMouseAttractor(t *testing.T) {
	m, ctrl := newTestModel(t)

	press := tea.MouseMsg{X: canvasPadLeft + 30, Y: canvasPadTop + 15, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m = update(m, press)
	f := ctrl.Compute(0)
	assert.Equal(t, 1.0, f.AttractorStrength)
	assert.Equal(t, m.canvas.World(30, 15), f.AttractorPos)

	move := tea.MouseMsg{X: canvasPadLeft + 10, Y: canvasPadTop + 5, Action: tea.MouseActionMotion}
	m = update(m, move)
	assert.Equal(t, m.canvas.World(10, 5), ctrl.Compute(0).AttractorPos)

	m = update(m, tea.MouseMsg{Action: tea.MouseActionRelease})
	assert.Equal(t, 0.0, ctrl.Compute(0).AttractorStrength)

	update(m, tea.MouseMsg{X: canvasPadLeft + 1, Y: canvasPadTop + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	assert.Equal(t, -1.0, ctrl.Compute(0).AttractorStrength)
}

func TestModelTickStepsScene(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(m, TickMsg{})
	m = update(m, TickMsg{})
	assert.Equal(t, 2, m.scene.FrameCount())
	assert.Len(t, m.energy, 2)

	m = update(m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.running)
	m = update(m, TickMsg{})
	assert.Equal(t, 2, m.scene.FrameCount())

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Equal(t, 0, m.scene.FrameCount())
	assert.True(t, m.running)
	assert.Empty(t, m.energy)
}

func TestModelView(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, TickMsg{})

	view := m.View()
	assert.Contains(t, view, "SOFTFEM")
	assert.Contains(t, view, "mesh1")
	assert.Contains(t, view, "mesh2")
	assert.True(t, strings.ContainsRune(view, blank))

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	assert.Equal(t, "retro", m.theme.Name)
}

func TestModelSaveSVG(t *testing.T) {
	m, _ := newTestModel(t)
	dir := t.TempDir()
	m = m.WithSVGDir(dir)

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	assert.Equal(t, 1, m.svgCount)
	_, err := os.Stat(filepath.Join(dir, "frame_00000.svg"))
	assert.NoError(t, err)
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
