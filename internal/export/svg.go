package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/softfem/internal/metrics"
	"github.com/san-kum/softfem/internal/physics"
	"github.com/san-kum/softfem/internal/scene"
)

type Options struct {
	Width      int
	Height     int
	Bar        float64
	Background string
	BarColor   string
	Stroke     string
}

func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		Bar:        0.2,
		Background: "#000000",
		BarColor:   "#00ff00",
	}
}

// PhiColor maps an energy density to a grey-to-red colour: k = 10*phi/E,
// gb = (1-k)/2, rgb = (k+gb, gb, gb).
func PhiColor(phi, young float64) string {
	k := 0.0
	if young > 0 {
		k = phi * 10 / young
	}
	gb := (1 - k) * 0.5
	return fmt.Sprintf("#%02x%02x%02x", channel(k+gb), channel(gb), channel(gb))
}

func channel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// MeshSVG renders the unit square scene: the bar and every snapshot's
// triangles coloured by energy density.
func MeshSVG(snaps []physics.MeshSnapshot, opts Options) string {
	w, h := float64(opts.Width), float64(opts.Height)
	px := func(x float64) float64 { return x * w }
	py := func(y float64) float64 { return (1 - y) * h }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background))

	if opts.Bar > 0 {
		sb.WriteString(fmt.Sprintf(`<rect x="0" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>
`, py(opts.Bar), w, h-py(opts.Bar), opts.BarColor))
	}

	stroke := ""
	if opts.Stroke != "" {
		stroke = fmt.Sprintf(` stroke="%s" stroke-width="0.5"`, opts.Stroke)
	}

	for _, s := range snaps {
		sb.WriteString("<g>\n")
		for i, f := range s.Faces {
			a, b, c := s.Positions[f[0]], s.Positions[f[1]], s.Positions[f[2]]
			phi := 0.0
			if i < len(s.Phi) {
				phi = s.Phi[i]
			}
			sb.WriteString(fmt.Sprintf(`<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s"%s/>
`, px(a.X), py(a.Y), px(b.X), py(b.Y), px(c.X), py(c.Y), PhiColor(phi, s.Young), stroke))
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// FrameName returns the file name of a numbered frame.
func FrameName(frame int) string {
	return fmt.Sprintf("frame_%05d.svg", frame)
}

// WriteFrame renders snaps into dir/frame_NNNNN.svg and returns the path.
func WriteFrame(dir string, frame int, snaps []physics.MeshSnapshot, opts Options) (string, error) {
	path := filepath.Join(dir, FrameName(frame))
	if err := os.WriteFile(path, []byte(MeshSVG(snaps, opts)), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FrameWriter is a scene observer that writes every frame to Dir.
type FrameWriter struct {
	Dir     string
	Opts    Options
	Written int
}

func NewFrameWriter(dir string, opts Options) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FrameWriter{Dir: dir, Opts: opts}, nil
}

func (fw *FrameWriter) OnFrame(s *scene.Scene, samples []metrics.FrameSample) error {
	if len(samples) == 0 {
		return nil
	}
	if _, err := WriteFrame(fw.Dir, samples[0].Frame, s.Snapshots(), fw.Opts); err != nil {
		return err
	}
	fw.Written++
	return nil
}

// TraceSVG plots values against their index as a polyline.
func TraceSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(values) - 1)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
