package scene

import (
	"time"

	"github.com/san-kum/softfem/internal/metrics"
)

// Result holds the per-frame samples of a run.
type Result struct {
	Bodies  []string
	Samples []metrics.FrameSample
	Metrics map[string]float64
	Frames  int
	Dt      float64
	Time    float64
	Elapsed time.Duration
}

// EnergyTrace returns the named body's energy per frame.
func (r *Result) EnergyTrace(body string) []float64 {
	var out []float64
	for _, s := range r.Samples {
		if s.Body == body {
			out = append(out, s.Energy)
		}
	}
	return out
}

// TotalEnergy returns the summed energy of all bodies per frame.
func (r *Result) TotalEnergy() []float64 {
	out := make([]float64, r.Frames)
	if len(r.Samples) == 0 {
		return out
	}
	base := r.Samples[0].Frame
	for _, s := range r.Samples {
		if i := s.Frame - base; i >= 0 && i < len(out) {
			out[i] += s.Energy
		}
	}
	return out
}

// FrameDt is the simulated time between two consecutive samples.
func (r *Result) FrameDt() float64 {
	if r.Frames == 0 {
		return 0
	}
	return r.Time / float64(r.Frames)
}
