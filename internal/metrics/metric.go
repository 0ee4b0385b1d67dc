package metrics

// FrameSample is the per-body state recorded after each frame.
type FrameSample struct {
	Frame             int
	Time              float64
	Body              string
	Energy            float64
	LowestY           float64
	Valid             bool
	AttractorStrength float64
}

// FrameMetric accumulates a scalar over the samples of a run.
type FrameMetric interface {
	Name() string
	Observe(s FrameSample)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every run.
func Defaults(bar float64) []FrameMetric {
	return []FrameMetric{
		NewPeakEnergy(),
		NewFinalEnergy(),
		NewLowestY(),
		NewStability(bar, 1e-3),
		NewControlEffort(),
	}
}
