package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ControlEffort is the mean absolute attractor strength over the observed
// samples.
type ControlEffort struct {
	abs []float64
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (*ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s FrameSample) {
	c.abs = append(c.abs, math.Abs(s.AttractorStrength))
}

func (c *ControlEffort) Value() float64 {
	if len(c.abs) == 0 {
		return 0
	}
	return stat.Mean(c.abs, nil)
}

func (c *ControlEffort) Reset() { c.abs = c.abs[:0] }
