package metrics

import "math"

// PeakEnergy tracks the largest single-body elastic energy.
type PeakEnergy struct {
	name    string
	peak    float64
	samples int
}

func NewPeakEnergy() *PeakEnergy {
	return &PeakEnergy{name: "peak_energy"}
}

func (e *PeakEnergy) Name() string { return e.name }

func (e *PeakEnergy) Observe(s FrameSample) {
	if e.samples == 0 {
		e.peak = s.Energy
	}
	e.peak = math.Max(e.peak, s.Energy)
	e.samples++
}

func (e *PeakEnergy) Value() float64 {
	return e.peak
}

func (e *PeakEnergy) Reset() {
	e.peak = 0
	e.samples = 0
}

// FinalEnergy is the total elastic energy of all bodies in the latest frame.
type FinalEnergy struct {
	name  string
	frame int
	total float64
}

func NewFinalEnergy() *FinalEnergy {
	return &FinalEnergy{name: "final_energy", frame: -1}
}

func (e *FinalEnergy) Name() string { return e.name }

func (e *FinalEnergy) Observe(s FrameSample) {
	if s.Frame != e.frame {
		e.frame = s.Frame
		e.total = 0
	}
	e.total += s.Energy
}

func (e *FinalEnergy) Value() float64 {
	return e.total
}

func (e *FinalEnergy) Reset() {
	e.frame = -1
	e.total = 0
}
