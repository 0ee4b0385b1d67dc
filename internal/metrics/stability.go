package metrics

import "math"

// LowestY tracks the minimum vertex height reached by any body.
type LowestY struct {
	name string
	low  float64
}

func NewLowestY() *LowestY {
	return &LowestY{name: "lowest_y", low: math.Inf(1)}
}

func (l *LowestY) Name() string { return l.name }

func (l *LowestY) Observe(s FrameSample) {
	l.low = math.Min(l.low, s.LowestY)
}

func (l *LowestY) Value() float64 {
	return l.low
}

func (l *LowestY) Reset() {
	l.low = math.Inf(1)
}

// Stability is the fraction of samples whose body is valid and above the
// bar by no more than tol.
type Stability struct {
	name       string
	bar        float64
	tol        float64
	violations int
	samples    int
}

func NewStability(bar, tol float64) *Stability {
	return &Stability{
		name: "stability",
		bar:  bar,
		tol:  tol,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(fs FrameSample) {
	s.samples++
	if !fs.Valid || math.IsNaN(fs.Energy) || fs.LowestY < s.bar-s.tol {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
