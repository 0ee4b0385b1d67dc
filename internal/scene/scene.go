package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/control"
	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/metrics"
	"github.com/san-kum/softfem/internal/physics"
	"golang.org/x/sync/errgroup"
)

// Observer is notified after every completed frame.
type Observer interface {
	OnFrame(s *Scene, samples []metrics.FrameSample) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *Scene, samples []metrics.FrameSample) error

func (f ObserverFunc) OnFrame(s *Scene, samples []metrics.FrameSample) error { return f(s, samples) }

type Option func(*Scene)

func WithLogger(l *log.Logger) Option {
	return func(s *Scene) { s.log = l }
}

func WithMetrics(m ...metrics.FrameMetric) Option {
	return func(s *Scene) { s.metrics = append(s.metrics, m...) }
}

func WithObserver(o Observer) Option {
	return func(s *Scene) { s.observers = append(s.observers, o) }
}

// WithController replaces the controller built from configuration.
func WithController(c control.Controller) Option {
	return func(s *Scene) { s.ctrl = c }
}

type Scene struct {
	bodies    []*physics.SoftBody
	ctrl      control.Controller
	params    dynamo.StepParams
	substeps  int
	metrics   []metrics.FrameMetric
	observers []Observer
	log       *log.Logger

	frame  int
	time   float64
	forces dynamo.Forces
	last   []metrics.FrameSample
}

// New creates a scene over initialized bodies.
func New(bodies []*physics.SoftBody, ctrl control.Controller, p dynamo.StepParams, substeps int, opts ...Option) *Scene {
	s := &Scene{
		bodies:   bodies,
		ctrl:     ctrl,
		params:   p,
		substeps: substeps,
		log:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds and initializes the bodies of cfg and its controller.
func FromConfig(cfg *config.Config, opts ...Option) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.InversionPolicy()
	if err != nil {
		return nil, err
	}

	bodies := make([]*physics.SoftBody, 0, len(cfg.Bodies))
	for _, bc := range cfg.Bodies {
		b, err := physics.NewSoftBody(bc.Name, physics.BodyParams{
			Resolution: bc.Resolution,
			Young:      bc.Young,
			Poisson:    bc.Poisson,
			Density:    bc.Density,
			Policy:     policy,
		})
		if err != nil {
			return nil, err
		}
		b.Integrator().Bar.Height = cfg.Bar
		if err := b.Initialize(bc.Scale, bc.Offset); err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}

	return New(bodies, ControllerFromConfig(cfg), cfg.Step(), cfg.Substeps, opts...), nil
}

// ControllerFromConfig returns an Orbit controller when an orbit is
// configured, otherwise a Static one.
func ControllerFromConfig(cfg *config.Config) control.Controller {
	a := cfg.Attractor
	if a.Orbit != nil {
		return control.NewOrbit(cfg.Gravity, a.Orbit.Center, a.Orbit.Radius, a.Orbit.Period, a.Strength)
	}
	c := control.NewStatic(cfg.Gravity)
	c.Forces.AttractorPos = a.Pos
	c.Forces.AttractorStrength = a.Strength
	return c
}

// Frame advances every valid body by one frame of substeps. A body that
// fails numerically is flagged invalid and skipped from then on; its samples
// carry Valid=false. Any other body error aborts the frame.
func (s *Scene) Frame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("frame %d: %w", s.frame, dynamo.ErrContextCanceled)
	}

	forces := s.ctrl.Compute(s.time)
	s.forces = forces

	var g errgroup.Group
	for _, b := range s.bodies {
		if !b.Valid() {
			continue
		}
		b := b // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			err := b.Frame(forces, s.params, s.substeps)
			if err != nil && flagged(b, err) {
				s.log.Warn("body flagged", "body", b.Name(), "frame", s.frame, "err", err)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("frame failed", "frame", s.frame, "err", err)
		return err
	}

	s.time += float64(s.substeps) * s.params.Dt
	samples := s.samples()
	s.last = samples
	s.frame++

	for _, m := range s.metrics {
		for _, fs := range samples {
			m.Observe(fs)
		}
	}
	for _, o := range s.observers {
		if err := o.OnFrame(s, samples); err != nil {
			return fmt.Errorf("observer: %w", err)
		}
	}

	s.log.Debug("frame", "n", s.frame, "t", s.time, "energy", totalEnergy(samples))
	return nil
}

// flagged reports whether err is a numerical failure that invalidated b
// alone. Such a body stops stepping and the rest of the scene goes on.
func flagged(b *physics.SoftBody, err error) bool {
	if b.Valid() {
		return false
	}
	return errors.Is(err, dynamo.ErrInvalidDeformation) || errors.Is(err, dynamo.ErrInvalidState)
}

func (s *Scene) samples() []metrics.FrameSample {
	out := make([]metrics.FrameSample, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = metrics.FrameSample{
			Frame:             s.frame,
			Time:              s.time,
			Body:              b.Name(),
			Energy:            b.Energy(),
			LowestY:           b.LowestY(),
			Valid:             b.Valid(),
			AttractorStrength: s.forces.AttractorStrength,
		}
	}
	return out
}

// Run executes frames and collects their samples. On cancellation or a body
// error the partial result is returned with the error.
func (s *Scene) Run(ctx context.Context, frames int) (*Result, error) {
	if frames < 0 {
		return nil, fmt.Errorf("frames=%d: %w", frames, dynamo.ErrParameterBounds)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Bodies:  s.BodyNames(),
		Samples: make([]metrics.FrameSample, 0, frames*len(s.bodies)),
		Metrics: make(map[string]float64),
		Dt:      s.params.Dt,
	}
	s.log.Info("run started", "bodies", len(s.bodies), "frames", frames, "substeps", s.substeps)
	start, t0 := time.Now(), s.time

	var runErr error
	for i := 0; i < frames; i++ {
		if err := s.Frame(ctx); err != nil {
			runErr = err
			break
		}
		result.Samples = append(result.Samples, s.last...)
		result.Frames++
	}

	result.Elapsed = time.Since(start)
	result.Time = s.time - t0
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr != nil {
		s.log.Warn("run stopped", "frames", result.Frames, "err", runErr)
		return result, runErr
	}
	s.log.Info("run finished", "frames", result.Frames, "elapsed", result.Elapsed)
	return result, nil
}

// Reset re-initializes every body at its configured placement and rewinds
// the clock.
func (s *Scene) Reset() error {
	for _, b := range s.bodies {
		if err := b.Reset(); err != nil {
			return err
		}
	}
	if r, ok := s.ctrl.(interface{ Reset() }); ok {
		r.Reset()
	}
	s.frame = 0
	s.time = 0
	s.last = nil
	s.log.Info("scene reset")
	return nil
}

// Snapshots returns a copy of every body's mesh.
func (s *Scene) Snapshots() []physics.MeshSnapshot {
	out := make([]physics.MeshSnapshot, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.Snapshot()
	}
	return out
}

func (s *Scene) BodyNames() []string {
	names := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		names[i] = b.Name()
	}
	return names
}

func (s *Scene) Bodies() []*physics.SoftBody    { return s.bodies }
func (s *Scene) Controller() control.Controller { return s.ctrl }
func (s *Scene) Params() dynamo.StepParams      { return s.params }
func (s *Scene) Substeps() int                  { return s.substeps }
func (s *Scene) FrameCount() int                { return s.frame }
func (s *Scene) Time() float64                  { return s.time }
func (s *Scene) Forces() dynamo.Forces          { return s.forces }

// Bar returns the bar height shared by the bodies.
func (s *Scene) Bar() float64 {
	if len(s.bodies) == 0 {
		return 0
	}
	return s.bodies[0].Integrator().Bar.Height
}

func totalEnergy(samples []metrics.FrameSample) float64 {
	u := 0.0
	for _, fs := range samples {
		u += fs.Energy
	}
	return u
}
