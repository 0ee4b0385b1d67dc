package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/control"
	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// Script replays user input against a preset scene.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Frames      int     `yaml:"frames"`
	Events      []Event `yaml:"events"`
}

// Event is one input applied once simulated time reaches At. Exactly one
// action is set.
type Event struct {
	At      float64 `yaml:"at"`
	Gravity string  `yaml:"gravity,omitempty"`
	Attract *r2.Vec `yaml:"attract,omitempty"`
	Repel   *r2.Vec `yaml:"repel,omitempty"`
	Release bool    `yaml:"release,omitempty"`
}

var ErrBadEvent = errors.New("automation: invalid event")

// LoadScript loads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if s.Frames < 0 {
		return fmt.Errorf("script %q: frames=%d: %w", s.Name, s.Frames, dynamo.ErrParameterBounds)
	}
	for i, e := range s.Events {
		if err := e.validate(); err != nil {
			return fmt.Errorf("script %q: event %d: %w", s.Name, i, err)
		}
	}
	return nil
}

func (e Event) validate() error {
	if e.At < 0 || math.IsNaN(e.At) || math.IsInf(e.At, 0) {
		return fmt.Errorf("at=%v: %w", e.At, ErrBadEvent)
	}
	n := 0
	if e.Gravity != "" {
		if _, ok := control.GravityForKey(e.Gravity); !ok {
			return fmt.Errorf("gravity key %q: %w", e.Gravity, ErrBadEvent)
		}
		n++
	}
	if e.Attract != nil {
		n++
	}
	if e.Repel != nil {
		n++
	}
	if e.Release {
		n++
	}
	if n != 1 {
		return fmt.Errorf("%d actions: %w", n, ErrBadEvent)
	}
	return nil
}

func (e Event) apply(m *control.Manual) {
	switch {
	case e.Gravity != "":
		m.SetGravityKey(e.Gravity)
	case e.Attract != nil:
		m.Attract(*e.Attract)
	case e.Repel != nil:
		m.Repel(*e.Repel)
	case e.Release:
		m.Release()
	}
}

// Player is a controller that feeds a script's events into a Manual
// controller as time advances.
type Player struct {
	manual *control.Manual
	events []Event
	next   int
}

func NewPlayer(gravity r2.Vec, events []Event) *Player {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Player{manual: control.NewManual(gravity), events: sorted}
}

func (p *Player) Compute(t float64) dynamo.Forces {
	for p.next < len(p.events) && p.events[p.next].At <= t {
		p.events[p.next].apply(p.manual)
		p.next++
	}
	return p.manual.Compute(t)
}

// Reset rewinds to the first event.
func (p *Player) Reset() {
	p.manual.Reset()
	p.next = 0
}

// Pending is the number of events not yet applied.
func (p *Player) Pending() int { return len(p.events) - p.next }

// Config resolves the script's preset and frame count.
func (s *Script) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "fem128"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if s.Frames > 0 {
		cfg.Frames = s.Frames
	}
	return cfg, nil
}

// Run plays the script headless and returns the scene result.
func Run(ctx context.Context, s *Script, opts ...scene.Option) (*config.Config, *scene.Result, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, nil, err
	}

	player := NewPlayer(cfg.Gravity, s.Events)
	sc, err := scene.FromConfig(cfg, append(opts, scene.WithController(player))...)
	if err != nil {
		return cfg, nil, err
	}

	result, err := sc.Run(ctx, cfg.Frames)
	return cfg, result, err
}
