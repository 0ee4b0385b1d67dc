package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/integrators"
	"github.com/san-kum/softfem/internal/material"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrames     = 100
	DefaultResolution = 8
	DefaultYoung      = 4000.0
	DefaultPoisson    = 0.2
	DefaultDensity    = 40.0
)

type Config struct {
	Dt        float64         `yaml:"dt"`
	Damping   float64         `yaml:"damping"`
	Substeps  int             `yaml:"substeps"`
	Frames    int             `yaml:"frames"`
	Gravity   r2.Vec          `yaml:"gravity"`
	Bar       float64         `yaml:"bar"`
	Policy    string          `yaml:"policy"`
	Attractor AttractorConfig `yaml:"attractor"`
	Bodies    []BodyConfig    `yaml:"bodies"`
}

type AttractorConfig struct {
	Pos      r2.Vec       `yaml:"pos"`
	Strength float64      `yaml:"strength"`
	Orbit    *OrbitConfig `yaml:"orbit,omitempty"`
}

type OrbitConfig struct {
	Center r2.Vec  `yaml:"center"`
	Radius float64 `yaml:"radius"`
	Period float64 `yaml:"period"`
}

type BodyConfig struct {
	Name       string  `yaml:"name"`
	Resolution int     `yaml:"resolution"`
	Young      float64 `yaml:"young"`
	Poisson    float64 `yaml:"poisson"`
	Density    float64 `yaml:"density"`
	Scale      float64 `yaml:"scale"`
	Offset     r2.Vec  `yaml:"offset"`
}

// DefaultBody returns a reference body with the given placement.
func DefaultBody(name string, scale float64, offset r2.Vec) BodyConfig {
	return BodyConfig{
		Name:       name,
		Resolution: DefaultResolution,
		Young:      DefaultYoung,
		Poisson:    DefaultPoisson,
		Density:    DefaultDensity,
		Scale:      scale,
		Offset:     offset,
	}
}

// DefaultConfig is the two-body drop scene.
func DefaultConfig() *Config {
	return &Config{
		Dt:       dynamo.DefaultDt,
		Damping:  dynamo.DefaultDamping,
		Substeps: dynamo.DefaultSubsteps,
		Frames:   DefaultFrames,
		Gravity:  r2.Vec{Y: -1},
		Bar:      integrators.DefaultBarHeight,
		Policy:   material.Clamp.String(),
		Bodies: []BodyConfig{
			DefaultBody("mesh1", 0.25, r2.Vec{X: 0.1, Y: 0.6}),
			DefaultBody("mesh2", 0.2, r2.Vec{X: 0.6, Y: 0.3}),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Bodies = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Bodies) == 0 {
		cfg.Bodies = DefaultConfig().Bodies
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	if c.Attractor.Orbit != nil {
		o := *c.Attractor.Orbit
		out.Attractor.Orbit = &o
	}
	return &out
}

// Step returns the substep parameters.
func (c *Config) Step() dynamo.StepParams {
	return dynamo.StepParams{Dt: c.Dt, Damping: c.Damping}
}

// InversionPolicy parses the configured policy name.
func (c *Config) InversionPolicy() (material.InversionPolicy, error) {
	return material.ParsePolicy(c.Policy)
}

func (c *Config) Validate() error {
	if err := c.Step().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("config: substeps=%d: %w", c.Substeps, dynamo.ErrParameterBounds)
	}
	if c.Frames < 0 {
		return fmt.Errorf("config: frames=%d: %w", c.Frames, dynamo.ErrParameterBounds)
	}
	if !dynamo.IsFinite(c.Gravity) {
		return fmt.Errorf("config: gravity=%v: %w", c.Gravity, dynamo.ErrParameterBounds)
	}
	if math.IsNaN(c.Bar) || math.IsInf(c.Bar, 0) {
		return fmt.Errorf("config: %w", dynamo.BoundsError("bar", c.Bar))
	}
	if _, err := c.InversionPolicy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if o := c.Attractor.Orbit; o != nil {
		if o.Radius < 0 {
			return fmt.Errorf("config: attractor.orbit: %w", dynamo.BoundsError("radius", o.Radius))
		}
		if !(o.Period > 0) {
			return fmt.Errorf("config: attractor.orbit: %w", dynamo.BoundsError("period", o.Period))
		}
	}
	if len(c.Bodies) == 0 {
		return fmt.Errorf("config: no bodies: %w", dynamo.ErrParameterBounds)
	}

	seen := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if err := b.validate(); err != nil {
			return fmt.Errorf("config: bodies[%d]: %w", i, err)
		}
		if seen[b.Name] {
			return fmt.Errorf("config: bodies[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

func (b BodyConfig) validate() error {
	if b.Name == "" {
		return fmt.Errorf("empty name")
	}
	if b.Resolution < 1 {
		return fmt.Errorf("resolution=%d: %w", b.Resolution, dynamo.ErrParameterBounds)
	}
	if _, _, err := material.Lame(b.Young, b.Poisson); err != nil {
		return err
	}
	if !(b.Density > 0) || math.IsInf(b.Density, 0) {
		return dynamo.BoundsError("density", b.Density)
	}
	if !(b.Scale > 0) || math.IsInf(b.Scale, 0) {
		return dynamo.BoundsError("scale", b.Scale)
	}
	if !dynamo.IsFinite(b.Offset) {
		return fmt.Errorf("offset=%v: %w", b.Offset, dynamo.ErrParameterBounds)
	}
	return nil
}
