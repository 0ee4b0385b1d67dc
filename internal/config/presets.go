package config

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

var Presets = map[string]*Config{
	"fem128": DefaultConfig(),
	"single": func() *Config {
		c := DefaultConfig()
		c.Bodies = c.Bodies[:1]
		return c
	}(),
	"stiff": func() *Config {
		c := DefaultConfig()
		for i := range c.Bodies {
			c.Bodies[i].Young = 40000
		}
		return c
	}(),
	"jelly": func() *Config {
		c := DefaultConfig()
		c.Damping = 6
		for i := range c.Bodies {
			c.Bodies[i].Young = 2000
			c.Bodies[i].Poisson = 0.3
		}
		return c
	}(),
	"orbit": func() *Config {
		c := DefaultConfig()
		c.Frames = 200
		c.Gravity = r2.Vec{}
		c.Bodies = []BodyConfig{DefaultBody("mesh1", 0.2, r2.Vec{X: 0.4, Y: 0.45})}
		c.Attractor = AttractorConfig{
			Strength: 1,
			Orbit:    &OrbitConfig{Center: r2.Vec{X: 0.5, Y: 0.55}, Radius: 0.3, Period: 2},
		}
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
