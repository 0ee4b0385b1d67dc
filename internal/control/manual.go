package control

import (
	"strings"
	"sync"

	"github.com/san-kum/softfem/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Manual holds user-controlled gravity and attractor state.
type Manual struct {
	mu       sync.RWMutex
	gravity  r2.Vec
	initial  r2.Vec
	pos      r2.Vec
	strength float64
}

func NewManual(gravity r2.Vec) *Manual {
	return &Manual{gravity: gravity, initial: gravity}
}

// GravityForKey maps WASD and arrow keys to unit gravity directions.
func GravityForKey(key string) (r2.Vec, bool) {
	switch strings.ToLower(key) {
	case "w", "up":
		return r2.Vec{Y: 1}, true
	case "a", "left":
		return r2.Vec{X: -1}, true
	case "s", "down":
		return r2.Vec{Y: -1}, true
	case "d", "right":
		return r2.Vec{X: 1}, true
	}
	return r2.Vec{}, false
}

// SetGravityKey points gravity along the key's direction. It reports whether
// the key was recognized.
func (m *Manual) SetGravityKey(key string) bool {
	g, ok := GravityForKey(key)
	if !ok {
		return false
	}
	m.SetGravity(g)
	return true
}

func (m *Manual) SetGravity(g r2.Vec) {
	m.mu.Lock()
	m.gravity = g
	m.mu.Unlock()
}

func (m *Manual) Gravity() r2.Vec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gravity
}

// Attract pulls every vertex toward pos.
func (m *Manual) Attract(pos r2.Vec) { m.set(pos, DefaultStrength) }

// Repel pushes every vertex away from pos.
func (m *Manual) Repel(pos r2.Vec) { m.set(pos, -DefaultStrength) }

// Release switches the attractor off.
func (m *Manual) Release() { m.set(r2.Vec{}, 0) }

func (m *Manual) set(pos r2.Vec, strength float64) {
	m.mu.Lock()
	m.pos, m.strength = pos, strength
	m.mu.Unlock()
}

// Reset restores the initial gravity and releases the attractor.
func (m *Manual) Reset() {
	m.mu.Lock()
	m.gravity = m.initial
	m.pos, m.strength = r2.Vec{}, 0
	m.mu.Unlock()
}

func (m *Manual) Compute(t float64) dynamo.Forces {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return dynamo.Forces{Gravity: m.gravity, AttractorPos: m.pos, AttractorStrength: m.strength}
}
