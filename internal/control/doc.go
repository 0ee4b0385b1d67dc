// Package control provides the sources of scene-wide external forces.
//
// Controllers implement [Controller] and are sampled once per frame:
//
//   - [Static]: constant gravity, no attractor
//   - [Manual]: gravity and attractor driven by keyboard and mouse
//   - [Orbit]: an attractor circling a fixed centre
//
// # Usage
//
//	ctrl := control.NewManual(r2.Vec{Y: -1})
//	ctrl.SetGravityKey("a")             // gravity now points left
//	ctrl.Attract(r2.Vec{X: 0.5, Y: 0.5})
//	forces := ctrl.Compute(t)
//
// [Manual] is safe for concurrent use, so a UI goroutine may update it while
// the scene samples it.
package control
