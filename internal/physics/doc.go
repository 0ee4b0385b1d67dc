// Package physics provides the elastodynamics core for 2D soft bodies.
//
// A [SoftBody] owns a regular triangle grid, its Neo-Hookean material and
// the vertex state arenas. Each substep runs the [Assembler], which derives
// per-element deformation gradients, energy densities and the nodal forces
// -dU/dx, and then the explicit integrator:
//
//   - [Assembler]: total elastic energy U and its gradient
//   - [SoftBody]: initialization, substeps, snapshots
//   - [MeshSnapshot]: an unaliased copy of a body for rendering
//
// SoftBody implements [dynamo.Configurable] for the material parameters.
//
// # Example
//
//	body, err := physics.NewSoftBody("mesh1", physics.DefaultBodyParams())
//	if err != nil {
//	    return err
//	}
//	if err := body.Initialize(0.25, r2.Vec{X: 0.1, Y: 0.6}); err != nil {
//	    return err
//	}
//	f := dynamo.Forces{Gravity: r2.Vec{Y: -1}}
//	err = body.Frame(f, dynamo.DefaultStepParams(), dynamo.DefaultSubsteps)
//
// # Thread Safety
//
// A body must be stepped from one goroutine at a time. Different bodies
// share no state and may be stepped concurrently.
package physics
