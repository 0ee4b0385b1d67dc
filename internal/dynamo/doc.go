// Package dynamo provides core primitives shared by the soft-body simulator.
//
// The package defines the small value types and helpers every layer uses:
//
//   - [Mat2]: row-major 2x2 matrix used for deformation gradients
//   - [Forces]: scene-wide external forces injected into each substep
//   - [StepParams]: timestep and damping of one explicit substep
//   - [ParallelFor]: chunked data-parallel loop over element/vertex arenas
//   - sentinel errors and [SimulationError]
//
// # Example
//
//	body, _ := physics.NewSoftBody("jelly", physics.DefaultBodyParams())
//	_ = body.Initialize(0.25, r2.Vec{X: 0.1, Y: 0.6})
//	f := dynamo.Forces{Gravity: r2.Vec{Y: -1}}
//	err := body.Substep(f, dynamo.DefaultStepParams())
//
// # Thread Safety
//
// Values in this package are plain data. A body is NOT safe for concurrent
// substeps; distinct bodies may be stepped in parallel.
package dynamo
