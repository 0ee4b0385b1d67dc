// Package scene drives a set of soft bodies through frames of substeps.
//
// A [Scene] samples its [control.Controller] once at the start of each frame,
// steps every body for the configured number of substeps concurrently, and
// then reports one [metrics.FrameSample] per body to its metrics and
// observers.
//
// # Example
//
//	sc, err := scene.FromConfig(config.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	result, err := sc.Run(ctx, 100)
//
// # Thread Safety
//
// A Scene is driven from a single goroutine. Bodies within a frame run in
// parallel and share no mutable state.
package scene
