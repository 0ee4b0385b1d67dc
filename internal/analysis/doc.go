// Package analysis provides post-run tools for energy traces and parameter
// studies.
//
//   - [PowerSpectrum]: one-sided power spectrum of a trace
//   - [DominantFrequency]: strongest oscillation frequency, in Hz of
//     simulated time
//   - [EnergyPhase]: (U, dU/dt) phase portrait of a trace
//   - [Sweep]: runs a scene once per value of a body parameter
//
// # Ringing
//
// A body that lands on the bar oscillates before damping settles it; the
// ringing frequency shows up as the spectrum peak:
//
//	f, err := analysis.DominantFrequency(result.TotalEnergy(), result.FrameDt())
package analysis
