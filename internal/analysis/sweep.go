package analysis

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/metrics"
	"github.com/san-kum/softfem/internal/scene"
	"golang.org/x/sync/errgroup"
)

// SweepPoint is the outcome of one run of a parameter sweep.
type SweepPoint struct {
	Param       float64
	PeakEnergy  float64
	FinalEnergy float64
	LowestY     float64
	Stability   float64
}

// Sweep runs base once for each of steps values of a body parameter in
// [min, max], applied to every body, and records the run metrics. Runs
// execute concurrently.
func Sweep(ctx context.Context, base *config.Config, param string, min, max float64, steps, frames int) ([]SweepPoint, error) {
	if steps < 1 {
		return nil, fmt.Errorf("sweep: steps=%d must be positive", steps)
	}
	stride := 0.0
	if steps > 1 {
		stride = (max - min) / float64(steps-1)
	}

	points := make([]SweepPoint, steps)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < steps; i++ {
		i := i // per-iteration copy; go directive is below 1.22
		value := min + float64(i)*stride
		g.Go(func() error {
			sc, err := scene.FromConfig(base.Clone(), scene.WithMetrics(metrics.Defaults(base.Bar)...))
			if err != nil {
				return err
			}
			for _, b := range sc.Bodies() {
				if err := b.SetParam(param, value); err != nil {
					return fmt.Errorf("sweep %s=%g: %w", param, value, err)
				}
			}
			res, err := sc.Run(gctx, frames)
			if err != nil {
				return fmt.Errorf("sweep %s=%g: %w", param, value, err)
			}
			points[i] = SweepPoint{
				Param:       value,
				PeakEnergy:  res.Metrics["peak_energy"],
				FinalEnergy: res.Metrics["final_energy"],
				LowestY:     res.Metrics["lowest_y"],
				Stability:   res.Metrics["stability"],
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
