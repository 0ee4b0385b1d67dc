package scene_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/control"
	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/metrics"
	"github.com/san-kum/softfem/internal/physics"
	"github.com/san-kum/softfem/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ = Describe("Scene", func() {
	var (
		ctx context.Context
		cfg *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = config.DefaultConfig()
	})

	Describe("FromConfig", func() {
		It("builds every configured body at its placement", func() {
			sc, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(sc.BodyNames()).To(Equal([]string{"mesh1", "mesh2"}))
			Expect(sc.Bar()).To(Equal(0.2))
			Expect(sc.Substeps()).To(Equal(200))

			snaps := sc.Snapshots()
			Expect(snaps).To(HaveLen(2))
			Expect(snaps[0].Positions[0]).To(Equal(r2.Vec{X: 0.1, Y: 0.6}))
			Expect(snaps[1].Positions[0]).To(Equal(r2.Vec{X: 0.6, Y: 0.3}))
		})

		It("rejects an invalid configuration", func() {
			cfg.Bodies[0].Poisson = 0.5
			_, err := scene.FromConfig(cfg)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("uses an orbiting attractor when configured", func() {
			sc, err := scene.FromConfig(config.GetPreset("orbit"))
			Expect(err).NotTo(HaveOccurred())
			Expect(sc.Controller()).To(BeAssignableToTypeOf(&control.Orbit{}))
		})
	})

	Describe("Frame", func() {
		It("advances time by one frame of substeps", func() {
			sc, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			initial := []float64{sc.Bodies()[0].LowestY(), sc.Bodies()[1].LowestY()}

			Expect(sc.Frame(ctx)).To(Succeed())
			Expect(sc.FrameCount()).To(Equal(1))
			Expect(sc.Time()).To(BeNumerically("~", 0.01, 1e-12))
			for i, b := range sc.Bodies() {
				Expect(b.Substeps()).To(Equal(200))
				Expect(b.LowestY()).To(BeNumerically("<", initial[i]))
			}
		})

		It("notifies observers with one sample per body", func() {
			var got []metrics.FrameSample
			obs := scene.ObserverFunc(func(_ *scene.Scene, s []metrics.FrameSample) error {
				got = append(got, s...)
				return nil
			})
			sc, err := scene.FromConfig(cfg, scene.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())

			Expect(sc.Frame(ctx)).To(Succeed())
			Expect(got).To(HaveLen(2))
			Expect(got[0].Body).To(Equal("mesh1"))
			Expect(got[1].Body).To(Equal("mesh2"))
			Expect(got[0].Frame).To(Equal(0))
			Expect(got[0].Valid).To(BeTrue())
		})

		It("propagates observer errors", func() {
			boom := errors.New("disk full")
			obs := scene.ObserverFunc(func(*scene.Scene, []metrics.FrameSample) error { return boom })
			sc, err := scene.FromConfig(cfg, scene.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())

			Expect(sc.Frame(ctx)).To(MatchError(boom))
		})

		It("steps bodies independently of each other", func() {
			sc, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			solo := config.DefaultConfig()
			solo.Bodies = solo.Bodies[1:]
			alone, err := scene.FromConfig(solo)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				Expect(sc.Frame(ctx)).To(Succeed())
				Expect(alone.Frame(ctx)).To(Succeed())
			}
			Expect(sc.Snapshots()[1].Positions).To(Equal(alone.Snapshots()[0].Positions))
		})

		It("flags an inverted body and keeps stepping the others", func() {
			cfg.Policy = "flag"
			stability := metrics.NewStability(cfg.Bar, 1e-3)
			sc, err := scene.FromConfig(cfg, scene.WithMetrics(stability))
			Expect(err).NotTo(HaveOccurred())

			mirrored, healthy := sc.Bodies()[0], sc.Bodies()[1]
			Expect(mirrored.Deform(func(p r2.Vec) r2.Vec { return r2.Vec{X: 1 - p.X, Y: p.Y} })).To(Succeed())
			frozen := mirrored.Positions()

			result, err := sc.Run(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Frames).To(Equal(3))
			Expect(sc.FrameCount()).To(Equal(3))
			Expect(result.Samples).To(HaveLen(6))

			for _, fs := range result.Samples {
				Expect(fs.Valid).To(Equal(fs.Body == "mesh2"), "body %s frame %d", fs.Body, fs.Frame)
			}
			Expect(mirrored.Valid()).To(BeFalse())
			Expect(mirrored.Substeps()).To(BeZero())
			Expect(mirrored.Positions()).To(Equal(frozen))
			Expect(healthy.Substeps()).To(Equal(3 * cfg.Substeps))
			Expect(result.Metrics["stability"]).To(BeNumerically("~", 0.5, 1e-12))

			Expect(sc.Reset()).To(Succeed())
			Expect(mirrored.Valid()).To(BeTrue())
		})

		It("aborts the frame on a non-numerical body error", func() {
			b, err := physics.NewSoftBody("loose", physics.DefaultBodyParams())
			Expect(err).NotTo(HaveOccurred())
			sc := scene.New([]*physics.SoftBody{b}, control.NewStatic(r2.Vec{Y: -1}), dynamo.DefaultStepParams(), 1)

			err = sc.Frame(ctx)
			Expect(errors.Is(err, dynamo.ErrNotInitialized)).To(BeTrue())
			Expect(sc.FrameCount()).To(BeZero())
		})

		It("applies gravity chosen through a manual controller", func() {
			m := control.NewManual(r2.Vec{Y: -1})
			m.SetGravityKey("a")
			sc, err := scene.FromConfig(cfg, scene.WithController(m))
			Expect(err).NotTo(HaveOccurred())

			before := sc.Snapshots()[0].Positions[40]
			Expect(sc.Frame(ctx)).To(Succeed())
			after := sc.Snapshots()[0].Positions[40]

			Expect(after.X).To(BeNumerically("<", before.X))
			Expect(after.Y).To(BeNumerically("~", before.Y, 1e-9))
		})
	})

	Describe("Run", func() {
		It("collects samples and metrics", func() {
			sc, err := scene.FromConfig(cfg, scene.WithMetrics(metrics.Defaults(cfg.Bar)...))
			Expect(err).NotTo(HaveOccurred())

			res, err := sc.Run(ctx, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(4))
			Expect(res.Samples).To(HaveLen(8))
			Expect(res.EnergyTrace("mesh2")).To(HaveLen(4))
			Expect(res.TotalEnergy()).To(HaveLen(4))
			Expect(res.Time).To(BeNumerically("~", 0.04, 1e-12))
			Expect(res.FrameDt()).To(BeNumerically("~", 0.01, 1e-12))
			Expect(res.Metrics).To(HaveKey("peak_energy"))
			Expect(res.Metrics).To(HaveKeyWithValue("stability", 1.0))
			Expect(res.Metrics["lowest_y"]).To(BeNumerically("<", 0.3))
		})

		It("is deterministic", func() {
			a, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := scene.FromConfig(config.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			_, err = a.Run(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			_, err = b.Run(ctx, 5)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Snapshots()).To(Equal(b.Snapshots()))
		})

		It("stops on cancellation", func() {
			sc, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := sc.Run(cctx, 10)
			Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
			Expect(res.Frames).To(Equal(0))
		})

		It("rejects a negative frame count", func() {
			sc, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = sc.Run(ctx, -1)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})
	})

	Describe("Reset", func() {
		It("restores the initial placement", func() {
			sc, err := scene.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			initial := sc.Snapshots()

			_, err = sc.Run(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(sc.Snapshots()).NotTo(Equal(initial))

			Expect(sc.Reset()).To(Succeed())
			Expect(sc.FrameCount()).To(Equal(0))
			Expect(sc.Time()).To(Equal(0.0))
			Expect(sc.Snapshots()).To(Equal(initial))
		})
	})

	It("accepts hand-built bodies", func() {
		b, err := physics.NewSoftBody("solo", physics.DefaultBodyParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Initialize(0.2, r2.Vec{X: 0.4, Y: 0.5})).To(Succeed())

		sc := scene.New([]*physics.SoftBody{b}, control.NewStatic(r2.Vec{Y: -1}), dynamo.DefaultStepParams(), 10)
		Expect(sc.Frame(ctx)).To(Succeed())
		Expect(b.Substeps()).To(Equal(10))
	})
})
