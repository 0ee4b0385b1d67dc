package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/softfem/internal/analysis"
	"github.com/san-kum/softfem/internal/automation"
	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/control"
	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/export"
	"github.com/san-kum/softfem/internal/physics"
	"github.com/san-kum/softfem/internal/scene"
	"github.com/san-kum/softfem/internal/storage"
	"github.com/san-kum/softfem/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

const defaultPreset = "fem128"

var (
	dataDir    string
	logLevel   string
	configFile string
	frames     int
	dt         float64
	damping    float64
	substeps   int
	policy     string
	runSVGDir  string
	liveSVGDir string
	svgDir     string
	theme      string
	bodyName   string
	svgOut     string
	outFile    string
	benchIters int
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "softfem",
		Short:         "2D soft-body FEM lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(lvl)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".softfem/runs", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scene headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&runSVGDir, "svg-dir", "", "write one SVG per frame into this directory")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scene interactively in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "classic", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	liveCmd.Flags().StringVar(&liveSVGDir, "svg-dir", "svg", "directory for frames saved with p")

	svgCmd := &cobra.Command{
		Use:   "svg [preset]",
		Short: "render every frame of a scene to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderSVG,
	}
	addSceneFlags(svgCmd)
	svgCmd.Flags().StringVar(&svgDir, "svg-dir", "export", "output directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "", "body to plot (default: every body)")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the trace as SVG to this file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and phase analysis of a run's energy",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&bodyName, "body", "", "body to analyze (default: total energy)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark substep throughput per mesh resolution",
		Args:  cobra.NoArgs,
		RunE:  benchSubsteps,
	}
	benchCmd.Flags().IntVar(&benchIters, "iters", 2000, "substeps per resolution")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep a body parameter and report run metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "young", "body parameter (young, poisson, density)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 2000, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8000, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 4, "number of values")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "replay a YAML input script headless and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scene presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, svgCmd, listCmd, plotCmd, exportCmd, analyzeCmd, benchCmd, sweepCmd, scriptCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	cmd.Flags().Float64Var(&dt, "dt", dynamo.DefaultDt, "substep size")
	cmd.Flags().Float64Var(&damping, "damping", dynamo.DefaultDamping, "velocity damping rate")
	cmd.Flags().IntVar(&substeps, "substeps", dynamo.DefaultSubsteps, "substeps per frame")
	cmd.Flags().StringVar(&policy, "policy", "clamp", "inversion policy (clamp, flag)")
}

// loadConfig picks the preset named by args (or the config file), then
// applies the scene flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name := defaultPreset
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return "", nil, err
		}
		cfg = c
		if len(args) == 0 {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	} else {
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("damping") {
		cfg.Damping = damping
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	return name, cfg, cfg.Validate()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScene(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	opts := []scene.Option{scene.WithLogger(logger.WithPrefix("scene"))}
	if runSVGDir != "" {
		fw, err := export.NewFrameWriter(runSVGDir, sceneSVGOptions(cfg))
		if err != nil {
			return err
		}
		opts = append(opts, scene.WithObserver(fw))
	}

	sc, err := scene.FromConfig(cfg, opts...)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running scene", "name", name, "bodies", len(cfg.Bodies), "frames", cfg.Frames)
	result, runErr := sc.Run(ctx, cfg.Frames)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("run stopped early", "frames", result.Frames, "err", runErr)
	}

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}

	printResult(runID, result)
	return runErr
}

func printResult(runID string, result *scene.Result) {
	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d (%.3fs simulated)\n", result.Frames, result.Time)
	fmt.Println("\nmetrics:")
	for _, k := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", k, result.Metrics[k])
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	name := script.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("playing script", "name", name, "events", len(script.Events))
	cfg, result, runErr := automation.Run(ctx, script, scene.WithLogger(logger.WithPrefix("scene")))
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("script stopped early", "frames", result.Frames, "err", runErr)
	}

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	printResult(runID, result)
	return runErr
}

func sceneSVGOptions(cfg *config.Config) export.Options {
	opts := export.DefaultOptions()
	opts.Bar = cfg.Bar
	return opts
}

func runLive(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctrl := control.NewManual(cfg.Gravity)
	sc, err := scene.FromConfig(cfg,
		scene.WithLogger(logger.WithPrefix("scene")),
		scene.WithController(ctrl),
	)
	if err != nil {
		return err
	}
	return viz.Run(sc, ctrl, theme, liveSVGDir)
}

func renderSVG(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	fw, err := export.NewFrameWriter(svgDir, sceneSVGOptions(cfg))
	if err != nil {
		return err
	}
	sc, err := scene.FromConfig(cfg, scene.WithLogger(logger.WithPrefix("scene")), scene.WithObserver(fw))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("rendering", "name", name, "frames", cfg.Frames, "dir", svgDir)
	if _, err := sc.Run(ctx, cfg.Frames); err != nil {
		return err
	}
	fmt.Printf("wrote %d frames to %s\n", fw.Written, svgDir)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tFRAMES\tDURATION\tBODIES\tPOLICY")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3fs\t%s\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Duration,
			strings.Join(run.Bodies, ","),
			run.Policy,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", meta.Frames)

	names := meta.Bodies
	if bodyName != "" {
		names = []string{bodyName}
	}

	for _, name := range names {
		trace := storage.EnergyTrace(samples, name)
		if len(trace) == 0 {
			return fmt.Errorf("no samples for body %q", name)
		}
		graph := asciigraph.Plot(trace,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s energy", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgOut != "" {
		trace := storage.EnergyTrace(samples, bodyName)
		svg := export.TraceSVG(trace, 640, 240, "#ff6600")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		logger.Info("wrote trace", "path", svgOut)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		if err := st.ExportJSONFile(outFile, args[0]); err != nil {
			return err
		}
		logger.Info("exported run", "id", args[0], "path", outFile)
		return nil
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	trace := storage.EnergyTrace(samples, bodyName)
	label := bodyName
	if label == "" {
		label = "total"
	}

	fmt.Printf("energy analysis: %s (%s)\n\n", meta.ID, label)

	frameDt := meta.FrameDt()
	freq, err := analysis.DominantFrequency(trace, frameDt)
	if err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(trace)
	graph := asciigraph.Plot(ps[1:],
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	fmt.Println("\nphase portrait (U vs dU/dt):")
	fmt.Println(analysis.PhasePortraitToASCII(analysis.EnergyPhase(trace, frameDt), 60, 20))
	return nil
}

func benchSubsteps(cmd *cobra.Command, args []string) error {
	if benchIters < 1 {
		return fmt.Errorf("iters=%d: %w", benchIters, dynamo.ErrParameterBounds)
	}

	forces := dynamo.Forces{Gravity: config.DefaultConfig().Gravity}
	p := dynamo.DefaultStepParams()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tVERTICES\tFACES\tSUBSTEPS\tTIME\tSUBSTEPS/SEC")

	for _, n := range []int{8, 16, 32, 64} {
		params := physics.DefaultBodyParams()
		params.Resolution = n
		b, err := physics.NewSoftBody("bench", params)
		if err != nil {
			return err
		}
		if err := b.Initialize(0.25, r2.Vec{X: 0.1, Y: 0.6}); err != nil {
			return err
		}

		start := time.Now()
		if err := b.Frame(forces, p, benchIters); err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%.0f\n",
			n, b.NumVertices(), b.NumFaces(), benchIters, elapsed, float64(benchIters)/elapsed.Seconds())
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("sweeping", "scene", name, "param", sweepParam, "min", sweepMin, "max", sweepMax, "steps", sweepSteps)
	points, err := analysis.Sweep(ctx, cfg, sweepParam, sweepMin, sweepMax, sweepSteps, cfg.Frames)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK_U\tFINAL_U\tLOWEST_Y\tSTABILITY\n", strings.ToUpper(sweepParam))
	for _, pt := range points {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4f\t%.2f\n",
			pt.Param, pt.PeakEnergy, pt.FinalEnergy, pt.LowestY, pt.Stability)
	}
	return w.Flush()
}
