package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/tubone24/monte-carlo-3d-app/internal/analysis"
	"github.com/tubone24/monte-carlo-3d-app/internal/automation"
	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/compute"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/experiment"
	"github.com/tubone24/monte-carlo-3d-app/internal/export"
	"github.com/tubone24/monte-carlo-3d-app/internal/metrics"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
	"github.com/tubone24/monte-carlo-3d-app/internal/physics"
	"github.com/tubone24/monte-carlo-3d-app/internal/storage"
	"github.com/tubone24/monte-carlo-3d-app/internal/stream"
	"github.com/tubone24/monte-carlo-3d-app/internal/tune"
	"github.com/tubone24/monte-carlo-3d-app/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	massRatio  float64
	theme      string
	sound      bool
	addr       string
	windSpeed  float64
	windDeg    float64
	// Headless run cadence
	durationS float64
	dtMs      int64
	sampleMs  int64
	numRuns   int
	// Sweep / tune
	ratioList  string
	frameMs    float64
	maxFrames  int
	saveRuns   bool
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	// Analyze
	maxSamples int
	svgPath    string
	// Export
	format string
	// Snapshot
	outPath    string
	canvasPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pilab",
		Short: "monte carlo π lab: falling balls and colliding blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := labConfig(cmd)
			if err != nil {
				return err
			}
			return viz.RunInteractive(cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pilab", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run both engines with live visualization",
		RunE:  runLive,
	}
	liveCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	liveCmd.Flags().Float64Var(&massRatio, "ratio", 100, "block mass ratio")
	liveCmd.Flags().StringVar(&theme, "theme", "dark", "color theme")
	liveCmd.Flags().BoolVar(&sound, "sound", false, "enable sound")
	liveCmd.Flags().Float64Var(&windSpeed, "wind", 0, "horizontal wind speed in m/s")
	liveCmd.Flags().Float64Var(&windDeg, "wind-deg", 0, "wind heading in degrees, from +x toward +z")

	runCmd := &cobra.Command{
		Use:   "run [experiment]",
		Short: "run an experiment headless and save it",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
	runCmd.Flags().Float64Var(&durationS, "time", 30.0, "duration in seconds")
	runCmd.Flags().Int64Var(&dtMs, "dt-ms", 16, "tick size in milliseconds")
	runCmd.Flags().Int64Var(&sampleMs, "sample-ms", 250, "sample cadence in milliseconds")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	runCmd.Flags().Float64Var(&massRatio, "ratio", 100, "block mass ratio")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "ensemble size")
	runCmd.Flags().Float64Var(&windSpeed, "wind", 0, "horizontal wind speed in m/s")
	runCmd.Flags().Float64Var(&windDeg, "wind-deg", 0, "wind heading in degrees, from +x toward +z")

	collideCmd := &cobra.Command{
		Use:   "collide",
		Short: "run the colliding blocks to rest and report the count",
		RunE:  runCollide,
	}
	collideCmd.Flags().Float64Var(&massRatio, "ratio", 100, "block mass ratio")
	collideCmd.Flags().Float64Var(&frameMs, "frame-ms", 16, "frame size in milliseconds")
	collideCmd.Flags().Float64Var(&durationS, "time", 300.0, "frame budget in simulated seconds")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep mass ratios, or one atmosphere parameter",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&ratioList, "ratios", "1,100,10000,1000000", "comma-separated mass ratios")
	sweepCmd.Flags().Float64Var(&durationS, "time", 300.0, "frame budget per point in simulated seconds")
	sweepCmd.Flags().Int64Var(&dtMs, "dt-ms", 16, "tick size in milliseconds")
	sweepCmd.Flags().BoolVar(&saveRuns, "save", false, "save each run to the data directory")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "sweep an atmosphere parameter instead of ratios")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "parameter range start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "parameter range end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "points across the range")

	lessonCmd := &cobra.Command{
		Use:   "lesson [file.yaml]",
		Short: "run a scripted lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  runLesson,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "convergence analysis of a saved run, or of direct sampling",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeConvergence,
	}
	analyzeCmd.Flags().IntVar(&maxSamples, "samples", 1_000_000, "direct sampler budget")
	analyzeCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	analyzeCmd.Flags().StringVar(&svgPath, "svg", "", "write convergence plot SVG to path")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write convergence plot SVG to path")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "run the board headless and export it as SVG",
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().Float64Var(&durationS, "time", 20.0, "duration in seconds")
	snapshotCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	snapshotCmd.Flags().StringVar(&outPath, "out", "board.svg", "top-down board SVG path")
	snapshotCmd.Flags().StringVar(&canvasPath, "canvas", "", "also write the 3D terminal view as SVG")
	snapshotCmd.Flags().Float64Var(&windSpeed, "wind", 0, "horizontal wind speed in m/s")
	snapshotCmd.Flags().Float64Var(&windDeg, "wind-deg", 0, "wind heading in degrees, from +x toward +z")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the lab headless and stream telemetry over websocket",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().Float64Var(&windSpeed, "wind", 0, "horizontal wind speed in m/s")
	serveCmd.Flags().Float64Var(&windDeg, "wind-deg", 0, "wind heading in degrees, from +x toward +z")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search the quiet-stop thresholds",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&ratioList, "ratios", "100,10000", "mass ratios the net must not cut short")
	tuneCmd.Flags().Float64Var(&frameMs, "frame-ms", 16, "frame size in milliseconds")
	tuneCmd.Flags().IntVar(&maxFrames, "max-frames", 40000, "frame budget per candidate run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(liveCmd, runCmd, collideCmd, sweepCmd, lessonCmd, analyzeCmd,
		plotCmd, runsCmd, exportCmd, snapshotCmd, serveCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// labConfig layers preset, config file, environment and flags, in that
// order, then validates the result.
func labConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	if cmd.Flags().Changed("seed") {
		cfg.Scene.Seed = seed
	}
	if cmd.Flags().Changed("ratio") {
		cfg.Collision.MassRatio = massRatio
	}
	if cmd.Flags().Changed("theme") {
		cfg.Theme = theme
	}
	if cmd.Flags().Changed("sound") {
		cfg.Sound = sound
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addr
	}
	// Polar wind flags compose: heading alone rotates the configured
	// wind, speed alone rescales it.
	if cmd.Flags().Changed("wind-deg") {
		if err := cfg.Atmosphere.SetParam("windDir", windDeg); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("wind") {
		if err := cfg.Atmosphere.SetParam("windSpeed", windSpeed); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := labConfig(cmd)
	if err != nil {
		return err
	}
	return viz.RunLive(cfg)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := labConfig(cmd)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	runCfg := experiment.Config{
		DtMs:          dtMs,
		DurationMs:    int64(durationS * 1000),
		SampleEveryMs: sampleMs,
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	if numRuns > 1 {
		return runEnsemble(reg, cfg, st, name, runCfg)
	}

	exp, err := reg.Build(name, cfg, runCfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %s experiment...\n", name)
	start := time.Now()

	res, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Scene.Seed, cfg.Collision.MassRatio, res)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, samples: %d\n", res.Steps, len(res.TimesMs))
	reportMetrics(name, res)
	return nil
}

func runEnsemble(reg *experiment.Registry, cfg *config.Config, st *storage.Store, name string, runCfg experiment.Config) error {
	ens := experiment.NewEnsemble(reg, name, cfg, numRuns, cfg.Scene.Seed)

	fmt.Printf("running %d %s runs (seeds %d..%d)...\n", numRuns, name, cfg.Scene.Seed, cfg.Scene.Seed+int64(numRuns)-1)
	start := time.Now()

	results, err := ens.Run(context.Background(), runCfg)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tPI\tERROR%\tRUN")

	var sum, sumSq float64
	for i, res := range results {
		runSeed := cfg.Scene.Seed + int64(i)
		runID, err := st.Save(runSeed, cfg.Collision.MassRatio, res)
		if err != nil {
			return err
		}
		pi := res.Last("pi")
		sum += pi
		sumSq += pi * pi
		fmt.Fprintf(w, "%d\t%.6f\t%+.4f\t%s\n", runSeed, pi, res.Last("error_pct"), runID)
	}
	w.Flush()

	n := float64(len(results))
	mean := sum / n
	std := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
	fmt.Printf("\nmean π: %.6f  std: %.6f  (true π = %.6f)\n", mean, std, math.Pi)
	return nil
}

// reportMetrics folds the sampled series through the run-level metrics.
func reportMetrics(name string, res *experiment.Result) {
	type binding struct {
		metric metrics.Metric
		series string
	}

	var bindings []binding
	switch name {
	case "scene":
		bindings = []binding{
			{metrics.NewPiError(), "pi"},
			{metrics.NewLandedRate(), "total"},
		}
	case "collision":
		bindings = []binding{
			{metrics.NewPiError(), "pi"},
			{metrics.NewEnergyDrift(), "energy"},
		}
	}
	if len(bindings) == 0 {
		return
	}

	fmt.Println("\nmetrics:")
	for _, b := range bindings {
		vs := res.Series[b.series]
		for i, v := range vs {
			if i < len(res.TimesMs) {
				b.metric.Observe(v, float64(res.TimesMs[i]))
			}
		}
		fmt.Printf("  %s: %.6f\n", b.metric.Name(), b.metric.Value())
	}
}

func runCollide(cmd *cobra.Command, args []string) error {
	cfg, err := labConfig(cmd)
	if err != nil {
		return err
	}

	s, err := collision.New(cfg.Collision)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}

	budget := int(durationS * 1000 / frameMs)
	fmt.Printf("colliding blocks at ratio %g (expected %d clicks)...\n",
		cfg.Collision.MassRatio, s.Stats().Expected)
	start := time.Now()

	for i := 0; i < budget && s.State() == collision.Running; i++ {
		s.Step(frameMs)
	}
	elapsed := time.Since(start)

	st := s.Stats()
	fmt.Printf("\nstate: %s\n", st.State)
	fmt.Printf("count: %d / %d expected\n", st.Count, st.Expected)
	fmt.Printf("as π: %s (%d digits match)\n", analysis.DigitString(st.Count), analysis.MatchedDigits(st.Count))
	fmt.Printf("π estimate: %.8f (error %+.6f%%)\n", st.PiEstimate, st.ErrorPct)
	fmt.Printf("energy drift: %.2e, anomalies: %d\n", st.EnergyDriftRel, st.Anomalies)
	fmt.Printf("simulated %.1fs in %v\n", st.SimTimeS, elapsed)

	if st.State == collision.Running {
		fmt.Println("\nframe budget exhausted before the blocks settled; raise --time")
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := labConfig(cmd)
	if err != nil {
		return err
	}

	if sweepParam != "" {
		return runParamSweep(cfg)
	}

	ratios, err := parseRatios(ratioList)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	runCfg := experiment.Config{
		DtMs:          dtMs,
		DurationMs:    int64(durationS * 1000),
		SampleEveryMs: 1000,
	}

	var st *storage.Store
	if saveRuns {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RATIO\tEXPECTED\tCOUNT\tAS π\tDIGITS\tERROR%\tSTATE\tTIME")

	for _, ratio := range ratios {
		lab := *cfg
		lab.Collision.MassRatio = ratio

		exp, err := reg.Build("collision", &lab, runCfg)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := exp.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		blocks, ok := exp.System().(*collision.Simulator)
		if !ok {
			return fmt.Errorf("collision experiment built unexpected system")
		}
		bs := blocks.Stats()

		fmt.Fprintf(w, "%g\t%d\t%d\t%s\t%d\t%+.4f\t%s\t%v\n",
			ratio, bs.Expected, bs.Count,
			analysis.DigitString(bs.Count), analysis.MatchedDigits(bs.Count),
			bs.ErrorPct, bs.State, elapsed.Round(time.Millisecond))

		if st != nil {
			if _, err := st.Save(lab.Scene.Seed, ratio, res); err != nil {
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}

	// Physics-free baseline for scale: what pure uniform sampling gives
	// at a comparable n.
	sampler := compute.NewDirectSampler(cfg.Scene.Seed)
	sampler.SampleParallel(1_000_000)
	fmt.Printf("\ndirect sampler baseline: π̂=%.6f at n=%d\n", sampler.Estimate(), sampler.Total())
	return nil
}

// runParamSweep varies one atmosphere parameter on the scene and shows
// how the estimate and the landing rate respond.
func runParamSweep(cfg *config.Config) error {
	sweep := &automation.Sweep{
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Steps:     sweepSteps,
		DurationS: durationS,
	}

	points, err := automation.RunSweep(context.Background(), sweep, experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPI\tERROR%%\tLANDED\n", strings.ToUpper(sweepParam))
	errs := make([]float64, len(points))
	for i, p := range points {
		errs[i] = math.Abs(p.ErrorPct)
		fmt.Fprintf(w, "%.3f\t%.6f\t%+.4f\t%.0f\n", p.Value, p.Pi, p.ErrorPct, p.Landed)
	}
	w.Flush()

	fmt.Println()
	fmt.Println(asciigraph.Plot(errs,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("|error %%| vs %s", sweepParam)),
	))
	return nil
}

func runLesson(cmd *cobra.Command, args []string) error {
	lesson, err := automation.LoadLesson(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("lesson: %s\n", lesson.Name)
	if lesson.Description != "" {
		fmt.Println(lesson.Description)
	}
	fmt.Println()

	start := time.Now()
	results, err := automation.RunLesson(context.Background(), lesson, experiment.NewRegistry(), st)
	if err != nil {
		return err
	}
	fmt.Printf("\ncompleted %d steps in %v\n\n", len(results), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tEXPERIMENT\tPI\tSAMPLES\tRUN")
	for _, sr := range results {
		fmt.Fprintf(w, "%d\t%s\t%.6f\t%d\t%s\n",
			sr.Step, sr.Experiment, sr.Result.Last("pi"), len(sr.Result.TimesMs), sr.RunID)
	}
	return w.Flush()
}

func analyzeConvergence(cmd *cobra.Command, args []string) error {
	var points []analysis.ConvergencePoint
	var source string

	if len(args) == 1 {
		st := storage.New(dataDir)
		meta, err := st.Load(args[0])
		if err != nil {
			return err
		}
		_, series, err := st.LoadSamples(args[0])
		if err != nil {
			return err
		}

		totals, pis := series["total"], series["pi"]
		if len(totals) == 0 || len(pis) == 0 {
			return fmt.Errorf("run %s has no total/pi series; analyze works on scene runs", args[0])
		}
		ns := make([]int, len(totals))
		for i, t := range totals {
			ns[i] = int(t)
		}
		points = analysis.SeriesFromEstimates(ns, pis)
		source = fmt.Sprintf("run %s (%s)", meta.ID, meta.Experiment)
	} else {
		points = directConvergence()
		source = fmt.Sprintf("direct sampler, seed %d", seed)
	}

	fmt.Printf("convergence analysis: %s\n", source)
	fmt.Printf("points: %d\n\n", len(points))

	errs := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Error > 0 {
			errs = append(errs, math.Log10(p.Error))
		}
	}
	if len(errs) >= 2 {
		graph := asciigraph.Plot(errs,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("log10 |error| per checkpoint"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	slope, intercept, ok := analysis.FitSlope(points)
	if !ok {
		return fmt.Errorf("not enough usable points to fit a slope")
	}

	fmt.Printf("fitted slope: %.3f (theory: %.1f)\n", slope, analysis.ExpectedMonteCarloSlope)
	fmt.Printf("intercept: %.3f\n", intercept)
	if math.Abs(slope-analysis.ExpectedMonteCarloSlope) < 0.15 {
		fmt.Println("verdict: healthy n^(-1/2) convergence")
	} else {
		fmt.Println("verdict: off the n^(-1/2) line; estimator may be biased or under-sampled")
	}

	if svgPath != "" {
		svg := export.ConvergenceToSVG(points, 640, 360)
		if svg == "" {
			return fmt.Errorf("not enough points for an SVG plot")
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

// directConvergence runs the dartboard sampler with doubling checkpoints.
func directConvergence() []analysis.ConvergencePoint {
	sampler := compute.NewDirectSampler(seed)

	var ns []int
	var estimates []float64
	for n := 256; n <= maxSamples; n *= 2 {
		sampler.SampleParallel(n - int(sampler.Total()))
		ns = append(ns, int(sampler.Total()))
		estimates = append(estimates, sampler.Estimate())
	}
	return analysis.SeriesFromEstimates(ns, estimates)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, series, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("experiment: %s, seed %d, ratio %g\n\n", meta.Experiment, meta.Seed, meta.MassRatio)

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		graph := asciigraph.Plot(series[name],
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
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
	fmt.Fprintln(w, "ID\tEXPERIMENT\tTIME\tSEED\tRATIO\tSTEPS\tPI")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%d\t%.6f\n",
			run.ID,
			run.Experiment,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.MassRatio,
			run.Steps,
			run.Final["pi"],
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if svgPath != "" {
		_, series, err := st.LoadSamples(runID)
		if err != nil {
			return err
		}
		totals, pis := series["total"], series["pi"]
		ns := make([]int, len(totals))
		for i, t := range totals {
			ns[i] = int(t)
		}
		points := analysis.SeriesFromEstimates(ns, pis)
		svg := export.ConvergenceToSVG(points, 640, 360)
		if svg == "" {
			return fmt.Errorf("run %s has no usable convergence series", runID)
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
		return nil
	}

	switch format {
	case "json":
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)

	case "csv":
		times, series, err := st.LoadSamples(runID)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(series))
		for name := range series {
			names = append(names, name)
		}
		sort.Strings(names)

		w := csv.NewWriter(os.Stdout)
		defer w.Flush()

		if err := w.Write(append([]string{"time_ms"}, names...)); err != nil {
			return err
		}
		for i, t := range times {
			row := []string{strconv.FormatInt(t, 10)}
			for _, name := range names {
				vs := series[name]
				if i < len(vs) {
					row = append(row, strconv.FormatFloat(vs[i], 'f', 6, 64))
				} else {
					row = append(row, "0")
				}
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown format: %s (want json or csv)", format)
	}
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := labConfig(cmd)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	runCfg := experiment.Config{DtMs: 16, DurationMs: int64(durationS * 1000), SampleEveryMs: 1000}

	exp, err := reg.Build("scene", cfg, runCfg)
	if err != nil {
		return err
	}

	fmt.Printf("dropping balls for %.0fs of simulated time...\n", durationS)
	if _, err := exp.Run(context.Background()); err != nil {
		return err
	}

	scene, ok := exp.System().(*montecarlo.Simulation)
	if !ok {
		return fmt.Errorf("scene experiment built unexpected system")
	}

	svg := export.BoardToSVG(scene, 640)
	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	st := scene.Stats()
	fmt.Printf("wrote %s (n=%d, π̂=%.5f)\n", outPath, st.TotalBalls, st.PiEstimate)

	if canvasPath != "" {
		canvas := viz.NewCanvas(80, 36)
		cam := viz.NewCamera()
		wf := viz.NewWireframe()
		wf.Edges = append(wf.Edges, viz.BoardWireframe(scene.CircleRadius(), 48).Edges...)
		scene.ForEach(func(id uint64, b *physics.Ball, inside bool) {
			wf.AddPoint(b.Pos)
		})
		viz.Render3D(canvas, wf, cam)
		if err := os.WriteFile(canvasPath, []byte(export.CanvasToSVG(canvas, 4)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", canvasPath)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := labConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("serving lab telemetry on %s (ws at /ws)\n", cfg.Addr)
	if err := stream.NewServer(cfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	ratios, err := parseRatios(ratioList)
	if err != nil {
		return err
	}

	quietGrid := []float64{1000, 2000, 3000, 4500, 6000}
	floorGrid := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01}

	grid := tune.NewGridSearch(
		[]string{"quiet_ms", "speed_floor"},
		[][]float64{quietGrid, floorGrid},
	)
	objective := tune.StopNetObjective(ratios, frameMs, maxFrames)

	fmt.Printf("searching %d candidates against ratios %v...\n", len(quietGrid)*len(floorGrid), ratios)
	start := time.Now()

	best, score, err := grid.Search(context.Background(), objective)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no candidate survived; every point cut a healthy run short")
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Printf("best quiet_ms: %.0f\n", best["quiet_ms"])
	fmt.Printf("best speed_floor: %g\n", best["speed_floor"])
	fmt.Printf("score: %.4f\n", score)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	if len(names) == 0 {
		fmt.Println("no presets")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRATIO\tWIND\tTURB\tTEMP")

	for _, name := range names {
		p := config.GetPreset(name)
		wind := math.Hypot(p.Atmosphere.WindX, p.Atmosphere.WindZ)
		fmt.Fprintf(w, "%s\t%g\t%.1f m/s\t%.2f\t%.1f°C\n",
			name, p.Collision.MassRatio, wind, p.Atmosphere.Turbulence, p.Atmosphere.TemperatureC)
	}
	return w.Flush()
}

func parseRatios(list string) ([]float64, error) {
	parts := strings.Split(list, ",")
	ratios := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad ratio %q: %w", part, err)
		}
		ratios = append(ratios, v)
	}
	if len(ratios) == 0 {
		return nil, fmt.Errorf("no ratios given")
	}
	return ratios, nil
}
