package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/optim"
	"github.com/san-kum/pidlab/internal/session"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/viz"
)

const (
	svgCols  = 60
	svgRows  = 30
	svgScale = 4
)

var (
	configFile string
	preset     string
	logLevel   string
	logFile    string
	// Controller and plant overrides
	reference float64
	kp        float64
	ki        float64
	kd        float64
	load      float64
	// Headless run
	ticks     int
	trace     bool
	plotASCII bool
	pngPath   string
	svgPath   string
	// Live view
	paused   bool
	diagPath string
	// Tuning
	kpGrid     []float64
	kiGrid     []float64
	kdGrid     []float64
	metricName string
	// config init
	force bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "pidlab",
		Short:        "PID controller and plant simulator",
		SilenceUsage: true,
		RunE:         runLive,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset gains and load")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a file instead of stderr")
	addGainFlags(rootCmd)
	addLiveFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation headless and report metrics",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	addGainFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", 400, "number of ticks")
	runCmd.Flags().BoolVar(&trace, "trace", false, "print the diagnostic line of every tick")
	runCmd.Flags().BoolVar(&plotASCII, "plot", false, "plot position vs reference")
	runCmd.Flags().StringVar(&pngPath, "png", "", "save a position chart to this png file")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "save the final frame to this svg file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addGainFlags(liveCmd)
	addLiveFlags(liveCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller gains",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addGainFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&ticks, "ticks", 400, "ticks per candidate")
	tuneCmd.Flags().Float64SliceVar(&kpGrid, "kp-grid", []float64{0.1, 0.2, 0.5, 1}, "kp values to try")
	tuneCmd.Flags().Float64SliceVar(&kiGrid, "ki-grid", nil, "ki values to try")
	tuneCmd.Flags().Float64SliceVar(&kdGrid, "kd-grid", []float64{0, 0.01, 0.025, 0.05}, "kd values to try")
	tuneCmd.Flags().StringVar(&metricName, "metric", "iae", fmt.Sprintf("metric to minimize %v", metrics.Names()))

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREF\tKP\tKI\tKD\tLOAD\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%g\t%s\n",
					name, p.Controller.Reference, p.Controller.Kp, p.Controller.Ki, p.Controller.Kd, p.Load, p.Description)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration files",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := config.DefaultConfig()
			if preset != "" {
				if err := cfg.ApplyPreset(preset); err != nil {
					return err
				}
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)

	rootCmd.AddCommand(runCmd, liveCmd, tuneCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addGainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&reference, "reference", 300, "target position")
	cmd.Flags().Float64Var(&kp, "kp", 1, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", 0, "derivative gain")
	cmd.Flags().Float64Var(&load, "load", 0, "constant load added to velocity each tick")
}

func addLiveFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&paused, "paused", false, "wait for space before starting")
	cmd.Flags().StringVar(&diagPath, "diag", "", "append per-tick diagnostic lines to this file instead of the debug log")
}

// loadConfig resolves defaults, then the config file, then the preset, then
// any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("reference") {
		cfg.Controller.Reference = reference
	}
	if cmd.Flags().Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.Controller.Kd = kd
	}
	if cmd.Flags().Changed("load") {
		cfg.Plant.Load = load
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level, path string) (golog.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	if path != "" {
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
		l, err := zc.Build()
		if err != nil {
			return nil, err
		}
		return l.Sugar().Named("pidlab"), nil
	}

	switch lvl {
	case zapcore.DebugLevel:
		return golog.NewDebugLogger("pidlab"), nil
	case zapcore.InfoLevel:
		return golog.NewDevelopmentLogger("pidlab"), nil
	default:
		return golog.NewDevelopmentLogger("pidlab").Desugar().WithOptions(zap.IncreaseLevel(lvl)).Sugar(), nil
	}
}

func runHeadless(cmd *cobra.Command, args []string) error {
	if ticks < 1 {
		return fmt.Errorf("--ticks must be at least 1, got %d", ticks)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := sim.New(cfg.SimConfig())
	if err != nil {
		return err
	}
	s.Configure(cfg.Params(), cfg.Plant.Load)
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	var diag *sim.DiagnosticWriter
	if trace {
		diag = sim.NewDiagnosticWriter(os.Stdout)
		s.AddObserver(diag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := cfg.Params()
	logger.Infof("running %d ticks: reference=%v kp=%v ki=%v kd=%v load=%v", ticks, p.Reference, p.Kp, p.Ki, p.Kd, cfg.Plant.Load)

	res, err := s.Run(ctx, ticks)
	if err != nil {
		return err
	}
	if diag != nil {
		if err := diag.Err(); err != nil {
			return err
		}
	}

	final := res.Snapshots[len(res.Snapshots)-1]
	fmt.Printf("\nfinal: t=%.2fs position=%.4f velocity=%.4f pid=%.4f error=%.4f\n\n",
		final.Time, final.Plant.Position, final.Plant.Velocity, final.Plant.LastControlOutput, final.Error())

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", name, res.Metrics[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if plotASCII {
		fmt.Println()
		fmt.Println(viz.PlotASCII(res.Snapshots, 80, 15))
	}
	if pngPath != "" {
		if err := viz.SavePNG(pngPath, res.Snapshots); err != nil {
			return err
		}
		logger.Infof("saved chart to %s", pngPath)
	}
	if svgPath != "" {
		scene := viz.NewScene(cfg.Layout, svgCols, svgRows)
		scene.Draw(final)
		if err := export.WriteSVG(svgPath, scene, svgScale); err != nil {
			return err
		}
		logger.Infof("saved final frame to %s", svgPath)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The UI owns the terminal; without a log file only errors are logged.
	level := cfg.LogLevel
	if logFile == "" && !cmd.Flags().Changed("log-level") {
		level = "error"
	}
	logger, err := newLogger(level, logFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sessOpts := []session.Option{session.WithLogger(logger)}
	if diagPath != "" {
		f, openErr := os.OpenFile(diagPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		sessOpts = append(sessOpts, session.WithDiagnostics(f))
	}

	s, err := sim.New(cfg.SimConfig())
	if err != nil {
		return err
	}
	s.Configure(cfg.Params(), cfg.Plant.Load)

	sess, err := session.New(s, sessOpts...)
	if err != nil {
		return err
	}

	var opts []viz.ModelOption
	if !paused {
		opts = append(opts, viz.WithAutostart())
	}
	runErr := viz.Run(sess, cfg.Layout, opts...)
	return multierr.Append(runErr, sess.Close())
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := metrics.ByName(metricName); err != nil {
		return err
	}
	newMetric := func() sim.Metric {
		m, _ := metrics.ByName(metricName)
		return m
	}

	var names []string
	var ranges [][]float64
	for _, g := range []struct {
		name   string
		values []float64
	}{{"Kp", kpGrid}, {"Ki", kiGrid}, {"Kd", kdGrid}} {
		if len(g.values) > 0 {
			names = append(names, g.name)
			ranges = append(ranges, g.values)
		}
	}
	if len(names) == 0 {
		return errors.New("at least one of --kp-grid, --ki-grid or --kd-grid is required")
	}

	search, err := optim.NewGridSearch(names, ranges, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := search.Search(ctx, cfg.SimConfig(), cfg.Params(), cfg.Plant.Load, ticks, newMetric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d candidates over %d ticks each\n", res.Evaluated, ticks)
	fmt.Printf("best %s=%.4f: reference=%g kp=%g ki=%g kd=%g\n",
		metricName, res.Score, res.Params.Reference, res.Params.Kp, res.Params.Ki, res.Params.Kd)
	return nil
}
