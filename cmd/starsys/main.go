package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/starsys/internal/analysis"
	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/experiment"
	"github.com/san-kum/starsys/internal/export"
	"github.com/san-kum/starsys/internal/integrators"
	"github.com/san-kum/starsys/internal/starsystem"
	"github.com/san-kum/starsys/internal/storage"
	"github.com/san-kum/starsys/internal/viz"
)

type cli struct {
	dataDir    string
	verbose    bool
	configFile string
	dt         float64
	duration   float64
	method     string
	force      string
	softening  float64
	workers    int
	bodies     int
	adaptive   bool
	tolerance  float64
	noSave     bool

	svgPath      string
	perturbation float64

	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:          "starsys",
		Short:        "gravitational n-body star system simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if c.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.dataDir, "data", ".starsys", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runSimulation,
	}
	c.systemFlags(runCmd)
	runCmd.Flags().BoolVar(&c.adaptive, "adaptive", false, "adaptive step size")
	runCmd.Flags().Float64Var(&c.tolerance, "tolerance", 0, "local error tolerance for adaptive stepping")
	runCmd.Flags().BoolVar(&c.noSave, "no-save", false, "do not save the run")

	pairsCmd := &cobra.Command{
		Use:   "pairs [preset]",
		Short: "print the interacting body pairs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.printPairs,
	}
	c.systemFlags(pairsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  c.listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and orbital radii of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  c.plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON, or its orbits as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  c.exportRun,
	}
	exportCmd.Flags().StringVar(&c.svgPath, "svg", "", "write an orbit plot to this file instead")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in systems",
		Args:  cobra.NoArgs,
		RunE:  c.listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [method...]",
		Short: "run one system with several methods",
		Args:  cobra.MinimumNArgs(2),
		RunE:  c.compareMethods,
	}
	c.systemFlags(compareCmd)

	watchCmd := &cobra.Command{
		Use:   "watch [preset]",
		Short: "animate a system in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.watch,
	}
	c.systemFlags(watchCmd)

	chaosCmd := &cobra.Command{
		Use:   "chaos [preset]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.chaos,
	}
	c.systemFlags(chaosCmd)
	chaosCmd.Flags().Float64Var(&c.perturbation, "d0", 1e-8, "initial separation of the shadow trajectory")

	rootCmd.AddCommand(runCmd, pairsCmd, listCmd, plotCmd, exportCmd, presetsCmd, compareCmd, watchCmd, chaosCmd)
	return rootCmd
}

func (c *cli) systemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.configFile, "config", "", "system file (yaml)")
	cmd.Flags().Float64Var(&c.dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&c.duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&c.method, "method", config.DefaultMethod, "integration method")
	cmd.Flags().StringVar(&c.force, "force", config.DefaultForce, "force routine")
	cmd.Flags().Float64Var(&c.softening, "softening", 0, "softening length (plummer, barneshut)")
	cmd.Flags().IntVar(&c.workers, "workers", 0, "goroutines for force evaluation")
	cmd.Flags().IntVar(&c.bodies, "bodies", 0, "replace the bodies with a ring of n equal masses")
}

// resolve picks the system from --config or a preset, then applies the flags
// the user set explicitly.
func (c *cli) resolve(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case c.configFile != "":
		var err error
		if cfg, err = config.Load(c.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		name := "tatooine"
		if len(args) > 0 {
			name = args[0]
		}
		if cfg = config.GetPreset(name); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = c.dt
	}
	if flags.Changed("time") {
		cfg.Duration = c.duration
	}
	if flags.Changed("method") {
		cfg.Method = c.method
	}
	if flags.Changed("force") {
		cfg.Force = c.force
	}
	if flags.Changed("softening") {
		cfg.Softening = c.softening
	}
	if flags.Changed("workers") {
		cfg.Workers = c.workers
	}
	if flags.Changed("bodies") {
		cfg.Bodies = nil
		cfg.Ring = &config.RingConfig{Count: c.bodies, Radius: 1, Mass: 1}
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = c.adaptive
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = c.tolerance
	}

	return cfg, cfg.Validate()
}

func (c *cli) runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := c.resolve(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, c.logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "completed %s in %v\n", cfg.Name, elapsed)
	fmt.Fprintf(out, "steps: %d\n", result.StepsTaken)
	fmt.Fprintf(out, "energy drift: %.3e\n", result.EnergyDrift)
	for _, stepErr := range result.Errors {
		fmt.Fprintf(out, "stopped: %v\n", stepErr)
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %.6g\n", name, result.Metrics[name])
	}

	if c.noSave {
		return nil
	}

	st := storage.New(c.dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s := exp.System()
	runID, err := st.Save(storage.RunMetadata{
		Name:      cfg.Name,
		BodyNames: cfg.BodyNames(),
		Masses:    s.Mass,
		G:         s.G,
		Softening: s.Softening(),
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Method:    cfg.Method,
		Force:     cfg.Force,
	}, result)
	if err != nil {
		return err
	}

	c.logger.Info("run saved", zap.String("id", runID), zap.String("dir", st.Dir()))
	fmt.Fprintf(out, "\nrun id: %s\n", runID)
	return nil
}

func (c *cli) printPairs(cmd *cobra.Command, args []string) error {
	cfg, err := c.resolve(cmd, args)
	if err != nil {
		return err
	}

	s, err := cfg.Build(starsystem.WithLogger(c.logger))
	if err != nil {
		return err
	}
	return starsystem.FormatPairs(cmd.OutOrStdout(), s.Interactions())
}

func (c *cli) listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(c.dataDir).List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tBODIES\tDURATION\tDT\tMETHOD\tFORCE\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.4g\t%s\t%s\t%.2e\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Duration,
			run.Dt,
			run.Method,
			run.Force,
			run.EnergyDrift,
		)
	}
	return w.Flush()
}

func (c *cli) listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tMETHOD\tFORCE\tDT\tDURATION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%g\t%g\n", name, len(p.BodyNames()), p.Method, p.Force, p.Dt, p.Duration)
	}
	return w.Flush()
}

func (c *cli) compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := c.resolve(cmd, args[:1])
	if err != nil {
		return err
	}
	methods := args[1:]

	start := time.Now()
	results, err := experiment.Compare(cmd.Context(), cfg, methods, c.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "comparing methods for %s (dt=%g, duration=%g) in %v\n\n",
		cfg.Name, cfg.Dt, cfg.Duration, time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tENERGY_DRIFT\tMOMENTUM_DRIFT\tMIN_SEP\tERRORS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%.4g\t%d\n",
			r.Method,
			r.Result.StepsTaken,
			r.Result.Metrics["energy_drift"],
			r.Result.Metrics["momentum_drift"],
			r.Result.Metrics["min_separation"],
			len(r.Result.Errors),
		)
	}
	return w.Flush()
}

func (c *cli) exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(c.dataDir)
	if c.svgPath == "" {
		return st.ExportJSON(cmd.OutOrStdout(), args[0])
	}

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	tracks, err := export.Tracks(states, meta.Bodies)
	if err != nil {
		return err
	}

	f, err := os.Create(c.svgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.OrbitsSVG(f, tracks, 800, 800); err != nil {
		return err
	}
	c.logger.Info("orbits written", zap.String("path", c.svgPath), zap.Int("bodies", len(tracks)))
	return f.Close()
}

func (c *cli) chaos(cmd *cobra.Command, args []string) error {
	cfg, err := c.resolve(cmd, args)
	if err != nil {
		return err
	}

	s, err := cfg.Build(starsystem.WithLogger(c.logger))
	if err != nil {
		return err
	}
	integ, err := integrators.New(cfg.Method)
	if err != nil {
		return err
	}

	lambda, err := analysis.Lyapunov(cmd.Context(), s, integ, s.State(), cfg.Dt, cfg.Duration, c.perturbation)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: lyapunov exponent %.4g over t=%g (%s, dt=%g)\n",
		cfg.Name, lambda, cfg.Duration, cfg.Method, cfg.Dt)
	return nil
}

func (c *cli) watch(cmd *cobra.Command, args []string) error {
	cfg, err := c.resolve(cmd, args)
	if err != nil {
		return err
	}

	// log lines would tear the alt screen
	s, err := cfg.Build()
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(cfg.Name, s), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
