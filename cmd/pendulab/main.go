package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendulab/internal/config"
	"github.com/san-kum/pendulab/internal/episode"
	"github.com/san-kum/pendulab/internal/experiment"
	"github.com/san-kum/pendulab/internal/logger"
	"github.com/san-kum/pendulab/internal/physics"
	"github.com/san-kum/pendulab/internal/report"
	"github.com/san-kum/pendulab/internal/segment"
	"github.com/san-kum/pendulab/internal/storage"
)

var (
	configFile string
	preset     string
	dataDir    string
	theme      string
	quiet      bool

	episodesFile string
	exportFile   string

	noSave   bool
	asJSON   bool
	gridArgs []string
	params   []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pendulab",
		Short:         "cable cart pendulum simulation and parameter identification",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Quiet = quiet
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "apply presets, comma separated (group/name)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", "report theme")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")
	rootCmd.PersistentFlags().StringArrayVar(&params, "set", nil, "override a physical parameter (name=value)")

	segmentCmd := &cobra.Command{
		Use:   "segment [session]",
		Short: "cut a recorded session (csv or json) into episodes",
		Args:  cobra.ExactArgs(1),
		RunE:  runSegment,
	}
	segmentCmd.Flags().StringVarP(&episodesFile, "output", "o", "episodes.json", "episode file to write")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate the configured open-loop step experiment",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	simulateCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	evaluateCmd := &cobra.Command{
		Use:   "evaluate [episodes]",
		Short: "score the configured parameters against recorded episodes",
		Args:  cobra.ExactArgs(1),
		RunE:  runEvaluate,
	}
	evaluateCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	fitCmd := &cobra.Command{
		Use:   "fit [episodes]",
		Short: "identify parameters with Nelder-Mead",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	fitCmd.Flags().StringArrayVar(&gridArgs, "grid", nil, "grid search candidates per fitted parameter, comma separated (repeat in parameter order)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "export the run with its trajectories as json")
	showCmd.Flags().StringVarP(&exportFile, "output", "o", "", "write the json export to a file")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "print the effective physical parameters",
		Args:  cobra.NoArgs,
		RunE:  showParams,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list parameter presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}

	rootCmd.AddCommand(segmentCmd, simulateCmd, evaluateCmd, fitCmd, listCmd, showCmd, paramsCmd, presetsCmd, initCmd)
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	}

	if preset != "" {
		for _, ref := range strings.Split(preset, ",") {
			if err := cfg.ApplyPreset(strings.TrimSpace(ref)); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Params == nil {
		cfg.Params = make(map[string]float64, len(params))
	}
	for _, kv := range params {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", kv, err)
		}
		cfg.Params[name] = v
	}

	if dataDir != "" {
		cfg.Data = dataDir
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func renderer() *report.Renderer {
	return report.NewRenderer(report.GetTheme(theme))
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, err := segment.LoadSession(args[0])
	if err != nil {
		return err
	}

	eps, err := experiment.New(cfg).Segment(session)
	if err != nil {
		return err
	}
	if err := episode.Save(episodesFile, eps); err != nil {
		return err
	}

	fmt.Printf("%d episodes written to %s\n", len(eps), episodesFile)
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := experiment.New(cfg).Simulate(ctx)
	if err != nil {
		return err
	}

	p, _ := cfg.PhysicalParams()
	m := experiment.SimulationMetrics(res)

	r := renderer()
	fmt.Println(r.Params(m, nil))
	fmt.Println(r.Hint("%d samples with %s", len(res.Times), cfg.Simulator.Method))

	if noSave {
		return nil
	}
	st := storage.New(cfg.Data)
	runID, err := st.Save(storage.RunMetadata{
		Kind:       "simulate",
		Integrator: cfg.Simulator.Method,
		Params:     p.Map(),
		Metrics:    m,
	}, []storage.Trajectory{experiment.ResultTrajectory("trajectory", res)})
	if err != nil {
		return err
	}
	fmt.Println(r.Hint("saved run %s", runID))
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eps, err := episode.Load(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	v, records, err := experiment.New(cfg).Evaluate(ctx, eps)
	if err != nil {
		return err
	}

	r := renderer()
	fmt.Println(r.Evaluation(v, cfg.Penalty, experiment.Summaries(records)))

	if noSave {
		return nil
	}
	p, _ := cfg.PhysicalParams()
	runID, err := storage.New(cfg.Data).Save(storage.RunMetadata{
		Kind:       "evaluate",
		Source:     args[0],
		Integrator: cfg.Simulator.Method,
		Params:     p.Map(),
		Objective:  v,
		Episodes:   len(eps),
		Metrics:    experiment.ChannelMAE(records),
	}, experiment.RecordTrajectories(records))
	if err != nil {
		return err
	}
	fmt.Println(r.Hint("saved run %s", runID))
	return nil
}

func parseGrid(args []string) ([][]float64, error) {
	grid := make([][]float64, len(args))
	for i, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("grid %d: %w", i, err)
			}
			grid[i] = append(grid[i], v)
		}
	}
	return grid, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	grid, err := parseGrid(gridArgs)
	if err != nil {
		return err
	}
	if len(grid) > 0 && len(grid) != len(cfg.Binding.ParamNames) {
		return fmt.Errorf("got %d grid axes for %d fitted parameters", len(grid), len(cfg.Binding.ParamNames))
	}
	eps, err := episode.Load(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := experiment.New(cfg).Fit(ctx, eps, grid)
	if err != nil {
		return err
	}

	r := renderer()
	fmt.Println(r.Fit(res))
	if res.Records != nil {
		fmt.Println(r.Metrics(experiment.Summaries(res.Records)))
	}

	if noSave {
		return nil
	}
	runID, err := storage.New(cfg.Data).Save(storage.RunMetadata{
		Kind:        "fit",
		Source:      args[0],
		Integrator:  cfg.Simulator.Method,
		Params:      res.Params.Map(),
		Fitted:      res.Map(),
		Initial:     res.Initial,
		Objective:   res.Objective,
		Iterations:  res.Iterations,
		Evaluations: res.Evaluations,
		Converged:   res.Converged,
		Status:      res.Status,
		Episodes:    len(eps),
		Metrics:     experiment.ChannelMAE(res.Records),
	}, experiment.RecordTrajectories(res.Records))
	if err != nil {
		return err
	}
	fmt.Println(r.Hint("saved run %s", runID))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.Data).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tINTEG\tEPISODES\tOBJECTIVE\tSOURCE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.6g\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Episodes,
			run.Objective,
			run.Source,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := storage.New(cfg.Data)

	if asJSON || exportFile != "" {
		data, err := st.Export(args[0])
		if err != nil {
			return err
		}
		if exportFile != "" {
			return storage.ExportJSONFile(exportFile, data)
		}
		return storage.ExportJSON(os.Stdout, data)
	}

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	r := renderer()
	fmt.Printf("%s  %s  %s\n", meta.ID, meta.Kind, meta.Timestamp.Format("2006-01-02 15:04:05"))
	if meta.Kind != "simulate" {
		fmt.Printf("objective %.6g on %d episodes", meta.Objective, meta.Episodes)
		if meta.Objective == cfg.Penalty {
			fmt.Print(" (penalty)")
		}
		fmt.Println()
	}
	if len(meta.Fitted) > 0 {
		fmt.Println(r.Params(meta.Fitted, cfg.Binding.ParamNames))
		fmt.Printf("%s after %d iterations, %d evaluations\n", meta.Status, meta.Iterations, meta.Evaluations)
	}
	if len(meta.Metrics) > 0 {
		fmt.Println(r.Params(meta.Metrics, nil))
	}
	fmt.Println(r.Hint("files: %s", strings.Join(meta.Files, ", ")))
	return nil
}

func showParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := cfg.PhysicalParams()
	if err != nil {
		return err
	}
	fmt.Println(renderer().Params(p.Map(), physics.Keys()))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, group := range config.ListGroups() {
		for _, name := range config.ListPresets(group) {
			ref := group + "/" + name
			fmt.Fprintf(w, "%s\t%s\n", ref, config.GetPreset(ref).Description)
		}
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("config written to %s\n", args[0])
	return nil
}
