package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sherine-k/prodtwin/pkg/chart"
	"github.com/sherine-k/prodtwin/pkg/config"
	"github.com/sherine-k/prodtwin/pkg/output"
	"github.com/sherine-k/prodtwin/pkg/simulation"
)

var (
	// Global flags
	configFile string
	steps      int
	seed       int64
	logLevel   string

	outputFile       string
	outputFormat     string
	runs             int
	showDashboard    bool
	chartColumn      string
	chartTail        int
	showTimeline     bool
	timelineLimit    int
	showEventSummary bool
)

var rootCmd = &cobra.Command{
	Use:   "prodtwin",
	Short: "Production line digital twin data generator",
	Long: `A CLI tool that generates synthetic telemetry for a production line.

The line has a shared job queue, a handful of machines that break down and
go through maintenance, a fatiguing operator and a three-shift day. Every
simulation step becomes one row of the generated table, which is written as
CSV or JSON and summarised on the terminal.`,
	SilenceUsage: true,
	RunE:         runGenerate,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindGlobalFlags(rootCmd)
	bindGenerateFlags(rootCmd)
}

// bindGlobalFlags registers the flags shared by every command
func bindGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML or TOML configuration file")
	cmd.PersistentFlags().IntVar(&steps, "steps", 2000, "Number of steps to simulate (overrides the configuration)")
	cmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Random seed (overrides the configuration)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
}

func bindGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFile, "output", "o", "production_line.csv", "Output file, empty to skip writing")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: csv or json (default from the output extension)")
	cmd.Flags().IntVarP(&runs, "runs", "r", 1, "Number of independent runs, seeded consecutively")
	cmd.Flags().BoolVarP(&showDashboard, "dashboard", "d", true, "Show the dashboard")
	cmd.Flags().StringVar(&chartColumn, "column", "", "Chart only this column instead of the default panels")
	cmd.Flags().IntVar(&chartTail, "tail", 200, "Chart only the last N steps (0 for all)")
	cmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "Show detailed timeline of events")
	cmd.Flags().IntVarP(&timelineLimit, "timeline-limit", "l", 50, "Limit number of timeline events to display")
	cmd.Flags().BoolVarP(&showEventSummary, "summary", "s", true, "Show event summary")
}

func setupLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// loadConfiguration reads the configuration file, applies the global flags
// given on the command line and validates the result.
func loadConfiguration(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		s := seed
		cfg.Seed = &s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// scenarioConfigs returns n copies of cfg, each seeded one higher than the
// previous. Unseeded configurations stay unseeded.
func scenarioConfigs(cfg *config.Config, n int) []*config.Config {
	cfgs := make([]*config.Config, n)
	for i := range cfgs {
		c := *cfg
		if cfg.Seed != nil {
			s := *cfg.Seed + int64(i)
			c.Seed = &s
		}
		cfgs[i] = &c
	}
	return cfgs
}

// runOutputPath inserts the run number before the extension when several
// runs are written.
func runOutputPath(path string, run, total int) string {
	if total <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), run+1, ext)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if runs < 1 {
		return fmt.Errorf("runs must be at least 1")
	}
	format, err := output.ParseFormat(outputFormat, outputFile)
	if err != nil {
		return err
	}
	logger, err := setupLogger(logLevel)
	if err != nil {
		return err
	}
	cfg, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}

	if configFile != "" {
		fmt.Fprintf(out, "Loaded configuration from %s\n", configFile)
	}
	fmt.Fprintf(out, "  - Steps: %d (%s per step)\n", cfg.Steps, chart.FormatDuration(cfg.Clock.StepDuration))
	if cfg.Seed != nil {
		fmt.Fprintf(out, "  - Seed: %d\n", *cfg.Seed)
	} else {
		fmt.Fprintf(out, "  - Seed: none\n")
	}
	fmt.Fprintf(out, "  - Machines: %d\n", len(cfg.Machines))
	fmt.Fprintf(out, "  - Runs: %d\n\n", runs)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfgs := scenarioConfigs(cfg, runs)
	sims, err := simulation.RunScenarios(ctx, logger, cfgs...)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	for i, sim := range sims {
		if runs > 1 {
			fmt.Fprintf(out, "Run %d/%d (%s)\n", i+1, runs, sim.RunID())
		}

		if outputFile != "" {
			path := runOutputPath(outputFile, i, runs)
			meta := output.Metadata{
				RunID:       sim.RunID(),
				Seed:        cfgs[i].Seed,
				Steps:       cfgs[i].Steps,
				GeneratedAt: time.Now().UTC(),
			}
			if err := output.WriteFile(path, format, sim.GetTable(), meta); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %d rows to %s\n", sim.GetTable().Len(), path)
		}

		if err := printReport(out, sim, cfgs[i]); err != nil {
			return err
		}
	}

	return nil
}

func printReport(out io.Writer, sim *simulation.Simulator, cfg *config.Config) error {
	chartGen := chart.NewGenerator()
	events := sim.GetEvents()

	// Display dashboard
	if showDashboard {
		var dashboard string
		var err error
		if chartColumn != "" {
			dashboard, err = chartGen.GenerateSeriesChart(sim.GetTable(), chartColumn, chartTail)
		} else {
			dashboard, err = chartGen.GenerateDashboard(sim.GetTable(), chartTail)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, dashboard)
		fmt.Fprintln(out, chartGen.GenerateMachineStatus(sim.GetTable()))
	}

	// Display event summary
	if showEventSummary {
		fmt.Fprintln(out, chartGen.GenerateEventSummary(events))
	}

	// Display warnings
	fmt.Fprintln(out, chartGen.GenerateWarnings(sim.GetWarnings()))

	// Display detailed timeline if requested
	if showTimeline {
		fmt.Fprintln(out, chartGen.GenerateDetailedTimeline(events, cfg.Clock.StepDuration, timelineLimit))
	}

	return nil
}
