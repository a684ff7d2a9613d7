package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherine-k/prodtwin/pkg/config"
	"github.com/sherine-k/prodtwin/pkg/forecast"
	"github.com/sherine-k/prodtwin/pkg/simulation"
)

var (
	forecastColumn string
	forecastWindow int
	forecastAlpha  float64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Evaluate baseline forecasters on a generated column",
	Long: `Generates a table and predicts the second half of one of its columns one
step ahead with each baseline forecaster, reporting MAPE and RMSE.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runForecast,
}

func init() {
	bindForecastFlags(forecastCmd)
	rootCmd.AddCommand(forecastCmd)
}

func bindForecastFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&forecastColumn, "column", "lead_time", "Column to forecast")
	cmd.Flags().IntVarP(&forecastWindow, "window", "w", 24, "Lookback window in steps")
	cmd.Flags().Float64Var(&forecastAlpha, "alpha", 0.3, "Smoothing factor of the exponential smoothing forecaster")
}

// generateColumn runs one simulation with the global configuration and
// returns the named column.
func generateColumn(cmd *cobra.Command, column string) ([]float64, error) {
	logger, err := setupLogger(logLevel)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfiguration(cmd)
	if err != nil {
		return nil, err
	}

	sim, err := simulation.NewSimulator(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := sim.Run(); err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}
	return sim.GetTable().Column(column)
}

func runForecast(cmd *cobra.Command, args []string) error {
	if forecastAlpha < 0 || forecastAlpha > 1 {
		return fmt.Errorf("alpha must be within [0, 1]")
	}

	series, err := generateColumn(cmd, forecastColumn)
	if err != nil {
		return err
	}

	forecasters := []struct {
		name string
		f    forecast.Forecaster
	}{
		{"naive", forecast.Naive{}},
		{"moving-average", forecast.MovingAverage{}},
		{"seasonal-naive", forecast.SeasonalNaive{Period: config.StepsPerDay}},
		{"exp-smoothing", forecast.ExponentialSmoothing{Alpha: forecastAlpha}},
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Forecasting %s over %d steps (window %d)\n", forecastColumn, len(series), forecastWindow)
	fmt.Fprintf(out, "%-16s %12s %12s\n", "FORECASTER", "MAPE", "RMSE")

	for _, fc := range forecasters {
		window := forecastWindow
		if sn, ok := fc.f.(forecast.SeasonalNaive); ok {
			window = max(window, sn.Period)
		}
		res, err := forecast.Evaluate(series, fc.f, window)
		if err != nil {
			return fmt.Errorf("%s: %w", fc.name, err)
		}
		fmt.Fprintf(out, "%-16s %12.4f %12.4f\n", fc.name, res.MAPE, res.RMSE)
	}

	return nil
}
