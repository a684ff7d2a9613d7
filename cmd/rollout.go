package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/sherine-k/prodtwin/pkg/config"
	"github.com/sherine-k/prodtwin/pkg/forecast"
	"github.com/sherine-k/prodtwin/pkg/rlenv"
)

var (
	rolloutColumn    string
	rolloutWindow    int
	rolloutAction    float64
	rolloutGamma     float64
	rolloutTolerance float64
	rolloutPredictor string
)

var rolloutCmd = &cobra.Command{
	Use:   "rollout",
	Short: "Play one episode of the forecasting environment",
	Long: `Generates a table, wraps one of its columns as a sequential decision
environment and plays one episode with a constant-action policy.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRollout,
}

func init() {
	bindRolloutFlags(rolloutCmd)
	rootCmd.AddCommand(rolloutCmd)
}

func bindRolloutFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rolloutColumn, "column", "lead_time", "Column to wrap as the environment series")
	cmd.Flags().IntVarP(&rolloutWindow, "window", "w", 10, "Observation window in steps")
	cmd.Flags().Float64Var(&rolloutAction, "action", 0, "Constant action in [-1, 1]")
	cmd.Flags().Float64Var(&rolloutGamma, "gamma", 0.99, "Discount factor")
	cmd.Flags().Float64Var(&rolloutTolerance, "tolerance", 1, "Absolute error counted as a successful step")
	cmd.Flags().StringVar(&rolloutPredictor, "predictor", "moving-average", "Predictor: naive, moving-average or seasonal-naive")
}

func predictorByName(name string) (rlenv.Predictor, error) {
	switch name {
	case "naive":
		return forecast.Naive{}, nil
	case "moving-average":
		return forecast.MovingAverage{}, nil
	case "seasonal-naive":
		return forecast.SeasonalNaive{Period: config.StepsPerDay}, nil
	}
	return nil, fmt.Errorf("unknown predictor %q", name)
}

func runRollout(cmd *cobra.Command, args []string) error {
	predictor, err := predictorByName(rolloutPredictor)
	if err != nil {
		return err
	}

	series, err := generateColumn(cmd, rolloutColumn)
	if err != nil {
		return err
	}
	env, err := rlenv.New(series, predictor, rolloutWindow)
	if err != nil {
		return err
	}

	policy := rlenv.PolicyFunc(func([]float64) float64 { return rolloutAction })
	rewards, err := rlenv.Rollout(env, policy)
	if err != nil {
		return err
	}

	total := 0.0
	hits := make([]bool, len(rewards))
	for i, r := range rewards {
		total += r
		hits[i] = math.Abs(r) <= rolloutTolerance
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rollout on %s with %s predictor and action %.2f\n", rolloutColumn, rolloutPredictor, rolloutAction)
	fmt.Fprintf(out, "  - Steps: %d\n", len(rewards))
	fmt.Fprintf(out, "  - Total reward: %.4f\n", total)
	fmt.Fprintf(out, "  - Discounted reward (gamma %.2f): %.4f\n", rolloutGamma, forecast.DiscountedReward(rewards, rolloutGamma))
	fmt.Fprintf(out, "  - Success rate (|error| <= %.2f): %.1f%%\n", rolloutTolerance, 100*forecast.SuccessRate(hits))

	return nil
}
