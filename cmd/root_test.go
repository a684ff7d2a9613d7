package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherine-k/prodtwin/pkg/config"
)

// newTestCommand returns a command with fresh global flags plus the flags
// registered by bind, parsed from args. Registering resets every bound
// variable to its default.
func newTestCommand(t *testing.T, bind func(*cobra.Command), args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	bindGlobalFlags(c)
	bind(c)

	require.NoError(t, c.ParseFlags(append([]string{"--steps=300", "--log-level=error"}, args...)))
	return c, &buf
}

func Test_RootCmd_Flags(t *testing.T) {
	for _, name := range []string{"config", "steps", "seed", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "--%s", name)
	}
	for _, name := range []string{"output", "format", "runs", "dashboard", "column", "tail", "timeline", "timeline-limit", "summary"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "--%s", name)
	}

	var names []string
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "forecast")
	assert.Contains(t, names, "rollout")
}

func Test_Generate_WritesCSV(t *testing.T) {
	output := filepath.Join(t.TempDir(), "line.csv")
	c, buf := newTestCommand(t, bindGenerateFlags, "--output", output, "--timeline")

	require.NoError(t, runGenerate(c, nil))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 301, bytes.Count(data, []byte("\n")), "header plus one row per step")

	out := buf.String()
	assert.Contains(t, out, "Wrote 300 rows")
	for _, column := range []string{"lead_time", "queue_length", "energy_consumption", "defects"} {
		assert.Contains(t, out, column+" (steps 100-299)")
	}
	assert.Contains(t, out, "State: [")
	assert.Contains(t, out, "Warnings\n====")
}

func Test_Generate_SingleColumnDashboard(t *testing.T) {
	c, buf := newTestCommand(t, bindGenerateFlags, "--output=", "--column", "wip_total", "--tail", "0")

	require.NoError(t, runGenerate(c, nil))

	assert.Contains(t, buf.String(), "wip_total (steps 0-299)")
	assert.NotContains(t, buf.String(), "State: [")
}

func Test_Generate_MultipleRuns(t *testing.T) {
	dir := t.TempDir()
	c, buf := newTestCommand(t, bindGenerateFlags,
		"--output", filepath.Join(dir, "line.json"), "--runs=3", "--seed=10", "--dashboard=false")

	require.NoError(t, runGenerate(c, nil))

	for _, name := range []string{"line-1.json", "line-2.json", "line-3.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.Contains(t, buf.String(), "Run 3/3")
	assert.NotContains(t, buf.String(), "(steps")
}

func Test_Generate_RejectsInvalidConfiguration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "line.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("demand:\n  spikeProb: 2\n"), 0o644))

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"config file", []string{"--config", configPath}, "demand.spikeProb"},
		{"zero steps", []string{"--steps=0"}, "steps"},
		{"negative steps", []string{"--steps=-5"}, "steps"},
		{"negative seed", []string{"--seed=-3"}, "seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCommand(t, bindGenerateFlags, append([]string{"--output="}, tt.args...)...)

			err := runGenerate(c, nil)

			var cfgErr *config.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func Test_Generate_RejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--runs=0"},
		{"--output", "line.parquet"},
		{"--log-level", "loud"},
	} {
		c, _ := newTestCommand(t, bindGenerateFlags, args...)
		assert.Error(t, runGenerate(c, nil), "%v", args)
	}
}

func Test_LoadConfiguration_Overrides(t *testing.T) {
	c, _ := newTestCommand(t, bindGenerateFlags, "--steps=77", "--seed=5")

	cfg, err := loadConfiguration(c)
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.Steps)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(5), *cfg.Seed)

	cfgs := scenarioConfigs(cfg, 3)
	for i, sc := range cfgs {
		assert.Equal(t, int64(5+i), *sc.Seed)
	}
	assert.Equal(t, int64(5), *cfg.Seed, "source configuration is untouched")
}

func Test_LoadConfiguration_KeepsFileValuesWithoutFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "line.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("steps = 123\nseed = 9\n"), 0o644))

	c := &cobra.Command{}
	bindGlobalFlags(c)
	require.NoError(t, c.ParseFlags([]string{"--config", configPath}))

	cfg, err := loadConfiguration(c)
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.Steps)
	assert.Equal(t, int64(9), *cfg.Seed)
}

func Test_RunOutputPath(t *testing.T) {
	assert.Equal(t, "out.csv", runOutputPath("out.csv", 0, 1))
	assert.Equal(t, "out-2.csv", runOutputPath("out.csv", 1, 4))
	assert.Equal(t, "dir/out-1", runOutputPath("dir/out", 0, 2))
}

func Test_Forecast_ReportsEveryForecaster(t *testing.T) {
	c, buf := newTestCommand(t, bindForecastFlags)

	require.NoError(t, runForecast(c, nil))

	for _, name := range []string{"naive", "moving-average", "seasonal-naive", "exp-smoothing"} {
		assert.Contains(t, buf.String(), name)
	}

	c, _ = newTestCommand(t, bindForecastFlags, "--column", "nope")
	assert.Error(t, runForecast(c, nil))
}

func Test_Rollout_PlaysOneEpisode(t *testing.T) {
	c, buf := newTestCommand(t, bindRolloutFlags)

	require.NoError(t, runRollout(c, nil))
	assert.Contains(t, buf.String(), "Steps: 289")

	c, _ = newTestCommand(t, bindRolloutFlags, "--action=2")
	assert.Error(t, runRollout(c, nil))

	c, _ = newTestCommand(t, bindRolloutFlags, "--predictor", "oracle")
	assert.Error(t, runRollout(c, nil))

	c, _ = newTestCommand(t, bindRolloutFlags, "--steps=-1")
	assert.Error(t, runRollout(c, nil))
}
