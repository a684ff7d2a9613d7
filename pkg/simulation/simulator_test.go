package simulation_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherine-k/prodtwin/pkg/config"
	"github.com/sherine-k/prodtwin/pkg/simulation"
)

func defaultConfig(steps int) *config.Config {
	cfg := config.Default()
	cfg.Steps = steps
	return cfg
}

func generate(t *testing.T, cfg *config.Config) *simulation.Table {
	t.Helper()

	table, err := simulation.Generate(cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.Steps, table.Len())
	return table
}

func Test_Generate_IsDeterministic(t *testing.T) {
	first := generate(t, defaultConfig(1500))
	second := generate(t, defaultConfig(1500))

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.LeadTime, second.LeadTime)
}

func Test_Generate_DifferentSeedsDiffer(t *testing.T) {
	other := defaultConfig(500)
	*other.Seed = 7

	assert.NotEqual(t, generate(t, defaultConfig(500)).Records, generate(t, other).Records)
}

func Test_Generate_Invariants(t *testing.T) {
	cfg := defaultConfig(3000)
	cfg.Operator.FatigueRate = 0.02
	table := generate(t, cfg)

	for i, r := range table.Records {
		assert.Equal(t, i, r.Step)
		assert.Equal(t, float64(i)*cfg.DT, r.Time)

		// conservation
		assert.Equal(t, r.Processed, r.CompletedJobs+r.Defects, "step %d", i)

		// non-negativity
		assert.GreaterOrEqual(t, r.NormalQueue, 0)
		assert.GreaterOrEqual(t, r.PriorityQueue, 0)
		assert.Equal(t, r.NormalQueue+r.PriorityQueue, r.WIPTotal)
		assert.GreaterOrEqual(t, r.Energy, 0.0)
		for _, m := range r.Machines {
			assert.GreaterOrEqual(t, m.Speed, 0.0)
			if m.Status == 0 {
				assert.Equal(t, 0.0, m.Speed)
			}
		}

		// bounds
		assert.GreaterOrEqual(t, r.OperatorSkill, 0.3)
		assert.LessOrEqual(t, r.OperatorSkill, 1.0)
		assert.GreaterOrEqual(t, r.OperatorFatigue, 0.1)
		assert.LessOrEqual(t, r.OperatorFatigue, 1.0)
		assert.GreaterOrEqual(t, r.OperatorLoad, 0.1)
		assert.LessOrEqual(t, r.OperatorLoad, 1.0)
		assert.GreaterOrEqual(t, r.DefectRate, 0.0)
		assert.LessOrEqual(t, r.DefectRate, 0.4)

		// shifts
		hour := (i % 144) / 6
		assert.Equal(t, hour, r.Hour)
		switch {
		case hour >= 6 && hour < 14:
			assert.Equal(t, 1, r.ShiftID)
		case hour >= 14 && hour < 22:
			assert.Equal(t, 2, r.ShiftID)
		default:
			assert.Equal(t, 3, r.ShiftID)
		}

		// derived columns
		assert.False(t, math.IsNaN(table.LeadTime[i]), "lead_time undefined at step %d", i)
		assert.Equal(t, float64(r.WIPTotal), table.QueueLength[i])
		assert.Contains(t, []float64{0, 1.0 / 3, 2.0 / 3, 1}, table.MachineStatus[i])
	}
}

func Test_Generate_ZeroCompletionRecordsZeroDefectRate(t *testing.T) {
	cfg := defaultConfig(400)
	cfg.Demand.BaseArrival = 0
	cfg.Demand.SpikeProb = 0
	cfg.Demand.BatchWeights = []float64{0.9, 0, 0.1}
	table := generate(t, cfg)

	zero := 0
	for _, r := range table.Records {
		if r.CompletedJobs == 0 {
			zero++
			assert.Equal(t, 0.0, r.DefectRate, "step %d", r.Step)
		} else {
			assert.Positive(t, r.DefectRate)
		}
	}
	assert.Positive(t, zero)
}

// Scenario A: a line that never fails
func Test_Generate_ReliableLine(t *testing.T) {
	cfg := defaultConfig(10)
	for i := range cfg.Machines {
		cfg.Machines[i].BreakdownProb = 0
		cfg.Machines[i].MaintenanceProb = 0
	}
	table := generate(t, cfg)

	for _, r := range table.Records {
		for _, m := range r.Machines {
			assert.Equal(t, 1, m.Status, "machine %s at step %d", m.ID, r.Step)
			assert.Equal(t, 0, m.Maintenance)
		}
		if r.CompletedJobs > 0 {
			want := cfg.Quality.DefectBase + 0.1*r.OperatorFatigue + 0.05*(1-r.OperatorSkill)
			assert.InDelta(t, want, r.DefectRate, 1e-12, "step %d", r.Step)
		}
	}

	status, err := table.Column("machine_status")
	require.NoError(t, err)
	for _, v := range status {
		assert.Equal(t, 1.0, v)
	}
}

// Scenario B: no demand at all
func Test_Generate_NoDemand(t *testing.T) {
	cfg := defaultConfig(300)
	cfg.Demand.BaseArrival = 0
	cfg.Demand.SpikeProb = 0
	cfg.Demand.BatchWeights = []float64{0, 0, 0}
	table := generate(t, cfg)

	prev := math.MaxInt
	for _, r := range table.Records {
		assert.Equal(t, 0, r.DemandSpikeFlag)
		assert.LessOrEqual(t, r.WIPTotal, prev)
		assert.Equal(t, 0, r.WIPTotal)
		prev = r.WIPTotal
	}
}

func Test_Generate_WIPBalance(t *testing.T) {
	cfg := defaultConfig(400)
	cfg.Demand.BaseArrival = 0
	cfg.Demand.SpikeProb = 0
	cfg.Demand.BatchSizes = []int{40}
	cfg.Demand.BatchWeights = []float64{1}
	sim, err := simulation.NewSimulator(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	// every step adds exactly one batch; only completed units leave
	table := sim.GetTable()
	for i := 1; i < table.Len(); i++ {
		prev, cur := table.Records[i-1], table.Records[i]
		assert.Equal(t, prev.WIPTotal+40-cur.CompletedJobs, cur.WIPTotal)
	}
}

// Scenario C: a machine that fails whenever it can
func Test_Generate_AlwaysFailingMachine(t *testing.T) {
	cfg := defaultConfig(600)
	cfg.Machines[0].BreakdownProb = 1
	cfg.Machines[0].MaintenanceInterval = 100000
	sim, err := simulation.NewSimulator(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	for _, r := range sim.GetTable().Records {
		assert.Equal(t, 0, r.Machines[0].Status, "step %d", r.Step)
		assert.Equal(t, 0.0, r.Machines[0].Speed)
	}

	var breakdowns []simulation.Event
	for _, e := range sim.GetEvents() {
		if e.Machine == "A" {
			require.Equal(t, simulation.EventTypeBreakdown, e.Type)
			breakdowns = append(breakdowns, e)
		}
	}
	require.NotEmpty(t, breakdowns)
	assert.Equal(t, 0, breakdowns[0].Step)
	for i := 1; i < len(breakdowns); i++ {
		prev := breakdowns[i-1]
		assert.Equal(t, prev.Step+prev.Duration+1, breakdowns[i].Step,
			"machine stays down for exactly the drawn downtime")
	}
}

func Test_Generate_RejectsInvalidConfiguration(t *testing.T) {
	cfg := defaultConfig(0)

	table, err := simulation.Generate(cfg)

	assert.Nil(t, table)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "steps", cfgErr.Field)
}

func Test_Simulator_RunIsRepeatable(t *testing.T) {
	sim, err := simulation.NewSimulator(defaultConfig(300), nil)
	require.NoError(t, err)

	require.NoError(t, sim.Run())
	first := sim.GetTable()
	firstID := sim.RunID()

	require.NoError(t, sim.Run())
	assert.Equal(t, first.Records, sim.GetTable().Records)
	assert.NotEqual(t, firstID, sim.RunID())
}

func Test_Simulator_Events(t *testing.T) {
	cfg := defaultConfig(2000)
	cfg.WIPWarningThreshold = 5
	sim, err := simulation.NewSimulator(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run())
	table := sim.GetTable()

	spikes := 0
	for _, r := range table.Records {
		spikes += r.DemandSpikeFlag
	}

	counts := map[simulation.EventType]int{}
	for _, e := range sim.GetEvents() {
		counts[e.Type]++
		assert.Equal(t, cfg.Clock.Start.Add(cfg.Clock.StepDuration*time.Duration(e.Step)), e.Time)

		if e.Type == simulation.EventTypeWIPThresholdCross {
			assert.Greater(t, float64(table.Records[e.Step].WIPTotal), cfg.WIPWarningThreshold)
			if e.Step > 0 {
				assert.LessOrEqual(t, float64(table.Records[e.Step-1].WIPTotal), cfg.WIPWarningThreshold)
			}
		}
	}
	assert.Equal(t, spikes, counts[simulation.EventTypeDemandSpike])
	assert.Positive(t, counts[simulation.EventTypeBreakdown]+counts[simulation.EventTypeMaintenance])

	for _, w := range sim.GetWarnings() {
		assert.True(t, w.IsWarning)
		assert.NotEqual(t, simulation.EventTypeMaintenance, w.Type)
	}
}

func Test_Simulator_CronMaintenance(t *testing.T) {
	cfg := defaultConfig(2 * config.StepsPerDay)
	for i := range cfg.Machines {
		cfg.Machines[i].BreakdownProb = 0
		cfg.Machines[i].MaintenanceProb = 1
		cfg.Machines[i].MaintenanceCron = "0 6 * * *"
	}
	sim, err := simulation.NewSimulator(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	var steps []int
	for _, e := range sim.GetEvents() {
		if e.Type == simulation.EventTypeMaintenance {
			steps = append(steps, e.Step)
		}
	}
	assert.Equal(t, []int{36, 36, 36, 180, 180, 180}, steps)
}

func Test_RunScenarios_MatchesSequentialRuns(t *testing.T) {
	cfgs := make([]*config.Config, 4)
	for i := range cfgs {
		cfgs[i] = defaultConfig(500)
		*cfgs[i].Seed = int64(100 + i)
	}

	sims, err := simulation.RunScenarios(context.Background(), nil, cfgs...)
	require.NoError(t, err)
	require.Len(t, sims, len(cfgs))

	for i, sim := range sims {
		assert.Equal(t, generate(t, cfgs[i]).Records, sim.GetTable().Records, "scenario %d", i)
	}
}

func Test_RunScenarios_RejectsInvalidConfiguration(t *testing.T) {
	bad := defaultConfig(100)
	bad.Demand.SpikeProb = 1.5

	_, err := simulation.RunScenarios(context.Background(), nil, defaultConfig(100), bad)

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "demand.spikeProb", cfgErr.Field)
}

func Test_RunScenarios_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := simulation.RunScenarios(ctx, nil, defaultConfig(100))
	assert.ErrorIs(t, err, context.Canceled)
}
