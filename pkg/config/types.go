package config

import (
	"time"
)

// Config represents the entire parameter set of one production line run.
// It is created once and never mutated by the simulator.
type Config struct {
	Steps      int      `yaml:"steps" toml:"steps"`
	DT         float64  `yaml:"dt" toml:"dt"`
	Seed       *int64   `yaml:"seed" toml:"seed"`
	NoiseLevel float64  `yaml:"noiseLevel" toml:"noise_level"`
	Demand     Demand   `yaml:"demand" toml:"demand"`
	Operator   Operator `yaml:"operator" toml:"operator"`
	Quality    Quality  `yaml:"quality" toml:"quality"`
	Energy     Energy   `yaml:"energy" toml:"energy"`
	Clock      Clock    `yaml:"clock" toml:"clock"`

	// WIPWarningThreshold raises a warning event whenever WIP rises above it.
	// Zero disables the warning.
	WIPWarningThreshold float64 `yaml:"wipWarningThreshold" toml:"wip_warning_threshold"`

	// Machines are processed in the listed order, which decides which
	// machine gets first claim on the shared queues.
	Machines []Machine `yaml:"machines" toml:"machines"`
}

// Demand holds the arrival process parameters
type Demand struct {
	BaseArrival  float64   `yaml:"baseArrival" toml:"base_arrival"`
	SpikeProb    float64   `yaml:"spikeProb" toml:"spike_prob"`
	SpikeFactor  float64   `yaml:"spikeFactor" toml:"spike_factor"`
	BatchSizes   []int     `yaml:"batchSizes" toml:"batch_sizes"`
	BatchWeights []float64 `yaml:"batchWeights" toml:"batch_weights"`
}

// Operator holds the operator dynamics parameters
type Operator struct {
	FatigueRate    float64 `yaml:"fatigueRate" toml:"fatigue_rate"`
	InitialSkill   float64 `yaml:"initialSkill" toml:"initial_skill"`
	InitialFatigue float64 `yaml:"initialFatigue" toml:"initial_fatigue"`
	InitialLoad    float64 `yaml:"initialLoad" toml:"initial_load"`
}

// Quality holds the defect model parameters
type Quality struct {
	DefectBase float64 `yaml:"defectBase" toml:"defect_base"`
}

// Energy holds the energy model coefficients
type Energy struct {
	Idle     float64 `yaml:"idle" toml:"idle"`
	PerSpeed float64 `yaml:"perSpeed" toml:"per_speed"`
}

// Clock maps simulation steps onto simulated wall-clock time. It only
// affects event timestamps and cron maintenance schedules.
type Clock struct {
	Start        time.Time     `yaml:"start" toml:"start"`
	StepDuration time.Duration `yaml:"stepDuration" toml:"step_duration"`
}

// Machine represents a single machine on the line
type Machine struct {
	ID                  string  `yaml:"id" toml:"id"`
	ServiceRate         float64 `yaml:"serviceRate" toml:"service_rate"`
	BreakdownProb       float64 `yaml:"breakdownProb" toml:"breakdown_prob"`
	AvgDowntime         float64 `yaml:"avgDowntime" toml:"avg_downtime"`
	MaintenanceInterval int     `yaml:"maintenanceInterval" toml:"maintenance_interval"`

	// MaintenanceCron replaces the interval rule when set. Standard
	// 5-field cron syntax evaluated on the simulated clock.
	MaintenanceCron string `yaml:"maintenanceCron,omitempty" toml:"maintenance_cron"`

	MaintenanceProb     float64 `yaml:"maintenanceProb" toml:"maintenance_prob"`
	MaintenanceMinSteps int     `yaml:"maintenanceMinSteps" toml:"maintenance_min_steps"`
	MaintenanceMaxSteps int     `yaml:"maintenanceMaxSteps" toml:"maintenance_max_steps"`

	// OverdueFactor multiplies the breakdown probability on a scheduled
	// check that skipped maintenance.
	OverdueFactor float64 `yaml:"overdueFactor" toml:"overdue_factor"`
}

// StepsPerDay is the number of simulation steps in one simulated day.
const StepsPerDay = 144
