package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a parameter that cannot be simulated.
// It is returned before any step runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule parses a 5-field cron maintenance schedule
func ParseSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// Default returns the reference three-machine line
func Default() *Config {
	seed := int64(42)
	return &Config{
		Steps:      2000,
		DT:         1.0,
		Seed:       &seed,
		NoiseLevel: 0.15,
		Demand: Demand{
			BaseArrival:  2.0,
			SpikeProb:    0.02,
			SpikeFactor:  2.5,
			BatchSizes:   []int{0, 5, 10},
			BatchWeights: []float64{0.85, 0.10, 0.05},
		},
		Operator: Operator{
			FatigueRate:    0.004,
			InitialSkill:   0.4,
			InitialFatigue: 0.2,
			InitialLoad:    0.7,
		},
		Quality: Quality{DefectBase: 0.03},
		Energy:  Energy{Idle: 1.0, PerSpeed: 0.8},
		Clock: Clock{
			Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			StepDuration: 24 * time.Hour / StepsPerDay,
		},
		Machines: []Machine{
			NewMachine("A", 2.5, 0.015, 20, 400),
			NewMachine("B", 2.0, 0.02, 30, 500),
			NewMachine("C", 1.5, 0.03, 40, 600),
		},
	}
}

// NewMachine returns a machine with the given rates and the default
// maintenance policy.
func NewMachine(id string, serviceRate, breakdownProb, avgDowntime float64, maintenanceInterval int) Machine {
	m := machineTemplate()
	m.ID = id
	m.ServiceRate = serviceRate
	m.BreakdownProb = breakdownProb
	m.AvgDowntime = avgDowntime
	m.MaintenanceInterval = maintenanceInterval
	return m
}

func machineTemplate() Machine {
	return Machine{
		MaintenanceProb:     0.7,
		MaintenanceMinSteps: 5,
		MaintenanceMaxSteps: 20,
		OverdueFactor:       2,
	}
}

// plainMachine has no decoding hooks so it can be decoded on top of the template.
type plainMachine Machine

// UnmarshalYAML fills fields missing from the document with the default
// maintenance policy.
func (m *Machine) UnmarshalYAML(value *yaml.Node) error {
	p := plainMachine(machineTemplate())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = Machine(p)
	return nil
}

// UnmarshalTOML fills fields missing from the table with the default
// maintenance policy.
func (m *Machine) UnmarshalTOML(data any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return err
	}
	p := plainMachine(machineTemplate())
	if _, err := toml.Decode(buf.String(), &p); err != nil {
		return err
	}
	*m = Machine(p)
	return nil
}

// LoadConfig loads a configuration file on top of Default. Files ending in
// .toml are parsed as TOML, everything else as YAML. The result is not
// validated so callers can apply overrides first.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	// Lists replace the defaults rather than merging with them.
	config.Machines = nil
	config.Demand.BatchSizes = nil
	config.Demand.BatchWeights = nil

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		_, err = toml.Decode(string(data), config)
	default:
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	defaults := Default()
	if config.Machines == nil {
		config.Machines = defaults.Machines
	}
	if config.Demand.BatchSizes == nil && config.Demand.BatchWeights == nil {
		config.Demand.BatchSizes = defaults.Demand.BatchSizes
		config.Demand.BatchWeights = defaults.Demand.BatchWeights
	}

	return config, nil
}

// Validate checks every parameter and returns the first *ConfigurationError.
func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return invalid("steps", "must be greater than 0")
	}
	if !(c.DT > 0) {
		return invalid("dt", "must be greater than 0")
	}
	if c.Seed != nil && *c.Seed < 0 {
		return invalid("seed", "must not be negative (got %d)", *c.Seed)
	}
	if err := nonNegative("noiseLevel", c.NoiseLevel); err != nil {
		return err
	}
	if err := nonNegative("wipWarningThreshold", c.WIPWarningThreshold); err != nil {
		return err
	}

	if err := c.Demand.validate(); err != nil {
		return err
	}

	rates := []struct {
		field string
		value float64
	}{
		{"operator.fatigueRate", c.Operator.FatigueRate},
		{"energy.idle", c.Energy.Idle},
		{"energy.perSpeed", c.Energy.PerSpeed},
	}
	for _, r := range rates {
		if err := nonNegative(r.field, r.value); err != nil {
			return err
		}
	}
	fractions := []struct {
		field string
		value float64
	}{
		{"operator.initialSkill", c.Operator.InitialSkill},
		{"operator.initialFatigue", c.Operator.InitialFatigue},
		{"operator.initialLoad", c.Operator.InitialLoad},
		{"quality.defectBase", c.Quality.DefectBase},
	}
	for _, f := range fractions {
		if err := probability(f.field, f.value); err != nil {
			return err
		}
	}

	if c.Clock.StepDuration <= 0 {
		return invalid("clock.stepDuration", "must be greater than 0")
	}

	if len(c.Machines) == 0 {
		return invalid("machines", "at least one machine must be defined")
	}
	seen := make(map[string]bool, len(c.Machines))
	for i, m := range c.Machines {
		if m.ID == "" {
			return invalid(fmt.Sprintf("machines[%d].id", i), "is required")
		}
		if seen[m.ID] {
			return invalid(fmt.Sprintf("machines[%d].id", i), "duplicates machine %q", m.ID)
		}
		seen[m.ID] = true

		if err := m.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (d Demand) validate() error {
	if err := nonNegative("demand.baseArrival", d.BaseArrival); err != nil {
		return err
	}
	if err := probability("demand.spikeProb", d.SpikeProb); err != nil {
		return err
	}
	if err := nonNegative("demand.spikeFactor", d.SpikeFactor); err != nil {
		return err
	}
	if len(d.BatchSizes) != len(d.BatchWeights) {
		return invalid("demand.batchWeights", "must have one weight per batch size (%d sizes, %d weights)",
			len(d.BatchSizes), len(d.BatchWeights))
	}
	for i := range d.BatchSizes {
		if d.BatchSizes[i] < 0 {
			return invalid(fmt.Sprintf("demand.batchSizes[%d]", i), "must not be negative")
		}
		if err := probability(fmt.Sprintf("demand.batchWeights[%d]", i), d.BatchWeights[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m Machine) validate() error {
	prefix := "machine " + m.ID + ": "

	if err := nonNegative(prefix+"serviceRate", m.ServiceRate); err != nil {
		return err
	}
	if err := probability(prefix+"breakdownProb", m.BreakdownProb); err != nil {
		return err
	}
	if err := nonNegative(prefix+"avgDowntime", m.AvgDowntime); err != nil {
		return err
	}
	if m.MaintenanceCron != "" {
		if _, err := ParseSchedule(m.MaintenanceCron); err != nil {
			return invalid(prefix+"maintenanceCron", "cannot be parsed: %v", err)
		}
	} else if m.MaintenanceInterval <= 0 {
		return invalid(prefix+"maintenanceInterval", "must be greater than 0")
	}
	if err := probability(prefix+"maintenanceProb", m.MaintenanceProb); err != nil {
		return err
	}
	if m.MaintenanceMinSteps < 0 {
		return invalid(prefix+"maintenanceMinSteps", "must not be negative")
	}
	if m.MaintenanceMaxSteps <= m.MaintenanceMinSteps {
		return invalid(prefix+"maintenanceMaxSteps", "must be greater than maintenanceMinSteps")
	}
	return nonNegative(prefix+"overdueFactor", m.OverdueFactor)
}

func nonNegative(field string, v float64) error {
	if !(v >= 0) {
		return invalid(field, "must not be negative (got %v)", v)
	}
	return nil
}

func probability(field string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return invalid(field, "must be within [0, 1] (got %v)", v)
	}
	return nil
}
