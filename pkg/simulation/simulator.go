package simulation

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sherine-k/prodtwin/pkg/config"
)

// Simulator runs the production line simulation
type Simulator struct {
	config *config.Config
	logger *slog.Logger
	clock  Clock
	checks []map[int]bool

	runID    uuid.UUID
	rng      *RandomStream
	demand   *DemandGenerator
	operator *Operator
	machines []*Machine
	queues   QueueState
	process  *QueueProcessor
	energy   *EnergyMeter

	records  []StepRecord
	events   []Event
	table    *Table
	aboveWIP bool
}

// NewSimulator validates cfg and creates a simulator for it. A nil logger
// discards all log output.
func NewSimulator(cfg *config.Config, logger *slog.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Simulator{
		config: cfg,
		logger: logger,
		clock:  NewClock(cfg.Clock),
		checks: make([]map[int]bool, len(cfg.Machines)),
	}

	for i, m := range cfg.Machines {
		if m.MaintenanceCron == "" {
			continue
		}
		schedule, err := config.ParseSchedule(m.MaintenanceCron)
		if err != nil {
			return nil, fmt.Errorf("machine %s: failed to parse maintenance schedule: %w", m.ID, err)
		}
		s.checks[i] = s.clock.CheckSteps(schedule, cfg.Steps)
	}

	return s, nil
}

// Generate runs one simulation of cfg and returns its table
func Generate(cfg *config.Config) (*Table, error) {
	sim, err := NewSimulator(cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := sim.Run(); err != nil {
		return nil, err
	}
	return sim.GetTable(), nil
}

// Run executes all configured steps. Every call starts from fresh state, so
// repeated runs of a seeded configuration produce identical tables.
func (s *Simulator) Run() error {
	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to create run id: %w", err)
	}
	s.reset(runID)

	s.logger.Info("simulation started",
		"run_id", s.runID,
		"steps", s.config.Steps,
		"machines", len(s.machines),
		"seeded", s.config.Seed != nil,
	)

	for t := 0; t < s.config.Steps; t++ {
		s.step(t)
	}

	ids := make([]string, len(s.machines))
	for i, m := range s.machines {
		ids[i] = m.ID()
	}
	s.table = NewTable(s.records, ids)

	completed, defects := 0, 0
	for _, r := range s.records {
		completed += r.CompletedJobs
		defects += r.Defects
	}
	s.logger.Info("simulation finished",
		"run_id", s.runID,
		"completed_jobs", completed,
		"defects", defects,
		"energy", s.energy.Total(),
		"final_wip", s.queues.WIP(),
		"operator_fatigue", s.operator.State().Fatigue,
		"warnings", len(s.GetWarnings()),
	)

	return nil
}

func (s *Simulator) reset(runID uuid.UUID) {
	cfg := s.config

	s.runID = runID
	s.rng = NewRandomStream(cfg.Seed)
	s.demand = NewDemandGenerator(cfg.Demand, cfg.DT)
	s.operator = NewOperator(cfg.Operator, cfg.DT)
	s.process = NewQueueProcessor(cfg.Quality.DefectBase, cfg.DT)
	s.energy = NewEnergyMeter(cfg.Energy, cfg.DT)
	s.queues = QueueState{}
	s.records = make([]StepRecord, 0, cfg.Steps)
	s.events = []Event{}
	s.table = nil
	s.aboveWIP = false

	s.machines = make([]*Machine, len(cfg.Machines))
	for i, m := range cfg.Machines {
		s.machines[i] = NewMachine(m, s.checks[i])
	}
}

// step advances the whole line by one step and appends its record
func (s *Simulator) step(t int) {
	shift := ShiftAt(t)

	arrivals := s.demand.Next(t, shift.Factor, s.rng)
	s.queues.Add(arrivals)
	if arrivals.Spike {
		s.addEvent(Event{
			Step:      t,
			Type:      EventTypeDemandSpike,
			WIP:       s.queues.WIP(),
			Message:   fmt.Sprintf("Demand spike: %d units arrived", arrivals.Total()),
			IsWarning: true,
		})
	}

	op := s.operator.Advance(t, s.rng)

	for _, m := range s.machines {
		transition, duration := m.Advance(t, shift, op, s.config.NoiseLevel, s.rng)
		s.recordTransition(t, m, transition, duration)
	}

	tp := s.process.Process(&s.queues, s.machines, op, s.rng)
	energy := s.energy.Measure(s.machines)

	wip := s.queues.WIP()
	s.checkWIP(t, wip)

	s.records = append(s.records, StepRecord{
		Time:            float64(t) * s.config.DT,
		Step:            t,
		Hour:            shift.Hour,
		ShiftID:         shift.ID,
		NormalQueue:     s.queues.Normal,
		PriorityQueue:   s.queues.Priority,
		WIPTotal:        wip,
		CompletedJobs:   tp.Completed,
		DefectRate:      recordedDefectRate(tp),
		Defects:         tp.Defects,
		Energy:          energy,
		OperatorLoad:    op.Load,
		OperatorSkill:   op.Skill,
		OperatorFatigue: op.Fatigue,
		Machines:        readings(s.machines),
		DemandSpikeFlag: flag(arrivals.Spike),
		Processed:       tp.Processed,
	})
}

func (s *Simulator) recordTransition(t int, m *Machine, transition Transition, duration int) {
	switch transition {
	case TransitionBreakdown:
		s.addEvent(Event{
			Step:      t,
			Type:      EventTypeBreakdown,
			Machine:   m.ID(),
			Duration:  duration,
			Message:   fmt.Sprintf("Machine %s broke down for %d steps", m.ID(), duration),
			IsWarning: true,
		})
	case TransitionMaintenance:
		s.addEvent(Event{
			Step:     t,
			Type:     EventTypeMaintenance,
			Machine:  m.ID(),
			Duration: duration,
			Message:  fmt.Sprintf("Machine %s entered maintenance for %d steps", m.ID(), duration),
		})
	case TransitionRepaired:
		s.addEvent(Event{
			Step:    t,
			Type:    EventTypeRepaired,
			Machine: m.ID(),
			Message: fmt.Sprintf("Machine %s back in service", m.ID()),
		})
	default:
		return
	}

	s.logger.Debug("machine transition",
		"run_id", s.runID,
		"step", t,
		"machine", m.ID(),
		"status", m.State().Status.String(),
		"duration", duration,
	)
}

// checkWIP raises a warning when WIP crosses above the configured threshold
func (s *Simulator) checkWIP(t, wip int) {
	threshold := s.config.WIPWarningThreshold
	if threshold <= 0 {
		return
	}

	above := float64(wip) > threshold
	if above && !s.aboveWIP {
		s.addEvent(Event{
			Step:      t,
			Type:      EventTypeWIPThresholdCross,
			WIP:       wip,
			Message:   fmt.Sprintf("WIP exceeded threshold: %d > %g", wip, threshold),
			IsWarning: true,
		})
	}
	s.aboveWIP = above
}

// addEvent stamps an event with its simulated time and adds it to the event list
func (s *Simulator) addEvent(event Event) {
	event.Time = s.clock.Time(event.Step)
	s.events = append(s.events, event)
}

// RunID returns the id of the last run
func (s *Simulator) RunID() uuid.UUID {
	return s.runID
}

// GetTable returns the table of the last run
func (s *Simulator) GetTable() *Table {
	return s.table
}

// GetEvents returns all events
func (s *Simulator) GetEvents() []Event {
	return s.events
}

// GetWarnings returns all warning events
func (s *Simulator) GetWarnings() []Event {
	warnings := []Event{}
	for _, event := range s.events {
		if event.IsWarning {
			warnings = append(warnings, event)
		}
	}
	return warnings
}
