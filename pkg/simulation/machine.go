package simulation

import (
	"math"

	"github.com/sherine-k/prodtwin/pkg/config"
)

// MachineStatus is the availability of a machine
type MachineStatus int

const (
	StatusRunning MachineStatus = iota
	StatusBroken
	StatusMaintenance
)

func (s MachineStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusBroken:
		return "broken"
	case StatusMaintenance:
		return "maintenance"
	}
	return "unknown"
}

// MachineState is a machine's condition at the end of a step
type MachineState struct {
	Status               MachineStatus
	DowntimeRemaining    int
	MaintenanceRemaining int
	Speed                float64
}

// Running reports whether the machine can process work
func (s MachineState) Running() bool {
	return s.Status == StatusRunning
}

// Transition is a change of availability that happened during a step
type Transition int

const (
	TransitionNone Transition = iota
	TransitionBreakdown
	TransitionMaintenance
	TransitionRepaired
)

// Machine is the breakdown and maintenance state machine of one machine
type Machine struct {
	cfg    config.Machine
	checks map[int]bool
	state  MachineState
}

// NewMachine creates a running machine. When checks is nil, scheduled
// maintenance checks follow the configured interval.
func NewMachine(cfg config.Machine, checks map[int]bool) *Machine {
	return &Machine{
		cfg:    cfg,
		checks: checks,
		state:  MachineState{Status: StatusRunning},
	}
}

// ID returns the configured machine id
func (m *Machine) ID() string {
	return m.cfg.ID
}

// State returns the machine state at the end of the last step
func (m *Machine) State() MachineState {
	return m.state
}

func (m *Machine) scheduledCheck(t int) bool {
	if m.checks != nil {
		return m.checks[t]
	}
	return t > 0 && t%m.cfg.MaintenanceInterval == 0
}

// Advance moves the machine through step t. Timers are honoured before any
// new transition is drawn; at most one transition happens per step.
// It returns the transition taken and, for breakdowns and maintenance, the
// number of further steps the machine stays down.
func (m *Machine) Advance(t int, shift Shift, op OperatorState, noiseLevel float64, rng *RandomStream) (Transition, int) {
	wasRunning := m.state.Running()
	transition, duration := TransitionNone, 0

	switch {
	case m.state.DowntimeRemaining > 0:
		m.state.Status = StatusBroken
		m.state.DowntimeRemaining--

	case m.state.MaintenanceRemaining > 0:
		m.state.Status = StatusMaintenance
		m.state.MaintenanceRemaining--

	case m.scheduledCheck(t):
		switch {
		case rng.Float64() < m.cfg.MaintenanceProb:
			duration = rng.IntRange(m.cfg.MaintenanceMinSteps, m.cfg.MaintenanceMaxSteps)
			m.state.Status = StatusMaintenance
			m.state.MaintenanceRemaining = duration
			transition = TransitionMaintenance
		case rng.Float64() < m.cfg.BreakdownProb*m.cfg.OverdueFactor:
			transition, duration = m.breakDown(rng)
		default:
			m.state.Status = StatusRunning
		}

	default:
		if rng.Float64() < m.cfg.BreakdownProb {
			transition, duration = m.breakDown(rng)
		} else {
			m.state.Status = StatusRunning
		}
	}

	if m.state.Running() {
		speed := m.cfg.ServiceRate * shift.Factor * (0.8 + 0.4*op.Skill) * (1.1 - 0.3*op.Fatigue)
		m.state.Speed = math.Max(speed+rng.Normal(noiseLevel), 0)
		if !wasRunning {
			transition = TransitionRepaired
		}
	} else {
		m.state.Speed = 0
	}

	return transition, duration
}

func (m *Machine) breakDown(rng *RandomStream) (Transition, int) {
	downtime := rng.Poisson(m.cfg.AvgDowntime)
	m.state.Status = StatusBroken
	m.state.DowntimeRemaining = downtime
	return TransitionBreakdown, downtime
}
