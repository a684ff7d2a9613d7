package simulation

// MachineReading is one machine's contribution to a step record
type MachineReading struct {
	ID          string
	Status      int
	Speed       float64
	Maintenance int
}

// StepRecord is the immutable snapshot of one simulated step
type StepRecord struct {
	Time            float64
	Step            int
	Hour            int
	ShiftID         int
	NormalQueue     int
	PriorityQueue   int
	WIPTotal        int
	CompletedJobs   int
	DefectRate      float64
	Defects         int
	Energy          float64
	OperatorLoad    float64
	OperatorSkill   float64
	OperatorFatigue float64
	Machines        []MachineReading
	DemandSpikeFlag int

	// Processed is the total volume the machines took off the queues. It is
	// not an output column; Processed == CompletedJobs + Defects.
	Processed int
}

func readings(machines []*Machine) []MachineReading {
	out := make([]MachineReading, len(machines))
	for i, m := range machines {
		state := m.State()
		out[i] = MachineReading{
			ID:     m.ID(),
			Status: flag(state.Running()),
			Speed:  state.Speed,
		}
		if state.Status == StatusMaintenance {
			out[i].Maintenance = 1
		}
	}
	return out
}

// recordedDefectRate is the rate reported for a step. Steps without
// completed jobs report zero.
func recordedDefectRate(tp Throughput) float64 {
	if tp.Completed > 0 {
		return tp.DefectRate
	}
	return 0
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
