package simulation

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownColumn is returned when a column name is not part of the table
var ErrUnknownColumn = errors.New("unknown column")

// Table is the ordered output of a run: one record per step plus the
// columns derived once all steps are known.
type Table struct {
	Records    []StepRecord
	MachineIDs []string

	QueueLength   []float64
	LeadTime      []float64
	MachineStatus []float64

	columns []column
	index   map[string]int
}

type column struct {
	name  string
	value func(t *Table, i int) float64
}

// NewTable builds a table from records and derives queue_length, lead_time
// and machine_status.
func NewTable(records []StepRecord, machineIDs []string) *Table {
	t := &Table{
		Records:    records,
		MachineIDs: machineIDs,
	}
	t.derive()
	t.columns = buildColumns(machineIDs)
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c.name] = i
	}
	return t
}

// derive fills the post-loop columns. Lead time is WIP over completed jobs,
// carried forward through steps without completions; steps before the first
// completion use the mean WIP of the whole table.
func (t *Table) derive() {
	n := len(t.Records)
	t.QueueLength = make([]float64, n)
	t.LeadTime = make([]float64, n)
	t.MachineStatus = make([]float64, n)

	wipSum := 0.0
	for _, r := range t.Records {
		wipSum += float64(r.WIPTotal)
	}
	meanWIP := 0.0
	if n > 0 {
		meanWIP = wipSum / float64(n)
	}

	last := math.NaN()
	for i, r := range t.Records {
		t.QueueLength[i] = float64(r.WIPTotal)

		if r.CompletedJobs > 0 {
			last = float64(r.WIPTotal) / float64(r.CompletedJobs)
		}
		t.LeadTime[i] = last

		if len(r.Machines) > 0 {
			running := 0
			for _, m := range r.Machines {
				running += m.Status
			}
			t.MachineStatus[i] = float64(running) / float64(len(r.Machines))
		}
	}

	for i := 0; i < n && math.IsNaN(t.LeadTime[i]); i++ {
		t.LeadTime[i] = meanWIP
	}
}

func buildColumns(machineIDs []string) []column {
	cols := []column{
		{"time", func(t *Table, i int) float64 { return t.Records[i].Time }},
		{"step", func(t *Table, i int) float64 { return float64(t.Records[i].Step) }},
		{"hour", func(t *Table, i int) float64 { return float64(t.Records[i].Hour) }},
		{"shift_id", func(t *Table, i int) float64 { return float64(t.Records[i].ShiftID) }},
		{"normal_queue", func(t *Table, i int) float64 { return float64(t.Records[i].NormalQueue) }},
		{"priority_queue", func(t *Table, i int) float64 { return float64(t.Records[i].PriorityQueue) }},
		{"wip_total", func(t *Table, i int) float64 { return float64(t.Records[i].WIPTotal) }},
		{"completed_jobs", func(t *Table, i int) float64 { return float64(t.Records[i].CompletedJobs) }},
		{"defect_rate", func(t *Table, i int) float64 { return t.Records[i].DefectRate }},
		{"defects", func(t *Table, i int) float64 { return float64(t.Records[i].Defects) }},
		{"energy_consumption", func(t *Table, i int) float64 { return t.Records[i].Energy }},
		{"operator_load", func(t *Table, i int) float64 { return t.Records[i].OperatorLoad }},
		{"operator_skill", func(t *Table, i int) float64 { return t.Records[i].OperatorSkill }},
		{"operator_fatigue", func(t *Table, i int) float64 { return t.Records[i].OperatorFatigue }},
	}

	for k, id := range machineIDs {
		cols = append(cols, column{"machine_" + id + "_status", func(t *Table, i int) float64 {
			return float64(t.Records[i].Machines[k].Status)
		}})
	}
	for k, id := range machineIDs {
		cols = append(cols, column{"machine_" + id + "_speed", func(t *Table, i int) float64 {
			return t.Records[i].Machines[k].Speed
		}})
	}
	for k, id := range machineIDs {
		cols = append(cols, column{"maintenance_" + id, func(t *Table, i int) float64 {
			return float64(t.Records[i].Machines[k].Maintenance)
		}})
	}

	return append(cols,
		column{"demand_spike_flag", func(t *Table, i int) float64 { return float64(t.Records[i].DemandSpikeFlag) }},
		column{"queue_length", func(t *Table, i int) float64 { return t.QueueLength[i] }},
		column{"lead_time", func(t *Table, i int) float64 { return t.LeadTime[i] }},
		column{"machine_status", func(t *Table, i int) float64 { return t.MachineStatus[i] }},
	)
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.Records)
}

// Columns returns the column names in output order
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Column returns a copy of the named column
func (t *Table) Column(name string) ([]float64, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	values := make([]float64, len(t.Records))
	for i := range t.Records {
		values[i] = t.columns[idx].value(t, i)
	}
	return values, nil
}

// Row returns the values of record i in column order
func (t *Table) Row(i int) []float64 {
	row := make([]float64, len(t.columns))
	for k, c := range t.columns {
		row[k] = c.value(t, i)
	}
	return row
}
