package simulation

import (
	"fmt"
	"math"
)

const maxDefectRate = 0.4

// QueueState holds the units waiting in front of the line
type QueueState struct {
	Normal   int
	Priority int
}

// WIP returns the total work in progress
func (q QueueState) WIP() int {
	return q.Normal + q.Priority
}

// Add enqueues arrivals
func (q *QueueState) Add(a Arrivals) {
	q.Normal += a.Normal
	q.Priority += a.Priority
}

// Throughput summarises the work done by all machines in one step
type Throughput struct {
	Processed  int
	Completed  int
	Defects    int
	DefectRate float64
}

// QueueProcessor drains the queues through the machines' capacity
type QueueProcessor struct {
	defectBase float64
	dt         float64
}

// NewQueueProcessor creates a processor with the given base defect rate
func NewQueueProcessor(defectBase, dt float64) *QueueProcessor {
	return &QueueProcessor{defectBase: defectBase, dt: dt}
}

// DefectRate returns the share of processed units that turn out defective
// under the given operator state and line availability.
func (p *QueueProcessor) DefectRate(op OperatorState, availability float64) float64 {
	rate := p.defectBase +
		0.1*op.Fatigue +
		0.05*(1-op.Skill) +
		0.05*(1-availability)
	return clamp(rate, 0, maxDefectRate)
}

// Process lets every machine, in order, serve the priority queue first and
// then the normal queue up to its capacity. Defective units go straight back
// into the normal queue, where later machines of the same step may pick them
// up again.
func (p *QueueProcessor) Process(q *QueueState, machines []*Machine, op OperatorState, rng *RandomStream) Throughput {
	rate := p.DefectRate(op, Availability(machines))
	result := Throughput{DefectRate: rate}

	for _, m := range machines {
		capacity := int(math.Max(math.RoundToEven(m.State().Speed*p.dt), 0))
		if capacity == 0 {
			continue
		}

		fromPriority := min(q.Priority, capacity)
		q.Priority -= fromPriority
		fromNormal := min(q.Normal, capacity-fromPriority)
		q.Normal -= fromNormal

		processed := fromPriority + fromNormal
		if processed == 0 {
			continue
		}

		defects := rng.Binomial(processed, rate)
		q.Normal += defects

		result.Processed += processed
		result.Completed += processed - defects
		result.Defects += defects
	}

	if q.Normal < 0 || q.Priority < 0 {
		panic(fmt.Sprintf("negative queue after processing: normal=%d priority=%d", q.Normal, q.Priority))
	}

	return result
}

// Availability returns the share of machines currently running
func Availability(machines []*Machine) float64 {
	if len(machines) == 0 {
		return 0
	}
	running := 0
	for _, m := range machines {
		if m.State().Running() {
			running++
		}
	}
	return float64(running) / float64(len(machines))
}
