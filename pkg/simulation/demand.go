package simulation

import (
	"math"

	"github.com/sherine-k/prodtwin/pkg/config"
)

const (
	weekSteps         = 7 * config.StepsPerDay
	priorityMixPeriod = 2 * config.StepsPerDay
)

// Arrivals is the work entering the line during one step
type Arrivals struct {
	Normal   int
	Priority int
	Spike    bool
}

// Total returns all units that arrived
func (a Arrivals) Total() int {
	return a.Normal + a.Priority
}

// DemandGenerator produces the arrivals of each step from a daily and weekly
// seasonal pattern, rare demand spikes and occasional batch orders.
type DemandGenerator struct {
	cfg config.Demand
	dt  float64
}

// NewDemandGenerator creates a generator for the given demand parameters
func NewDemandGenerator(cfg config.Demand, dt float64) *DemandGenerator {
	return &DemandGenerator{cfg: cfg, dt: dt}
}

// Next draws the arrivals of step t.
func (d *DemandGenerator) Next(t int, shiftFactor float64, rng *RandomStream) Arrivals {
	step := float64(t)
	daily := 1 + 0.3*math.Sin(2*math.Pi*step/config.StepsPerDay)
	weekly := 1 + 0.2*math.Sin(2*math.Pi*step/weekSteps)

	spike := rng.Float64() < d.cfg.SpikeProb
	spikeFactor := 1.0
	if spike {
		spikeFactor = d.cfg.SpikeFactor
	}

	batch := 0
	if i := rng.Choice(d.cfg.BatchWeights); i >= 0 {
		batch = d.cfg.BatchSizes[i]
	}

	lambda := d.cfg.BaseArrival * daily * weekly * shiftFactor * spikeFactor * d.dt
	arrivals := rng.Poisson(lambda) + batch

	priorityRatio := 0.15 + 0.1*math.Sin(2*math.Pi*step/priorityMixPeriod)
	priority := int(math.Floor(float64(arrivals) * priorityRatio))

	return Arrivals{
		Normal:   arrivals - priority,
		Priority: priority,
		Spike:    spike,
	}
}
