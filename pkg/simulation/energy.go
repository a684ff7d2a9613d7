package simulation

import "github.com/sherine-k/prodtwin/pkg/config"

// idleFraction is the share of the idle draw a stopped machine still uses.
const idleFraction = 0.3

// EnergyMeter tallies the energy drawn by the line
type EnergyMeter struct {
	cfg   config.Energy
	dt    float64
	total float64
}

// NewEnergyMeter creates a meter with the given coefficients
func NewEnergyMeter(cfg config.Energy, dt float64) *EnergyMeter {
	return &EnergyMeter{cfg: cfg, dt: dt}
}

// Measure returns the energy drawn by all machines during the last step and
// adds it to the running total.
func (e *EnergyMeter) Measure(machines []*Machine) float64 {
	step := 0.0
	for _, m := range machines {
		step += e.draw(m.State())
	}
	e.total += step
	return step
}

// Total returns the energy drawn since the meter was created
func (e *EnergyMeter) Total() float64 {
	return e.total
}

func (e *EnergyMeter) draw(state MachineState) float64 {
	if !state.Running() {
		return e.cfg.Idle * idleFraction * e.dt
	}
	return (e.cfg.Idle + e.cfg.PerSpeed*state.Speed) * e.dt
}
