package simulation

import (
	"math"

	"github.com/sherine-k/prodtwin/pkg/config"
)

// shiftCycle is the length in steps of one operator work cycle. Skill ramps
// up within a cycle and fatigue is reset when a new one begins.
const shiftCycle = 48

const (
	minSkill   = 0.3
	maxSkill   = 1.0
	minFatigue = 0.1
	maxFatigue = 1.0
	minLoad    = 0.1
	maxLoad    = 1.0
)

// OperatorState is the operator's condition during one step
type OperatorState struct {
	Skill   float64
	Fatigue float64
	Load    float64
}

// Operator evolves the crew's skill and fatigue over time
type Operator struct {
	fatigueRate float64
	dt          float64
	state       OperatorState
}

// NewOperator creates an operator in its configured initial state
func NewOperator(cfg config.Operator, dt float64) *Operator {
	return &Operator{
		fatigueRate: cfg.FatigueRate,
		dt:          dt,
		state: OperatorState{
			Skill:   cfg.InitialSkill,
			Fatigue: cfg.InitialFatigue,
			Load:    cfg.InitialLoad,
		},
	}
}

// Advance moves the operator to step t and returns the new state.
func (o *Operator) Advance(t int, rng *RandomStream) OperatorState {
	timeInShift := t % shiftCycle

	progress := sigmoid(0.1 * float64(timeInShift-shiftCycle/2))
	o.state.Skill = minSkill + (maxSkill-minSkill)*progress

	o.state.Fatigue = clamp(o.state.Fatigue+o.fatigueRate*o.dt, minFatigue, maxFatigue)
	if timeInShift == 0 && t > 0 {
		o.state.Fatigue = 0.3 + 0.1*rng.Float64()
	}

	o.state.Load = clamp(0.5+0.4*o.state.Fatigue-0.2*(o.state.Skill-0.5), minLoad, maxLoad)

	return o.state
}

// State returns the current operator state
func (o *Operator) State() OperatorState {
	return o.state
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
