package simulation

import "github.com/sherine-k/prodtwin/pkg/config"

const stepsPerHour = config.StepsPerDay / 24

// Shift describes the crew working a given step.
type Shift struct {
	Hour   int
	ID     int
	Factor float64
}

// ShiftAt maps a step onto the hour of the simulated day and the shift
// working that hour: day shift 06-14, evening shift 14-22, night otherwise.
func ShiftAt(step int) Shift {
	hour := (step % config.StepsPerDay) / stepsPerHour

	switch {
	case hour >= 6 && hour < 14:
		return Shift{Hour: hour, ID: 1, Factor: 1.20}
	case hour >= 14 && hour < 22:
		return Shift{Hour: hour, ID: 2, Factor: 1.00}
	default:
		return Shift{Hour: hour, ID: 3, Factor: 0.85}
	}
}
