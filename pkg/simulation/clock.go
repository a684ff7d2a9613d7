package simulation

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sherine-k/prodtwin/pkg/config"
)

// Clock maps steps onto simulated wall-clock time
type Clock struct {
	start time.Time
	step  time.Duration
}

// NewClock creates a clock from the configuration
func NewClock(cfg config.Clock) Clock {
	return Clock{start: cfg.Start, step: cfg.StepDuration}
}

// Time returns the simulated timestamp of a step
func (c Clock) Time(step int) time.Time {
	return c.start.Add(time.Duration(step) * c.step)
}

// CheckSteps expands a cron schedule into the set of steps below horizon on
// which it fires. Step 0 never counts as a check.
func (c Clock) CheckSteps(schedule cron.Schedule, horizon int) map[int]bool {
	steps := make(map[int]bool)
	end := c.Time(horizon)

	current := c.start
	for {
		next := schedule.Next(current)
		if next.IsZero() || !next.Before(end) {
			break
		}

		step := int(next.Sub(c.start) / c.step)
		if step > 0 && step < horizon {
			steps[step] = true
		}
		current = next
	}

	return steps
}
