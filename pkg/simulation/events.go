package simulation

import (
	"time"
)

// EventType defines the type of event in the simulation
type EventType string

const (
	EventTypeBreakdown         EventType = "machine-breakdown"
	EventTypeMaintenance       EventType = "maintenance-started"
	EventTypeRepaired          EventType = "machine-repaired"
	EventTypeDemandSpike       EventType = "demand-spike"
	EventTypeWIPThresholdCross EventType = "wip-threshold-exceeded"
)

// Event represents a point-in-time event in the simulation
type Event struct {
	Time      time.Time
	Step      int
	Type      EventType
	Machine   string
	Duration  int
	WIP       int
	Message   string
	IsWarning bool
}
