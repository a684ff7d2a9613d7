package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sherine-k/prodtwin/pkg/config"
	"github.com/sherine-k/prodtwin/pkg/simulation"
)

const (
	chartWidth  = 80
	chartHeight = 12
)

// Generator generates ASCII charts
type Generator struct {
	width  int
	height int
}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{
		width:  chartWidth,
		height: chartHeight,
	}
}

// GenerateSeriesChart generates an ASCII chart of one table column over
// the last tail steps (all steps when tail <= 0).
func (g *Generator) GenerateSeriesChart(table *simulation.Table, column string, tail int) (string, error) {
	values, err := table.Column(column)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "No data to display", nil
	}

	first := 0
	if tail > 0 && tail < len(values) {
		first = len(values) - tail
	}
	values = values[first:]

	var sb strings.Builder

	// Header
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s (steps %d-%d)\n", column, first, first+len(values)-1))
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > 0 {
		lo = 0
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	plotWidth := g.width - 12

	// Build the chart from top to bottom
	for row := g.height; row >= 1; row-- {
		threshold := lo + span*float64(row)/float64(g.height)
		sb.WriteString(fmt.Sprintf("%9.2f |", threshold))

		for x := 0; x < len(values) && x < plotWidth; x++ {
			pointIndex := int(float64(x) / float64(plotWidth) * float64(len(values)))
			if len(values) <= plotWidth {
				pointIndex = x
			}

			cellBottom := lo + span*float64(row-1)/float64(g.height)
			if values[pointIndex] > cellBottom {
				sb.WriteString("█")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	// X-axis
	sb.WriteString("          +")
	sb.WriteString(strings.Repeat("-", plotWidth))
	sb.WriteString("\n")

	// X-axis labels - show marks at every simulated day boundary
	labelLine := make([]rune, plotWidth)
	for i := range labelLine {
		labelLine[i] = ' '
	}
	plotted := min(len(values), plotWidth)
	for step := first; step < first+len(values); step++ {
		if step%config.StepsPerDay != 0 {
			continue
		}

		position := int(float64(step-first) / float64(len(values)) * float64(plotted))
		marker := fmt.Sprintf("%dd", step/config.StepsPerDay)

		// Place marker if it fits
		if position+len(marker) <= plotWidth {
			for i, ch := range marker {
				labelLine[position+i] = ch
			}
		}
	}
	sb.WriteString("           ")
	sb.WriteString(string(labelLine))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("min %.2f  max %.2f  last %.2f\n", minOf(values), hi, values[len(values)-1]))

	return sb.String(), nil
}

// dashboardColumns are the panels of the default dashboard
var dashboardColumns = []string{"lead_time", "queue_length", "energy_consumption", "defects"}

// stateColumns make up the state vector shown under the dashboard panels
var stateColumns = []string{"queue_length", "operator_load", "machine_status", "lead_time"}

// GenerateDashboard generates one series chart per dashboard panel over the
// last tail steps, followed by the state vector of the last step.
func (g *Generator) GenerateDashboard(table *simulation.Table, tail int) (string, error) {
	var sb strings.Builder

	for _, column := range dashboardColumns {
		panel, err := g.GenerateSeriesChart(table, column, tail)
		if err != nil {
			return "", err
		}
		sb.WriteString(panel)
	}

	if table.Len() == 0 {
		return sb.String(), nil
	}

	state := make([]string, len(stateColumns))
	for i, column := range stateColumns {
		values, err := table.Column(column)
		if err != nil {
			return "", err
		}
		state[i] = fmt.Sprintf("%s=%.2f", column, values[len(values)-1])
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("State: [%s]\n", strings.Join(state, " ")))

	return sb.String(), nil
}

// GenerateMachineStatus generates the state of every machine at the last step
func (g *Generator) GenerateMachineStatus(table *simulation.Table) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Machine Status\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	if table.Len() == 0 {
		sb.WriteString("No data to display\n")
		return sb.String()
	}

	last := table.Records[table.Len()-1]
	for _, m := range last.Machines {
		state := "DOWN"
		switch {
		case m.Maintenance == 1:
			state = "MAINTENANCE"
		case m.Status == 1:
			state = "RUNNING"
		}
		sb.WriteString(fmt.Sprintf("  Machine %-4s %-12s speed %.2f\n", m.ID, state, m.Speed))
	}
	sb.WriteString(fmt.Sprintf("\n  Line availability: %.0f%%\n", table.MachineStatus[table.Len()-1]*100))
	sb.WriteString(fmt.Sprintf("  Operator load: %.2f  WIP: %d  Lead time: %.2f\n",
		last.OperatorLoad, last.WIPTotal, table.LeadTime[table.Len()-1]))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateEventSummary generates a summary of events
func (g *Generator) GenerateEventSummary(events []simulation.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Event Summary\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	// Group events by type
	eventsByType := make(map[simulation.EventType]int)
	for _, event := range events {
		eventsByType[event.Type]++
	}

	sb.WriteString(fmt.Sprintf("Total Events: %d\n", len(events)))
	sb.WriteString(fmt.Sprintf("  - Breakdowns: %d\n", eventsByType[simulation.EventTypeBreakdown]))
	sb.WriteString(fmt.Sprintf("  - Maintenance Started: %d\n", eventsByType[simulation.EventTypeMaintenance]))
	sb.WriteString(fmt.Sprintf("  - Machines Repaired: %d\n", eventsByType[simulation.EventTypeRepaired]))
	sb.WriteString(fmt.Sprintf("  - Demand Spikes: %d\n", eventsByType[simulation.EventTypeDemandSpike]))
	sb.WriteString(fmt.Sprintf("  - WIP Threshold Exceeded: %d\n", eventsByType[simulation.EventTypeWIPThresholdCross]))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateWarnings generates a list of warnings
func (g *Generator) GenerateWarnings(warnings []simulation.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Warnings\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	if len(warnings) == 0 {
		sb.WriteString("No warnings!\n")
		return sb.String()
	}

	for _, warning := range warnings {
		timestamp := warning.Time.Format("2006-01-02 15:04")
		sb.WriteString(fmt.Sprintf("[%s] %s\n", timestamp, warning.Message))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total Warnings: %d\n", len(warnings)))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateDetailedTimeline generates a detailed timeline of events
func (g *Generator) GenerateDetailedTimeline(events []simulation.Event, stepDuration time.Duration, limit int) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Detailed Timeline")
	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf(" (showing first %d events)", limit))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	displayCount := len(events)
	if limit > 0 && limit < displayCount {
		displayCount = limit
	}

	for i := 0; i < displayCount; i++ {
		event := events[i]
		timestamp := event.Time.Format("Jan 02 15:04")

		typeIcon := " "
		switch event.Type {
		case simulation.EventTypeBreakdown:
			typeIcon = "X"
		case simulation.EventTypeMaintenance:
			typeIcon = "M"
		case simulation.EventTypeRepaired:
			typeIcon = "+"
		case simulation.EventTypeDemandSpike:
			typeIcon = "^"
		case simulation.EventTypeWIPThresholdCross:
			typeIcon = "!"
		}

		sb.WriteString(fmt.Sprintf("[%s] %s [step %d] %s", timestamp, typeIcon, event.Step, event.Message))
		if event.Duration > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", FormatDuration(time.Duration(event.Duration)*stepDuration)))
		}
		sb.WriteString("\n")
	}

	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf("\n... and %d more events\n", len(events)-limit))
	}

	sb.WriteString("\n")

	return sb.String()
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}
