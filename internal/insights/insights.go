// Package insights turns an analysis report into short recommendations.
package insights

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/energy-insights/internal/analysis"
)

// Insight is one recommendation line.
type Insight string

const anomalyNote Insight = "There are anomalies in energy usage that might need investigation, such as potential faulty appliances."

// Options tunes which recommendations are emitted.
type Options struct {
	// SkipEmptyHighUsage drops the high-usage note when no hour was flagged.
	// By default the note is emitted whenever high usage was evaluated.
	SkipEmptyHighUsage bool
}

// Error reports a failure while generating insights.
type Error struct{ Err error }

func (e *Error) Error() string { return fmt.Sprintf("Error in generating insights: %v", e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Generate returns insights in fixed order: high-usage note, then anomaly
// note. On failure it returns an empty slice together with an *Error.
func Generate(rep *analysis.Report, opt Options) ([]Insight, error) {
	if rep == nil {
		return []Insight{}, &Error{Err: errors.New("no report")}
	}
	out := []Insight{}
	if hu := rep.HighUsage; hu != nil && !(opt.SkipEmptyHighUsage && len(hu.Hours) == 0) {
		out = append(out, Insight("Consider adjusting activities or appliances usage during these high usage hours: "+formatHours(hu.Hours)))
	}
	if len(rep.Anomalies) > 0 {
		out = append(out, anomalyNote)
	}
	return out, nil
}

// formatHours renders hours as a bracketed list, e.g. "[8, 20]".
func formatHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = strconv.Itoa(h)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
