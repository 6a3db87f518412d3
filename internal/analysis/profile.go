package analysis

import (
	"fmt"
	"strings"
)

// HourAverage is the mean usage of all readings sharing one hour of day.
type HourAverage struct {
	Hour  int     `json:"hour" yaml:"hour"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Count int     `json:"count" yaml:"count"`
}

// HourlyProfile has one entry per hour present in the data, ascending by hour.
type HourlyProfile []HourAverage

// Lookup returns the mean for hour h.
func (p HourlyProfile) Lookup(h int) (float64, bool) {
	for _, e := range p {
		if e.Hour == h {
			return e.Mean, true
		}
	}
	return 0, false
}

// Hours returns the hours present.
func (p HourlyProfile) Hours() []int {
	out := make([]int, len(p))
	for i, e := range p {
		out[i] = e.Hour
	}
	return out
}

// Means returns the per-hour means in hour order.
func (p HourlyProfile) Means() []float64 {
	out := make([]float64, len(p))
	for i, e := range p {
		out[i] = e.Mean
	}
	return out
}

// Markdown renders a compact summary of the report, including the hourly
// profile table flagged with high-usage hours.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[USAGE SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (readings %d)\n", r.Rows, r.Readings))
	if r.Readings > 0 {
		b.WriteString(fmt.Sprintf("Usage: min %.4g, max %.4g, mean %.4g, std %.4g (%s)\n", r.Usage.Min, r.Usage.Max, r.Usage.Mean, r.Usage.Std, r.Estimator))
	}

	b.WriteString("\n[HOURLY PROFILE]\n")
	if len(r.Profile) == 0 {
		b.WriteString("(no readings)\n")
	} else {
		high := map[int]bool{}
		if r.HighUsage != nil {
			for _, h := range r.HighUsage.Hours {
				high[h] = true
			}
			b.WriteString(fmt.Sprintf("High-usage threshold: %.4g\n", r.HighUsage.Threshold))
		}
		b.WriteString("| hour | mean | n | high |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, e := range r.Profile {
			mark := ""
			if high[e.Hour] {
				mark = "yes"
			}
			b.WriteString(fmt.Sprintf("| %02d:00 | %.4g | %d | %s |\n", e.Hour, e.Mean, e.Count, mark))
		}
	}

	b.WriteString("\n[ANOMALIES]\n")
	b.WriteString(fmt.Sprintf("Threshold: %.4g\n", r.AnomalyThreshold))
	if len(r.Anomalies) == 0 {
		b.WriteString("(none)\n")
	}
	for _, a := range r.Anomalies {
		b.WriteString(fmt.Sprintf("- row %d @ %s: %.4g\n", a.Row, a.Timestamp.Format("2006-01-02 15:04:05"), a.Usage))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
