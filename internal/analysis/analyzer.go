// Package analysis derives hourly usage profiles and outlier flags from a
// loaded usage dataset.
package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/energy-insights/internal/loader"
	"github.com/KaramelBytes/energy-insights/internal/log"
	"gonum.org/v1/gonum/floats"
)

// DefaultUsageColumn is the numeric column analyzed unless overridden.
const DefaultUsageColumn = "usage"

// Options controls thresholds and column selection.
type Options struct {
	UsageColumn string
	// HighUsageSigma is k in: hour mean > mean(hour means) + k*std(hour means).
	HighUsageSigma float64
	// AnomalySigma is k in: reading > mean(readings) + k*std(readings).
	AnomalySigma float64
	Estimator    Estimator
}

// DefaultOptions returns one sigma for hours, two for readings, sample std.
func DefaultOptions() Options {
	return Options{
		UsageColumn:    DefaultUsageColumn,
		HighUsageSigma: 1,
		AnomalySigma:   2,
		Estimator:      Sample,
	}
}

// Report is the result of one analysis run.
type Report struct {
	Source    string        `json:"source,omitempty" yaml:"source,omitempty"`
	Rows      int           `json:"rows" yaml:"rows"`
	Readings  int           `json:"readings" yaml:"readings"`
	Estimator Estimator     `json:"estimator" yaml:"estimator"`
	Usage     Summary       `json:"usage" yaml:"usage"`
	Profile   HourlyProfile `json:"hourly_profile" yaml:"hourly_profile"`
	// HighUsage is nil when high-usage hours were not evaluated.
	HighUsage        *HighUsage `json:"high_usage,omitempty" yaml:"high_usage,omitempty"`
	AnomalyThreshold float64    `json:"anomaly_threshold" yaml:"anomaly_threshold"`
	Anomalies        []Anomaly  `json:"anomalies" yaml:"anomalies"`
	Warnings         []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Summary holds descriptive statistics of the raw readings.
type Summary struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// HighUsage lists hours whose mean exceeds Threshold, ascending.
type HighUsage struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Hours     []int   `json:"hours" yaml:"hours"`
}

// Anomaly is a single reading above the anomaly threshold.
type Anomaly struct {
	Row       int           `json:"row" yaml:"row"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Usage     float64       `json:"usage" yaml:"usage"`
	Record    loader.Record `json:"-" yaml:"-"`
}

// Analyze computes the hourly profile, high-usage hours and anomalies. On
// failure it returns a *MissingColumnError or *UnexpectedError and no report.
func Analyze(ds *loader.Dataset, opt Options) (*Report, error) {
	if ds == nil {
		return nil, &UnexpectedError{Err: errors.New("no dataset")}
	}
	tsName := ds.TimestampColumn
	if tsName == "" {
		tsName = loader.DefaultTimestampColumn
	}
	if _, ok := ds.ColumnIndex(tsName); !ok {
		return nil, &MissingColumnError{Column: tsName}
	}
	usageName := opt.UsageColumn
	if usageName == "" {
		usageName = DefaultUsageColumn
	}
	uIdx, ok := ds.ColumnIndex(usageName)
	if !ok {
		return nil, &MissingColumnError{Column: usageName}
	}
	est := opt.Estimator
	if est == "" {
		est = Sample
	}

	rep := &Report{Source: ds.Name, Rows: ds.Len(), Estimator: est, Anomalies: []Anomaly{}}

	type reading struct {
		rec   loader.Record
		value float64
	}
	readings := make([]reading, 0, ds.Len())
	var missing int
	for _, rec := range ds.Records {
		cell := rec.Field(uIdx)
		if isMissing(cell) {
			missing++
			continue
		}
		v, ok := parseUsage(cell)
		if !ok {
			return nil, &UnexpectedError{Err: fmt.Errorf("row %d: non-numeric %s value %q", rec.Row, usageName, cell)}
		}
		readings = append(readings, reading{rec: rec, value: v})
	}
	rep.Readings = len(readings)
	if missing > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d/%d rows have no %s value and were skipped", missing, rep.Rows, usageName))
		log.Warnw("skipped rows without usage", "column", usageName, "missing", missing, "rows", rep.Rows)
	}

	values := make([]float64, len(readings))
	hours := make([]int, len(readings))
	for i, r := range readings {
		values[i] = r.value
		hours[i] = r.rec.Hour()
	}
	rep.Profile = buildProfile(hours, values)

	hourMeans := rep.Profile.Means()
	hMean, hStd := meanStd(hourMeans, est)
	hu := &HighUsage{Threshold: hMean + opt.HighUsageSigma*hStd, Hours: []int{}}
	for _, h := range rep.Profile {
		if !negligibleSpread(hMean, hStd) && h.Mean > hu.Threshold {
			hu.Hours = append(hu.Hours, h.Hour)
		}
	}
	rep.HighUsage = hu

	uMean, uStd := meanStd(values, est)
	rep.Usage = Summary{Mean: uMean, Std: uStd}
	if len(values) > 0 {
		rep.Usage.Min, rep.Usage.Max = values[0], values[0]
		for _, v := range values[1:] {
			if v < rep.Usage.Min {
				rep.Usage.Min = v
			}
			if v > rep.Usage.Max {
				rep.Usage.Max = v
			}
		}
	}
	rep.AnomalyThreshold = uMean + opt.AnomalySigma*uStd
	for _, r := range readings {
		if !negligibleSpread(uMean, uStd) && r.value > rep.AnomalyThreshold {
			rep.Anomalies = append(rep.Anomalies, Anomaly{Row: r.rec.Row, Timestamp: r.rec.Timestamp, Usage: r.value, Record: r.rec})
		}
	}

	log.Debugw("analyzed usage",
		"readings", rep.Readings,
		"hours", len(rep.Profile),
		"high_usage_threshold", hu.Threshold,
		"high_usage_hours", hu.Hours,
		"anomaly_threshold", rep.AnomalyThreshold,
		"anomalies", len(rep.Anomalies),
	)
	return rep, nil
}

func isMissing(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "nan", "na", "n/a", "null", "none":
		return true
	}
	return false
}

func buildProfile(hours []int, values []float64) HourlyProfile {
	var byHour [24][]float64
	for i, h := range hours {
		byHour[h] = append(byHour[h], values[i])
	}
	p := HourlyProfile{}
	for h, xs := range byHour {
		if len(xs) == 0 {
			continue
		}
		p = append(p, HourAverage{Hour: h, Mean: floats.SumCompensated(xs) / float64(len(xs)), Count: len(xs)})
	}
	return p
}
