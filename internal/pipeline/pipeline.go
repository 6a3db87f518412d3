// Package pipeline runs load, analysis and insight generation in sequence and
// prints the outcome.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/KaramelBytes/energy-insights/internal/analysis"
	"github.com/KaramelBytes/energy-insights/internal/insights"
	"github.com/KaramelBytes/energy-insights/internal/loader"
	"github.com/KaramelBytes/energy-insights/internal/log"
	"github.com/google/uuid"
)

// DefaultDataFile is read when no path is given.
const DefaultDataFile = "energy_usage_data.csv"

// Stage names a pipeline step.
type Stage string

const (
	StageLoad     Stage = "load"
	StageAnalyze  Stage = "analyze"
	StageInsights Stage = "insights"
)

// Options bundles per-stage options and output rendering.
type Options struct {
	Loader   loader.Options
	Analysis analysis.Options
	Insights insights.Options
	Format   Format
	// ShowProfile appends the hourly profile summary to text output.
	ShowProfile bool
}

// DefaultOptions mirrors the no-argument run.
func DefaultOptions() Options {
	return Options{
		Loader:   loader.DefaultOptions(),
		Analysis: analysis.DefaultOptions(),
		Format:   FormatText,
	}
}

// Result is everything one run produced.
type Result struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	Source      string             `json:"source" yaml:"source"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Report      *analysis.Report   `json:"report,omitempty" yaml:"report,omitempty"`
	Insights    []insights.Insight `json:"insights" yaml:"insights"`
	// Errors holds stage messages that structured output carries instead of
	// printing them ahead of the document.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// generateInsights is swapped in tests to exercise the insight failure path.
var generateInsights = insights.Generate

// StageError records which step failed. Its message is the step's own
// message, which is what gets printed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Run executes the pipeline on path and writes output to w.
//
// A load or analysis failure prints that stage's message and stops; the
// result is nil. An insight failure prints its message and still renders the
// result with no insights; for JSON and YAML the message goes into
// Result.Errors rather than ahead of the document. In every failure case the *StageError is returned
// so callers can pick an exit status; the output has already been written.
func Run(w io.Writer, path string, opt Options) (*Result, error) {
	if path == "" {
		path = DefaultDataFile
	}
	runID := uuid.NewString()
	log.Debugw("pipeline start", "run_id", runID, "path", path)

	ds, err := loader.Load(path, opt.Loader)
	if err != nil {
		return nil, fail(w, StageLoad, err)
	}
	rep, err := analysis.Analyze(ds, opt.Analysis)
	if err != nil {
		return nil, fail(w, StageAnalyze, err)
	}
	res := &Result{RunID: runID, Source: path, GeneratedAt: time.Now().UTC(), Report: rep}

	var stageErr error
	res.Insights, err = generateInsights(rep, opt.Insights)
	if err != nil {
		if opt.Format == FormatJSON || opt.Format == FormatYAML {
			res.Errors = append(res.Errors, err.Error())
			stageErr = fail(io.Discard, StageInsights, err)
		} else {
			stageErr = fail(w, StageInsights, err)
		}
	}
	if err := Render(w, res, opt.Format, opt.ShowProfile); err != nil {
		return res, fmt.Errorf("render: %w", err)
	}
	log.Infow("pipeline done", "run_id", runID, "insights", len(res.Insights), "anomalies", len(rep.Anomalies))
	return res, stageErr
}

func fail(w io.Writer, stage Stage, err error) error {
	fmt.Fprintln(w, err.Error())
	var pe *loader.ParseError
	if errors.As(err, &pe) {
		log.Warnw("stage failed", "stage", stage, "detail", pe.Detail())
	} else {
		log.Warnw("stage failed", "stage", stage, "error", err)
	}
	return &StageError{Stage: stage, Err: err}
}
