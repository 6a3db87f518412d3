package analysis

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/energy-insights/internal/loader"
)

func mustDataset(t *testing.T, csv string) *loader.Dataset {
	t.Helper()
	ds, err := loader.Read(strings.NewReader(csv), ',', loader.DefaultOptions())
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	ds.Name = "test.csv"
	return ds
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestAnalyze_BoundaryScenario(t *testing.T) {
	ds := mustDataset(t, "timestamp,usage\n"+
		"2024-01-01T08:00,5\n"+
		"2024-01-01T08:00,5\n"+
		"2024-01-01T20:00,50\n")

	for _, est := range []Estimator{Sample, Population} {
		t.Run(string(est), func(t *testing.T) {
			opt := DefaultOptions()
			opt.Estimator = est
			rep, err := Analyze(ds, opt)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			want := HourlyProfile{{Hour: 8, Mean: 5, Count: 2}, {Hour: 20, Mean: 50, Count: 1}}
			if !reflect.DeepEqual(rep.Profile, want) {
				t.Fatalf("profile=%+v want %+v", rep.Profile, want)
			}
			if rep.HighUsage == nil {
				t.Fatalf("high usage not evaluated")
			}
			if len(rep.HighUsage.Hours) != 0 {
				t.Fatalf("high hours=%v want none", rep.HighUsage.Hours)
			}
			if len(rep.Anomalies) != 0 {
				t.Fatalf("anomalies=%v want none", rep.Anomalies)
			}
			if !approx(rep.Usage.Mean, 20) {
				t.Fatalf("usage mean=%v want 20", rep.Usage.Mean)
			}
		})
	}

	rep, err := Analyze(ds, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !approx(rep.HighUsage.Threshold, 27.5+22.5*math.Sqrt2) {
		t.Fatalf("sample high threshold=%v", rep.HighUsage.Threshold)
	}
	if !approx(rep.AnomalyThreshold, 20+2*math.Sqrt(675)) {
		t.Fatalf("sample anomaly threshold=%v", rep.AnomalyThreshold)
	}
}

func TestAnalyze_FlagsHighHoursAndAnomalies(t *testing.T) {
	var b strings.Builder
	b.WriteString("timestamp,usage\n")
	for h := 0; h < 10; h++ {
		v := "1"
		if h == 9 {
			v = "100"
		}
		b.WriteString("2024-01-01 0" + string(rune('0'+h)) + ":30:00," + v + "\n")
	}
	rep, err := Analyze(mustDataset(t, b.String()), DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got, want := len(rep.Profile), 10; got != want {
		t.Fatalf("profile entries=%d want %d", got, want)
	}
	if got, want := rep.HighUsage.Hours, []int{9}; !reflect.DeepEqual(got, want) {
		t.Fatalf("high hours=%v want %v", got, want)
	}
	if got := len(rep.Anomalies); got != 1 {
		t.Fatalf("anomalies=%d want 1", got)
	}
	a := rep.Anomalies[0]
	if a.Row != 10 || a.Usage != 100 || a.Timestamp.Hour() != 9 {
		t.Fatalf("anomaly=%+v", a)
	}
	if rep.Usage.Min != 1 || rep.Usage.Max != 100 {
		t.Fatalf("min/max=%v/%v", rep.Usage.Min, rep.Usage.Max)
	}
}

func TestAnalyze_ProfileMeans(t *testing.T) {
	ds := mustDataset(t, "timestamp,usage\n"+
		"2024-02-01 01:00,2\n"+
		"2024-02-02 01:45,4\n"+
		"2024-02-01 02:00,10\n"+
		"2024-02-01 03:10,1\n")
	rep, err := Analyze(ds, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got, want := rep.Profile.Hours(), []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("hours=%v want %v", got, want)
	}
	for h, want := range map[int]float64{1: 3, 2: 10, 3: 1} {
		got, ok := rep.Profile.Lookup(h)
		if !ok || !approx(got, want) {
			t.Fatalf("hour %d mean=%v ok=%v want %v", h, got, ok, want)
		}
	}
	if _, ok := rep.Profile.Lookup(4); ok {
		t.Fatalf("unexpected hour 4")
	}
	for _, h := range rep.HighUsage.Hours {
		if _, ok := rep.Profile.Lookup(h); !ok {
			t.Fatalf("high hour %d not in profile", h)
		}
	}
}

// flatCSV writes n readings of value at hourly steps, so hours past the first
// day hold more readings than the rest.
func flatCSV(value string, n int) string {
	var b strings.Builder
	b.WriteString("timestamp,usage\n")
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,%s\n", t0.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04"), value)
	}
	return b.String()
}

func TestAnalyze_ZeroVariance(t *testing.T) {
	tests := []struct {
		name          string
		csv           string
		skipAnomalies bool
	}{
		{name: "identical values", csv: "timestamp,usage\n2024-01-01T01:00,0.1\n2024-01-01T02:00,0.1\n2024-01-01T03:00,0.1\n"},
		{name: "identical values uneven hours", csv: flatCSV("0.7", 49)},
		{name: "identical values two days plus", csv: flatCSV("0.1", 53)},
		{name: "identical large values", csv: flatCSV("1234.567", 61)},
		{name: "single record", csv: "timestamp,usage\n2024-01-01T01:00,7\n"},
		{name: "single hour", csv: "timestamp,usage\n2024-01-01T05:00,7\n2024-01-02T05:00,9\n", skipAnomalies: true},
	}
	for _, tc := range tests {
		for _, est := range []Estimator{Sample, Population} {
			t.Run(tc.name+"/"+string(est), func(t *testing.T) {
				opt := DefaultOptions()
				opt.Estimator = est
				rep, err := Analyze(mustDataset(t, tc.csv), opt)
				if err != nil {
					t.Fatalf("Analyze: %v", err)
				}
				if len(rep.HighUsage.Hours) != 0 {
					t.Fatalf("high hours=%v want none (threshold=%v)", rep.HighUsage.Hours, rep.HighUsage.Threshold)
				}
				if !tc.skipAnomalies && len(rep.Anomalies) != 0 {
					t.Fatalf("anomalies=%v want none", rep.Anomalies)
				}
			})
		}
	}
}

func TestAnalyze_SmallRealSpreadStillFlagged(t *testing.T) {
	// hour 1 is 1% above the rest; that is real spread, not rounding
	rep, err := Analyze(mustDataset(t, "timestamp,usage\n"+
		"2024-01-01T00:00,100\n2024-01-01T01:00,101\n2024-01-01T02:00,100\n2024-01-01T03:00,100\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(rep.HighUsage.Hours, []int{1}) {
		t.Fatalf("high hours=%v want [1]", rep.HighUsage.Hours)
	}
}

func TestAnalyze_MissingColumns(t *testing.T) {
	ds := mustDataset(t, "timestamp,kwh\n2024-01-01T01:00,1\n")
	rep, err := Analyze(ds, DefaultOptions())
	if rep != nil {
		t.Fatalf("expected nil report")
	}
	var mc *MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "usage" {
		t.Fatalf("expected missing usage column, got %v", err)
	}
	if got, want := err.Error(), "Error: Missing expected data column - 'usage'"; got != want {
		t.Fatalf("message=%q want %q", got, want)
	}

	opt := DefaultOptions()
	opt.UsageColumn = "kwh"
	if _, err := Analyze(ds, opt); err != nil {
		t.Fatalf("custom usage column: %v", err)
	}

	hand := &loader.Dataset{Columns: []string{"usage"}}
	if _, err := Analyze(hand, DefaultOptions()); !errors.As(err, &mc) || mc.Column != "timestamp" {
		t.Fatalf("expected missing timestamp column, got %v", err)
	}
}

func TestAnalyze_UnexpectedFailures(t *testing.T) {
	if _, err := Analyze(nil, DefaultOptions()); err == nil || !strings.HasPrefix(err.Error(), "Unexpected error during analysis: ") {
		t.Fatalf("nil dataset err=%v", err)
	}
	ds := mustDataset(t, "timestamp,usage\n2024-01-01T01:00,1\n2024-01-01T02:00,lots\n")
	rep, err := Analyze(ds, DefaultOptions())
	var ue *UnexpectedError
	if rep != nil || !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedError, got rep=%v err=%v", rep, err)
	}
	if !strings.Contains(err.Error(), `row 2: non-numeric usage value "lots"`) {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestAnalyze_SkipsMissingCells(t *testing.T) {
	ds := mustDataset(t, "timestamp,usage\n2024-01-01T01:00,1\n2024-01-01T02:00,\n2024-01-01T03:00,NaN\n2024-01-01T04:00,3\n")
	rep, err := Analyze(ds, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Rows != 4 || rep.Readings != 2 {
		t.Fatalf("rows=%d readings=%d", rep.Rows, rep.Readings)
	}
	if got, want := rep.Profile.Hours(), []int{1, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("hours=%v want %v", got, want)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "2/4 rows") {
		t.Fatalf("warnings=%v", rep.Warnings)
	}
}

func TestAnalyze_HeaderOnly(t *testing.T) {
	rep, err := Analyze(mustDataset(t, "timestamp,usage\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.Profile) != 0 || rep.HighUsage == nil || len(rep.HighUsage.Hours) != 0 || len(rep.Anomalies) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestParseUsage(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"5", 5, true},
		{" 1.25 ", 1.25, true},
		{"2,5", 2.5, true},
		{"1,000", 1000, true},
		{"1.000,5", 1000.5, true},
		{"1,000.5", 1000.5, true},
		{"12%", 12, true},
		{"-3e2", -300, true},
		{"abc", 0, false},
		{"", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseUsage(tc.in)
		if ok != tc.ok || (ok && !approx(got, tc.want)) {
			t.Errorf("parseUsage(%q)=%v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseEstimator(t *testing.T) {
	if e, err := ParseEstimator("Population"); err != nil || e != Population {
		t.Fatalf("population: %v %v", e, err)
	}
	if e, err := ParseEstimator(""); err != nil || e != Sample {
		t.Fatalf("default: %v %v", e, err)
	}
	if _, err := ParseEstimator("median"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReportMarkdown(t *testing.T) {
	var b strings.Builder
	b.WriteString("timestamp,usage\n")
	for h := 0; h < 10; h++ {
		v := "1"
		if h == 9 {
			v = "100"
		}
		b.WriteString("2024-01-01 0" + string(rune('0'+h)) + ":00," + v + "\n")
	}
	rep, err := Analyze(mustDataset(t, b.String()), DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[USAGE SUMMARY]",
		"File: test.csv",
		"Rows: 10 (readings 10)",
		"[HOURLY PROFILE]",
		"| 09:00 | 100 | 1 | yes |",
		"| 00:00 | 1 | 1 |  |",
		"[ANOMALIES]",
		"- row 10 @ 2024-01-01 09:00:00: 100",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
