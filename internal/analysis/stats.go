package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Estimator selects the standard deviation formula.
type Estimator string

const (
	// Sample divides by N-1.
	Sample Estimator = "sample"
	// Population divides by N.
	Population Estimator = "population"
)

// ParseEstimator accepts "sample" or "population" (and a few aliases).
func ParseEstimator(s string) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sample", "n-1":
		return Sample, nil
	case "population", "pop", "n":
		return Population, nil
	default:
		return "", fmt.Errorf("unsupported stddev estimator: %s (use sample|population)", s)
	}
}

// meanStd returns mean and standard deviation of xs. The deviation is 0 for
// fewer than two values so a strict "greater than" test never fires.
func meanStd(xs []float64, est Estimator) (mean, std float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	if est == Population {
		return stat.PopMeanStdDev(xs, nil)
	}
	return stat.MeanStdDev(xs, nil)
}

// spreadTolerance is the std/|mean| ratio below which values count as flat.
// Identical readings averaged in different group sizes differ only in the
// last bits, which must not read as spread.
const spreadTolerance = 1e-9

func negligibleSpread(mean, std float64) bool {
	return std <= spreadTolerance*math.Abs(mean)
}

// parseUsage parses a meter reading. It tolerates a trailing '%', thousands
// separators and a decimal comma.
func parseUsage(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		dec = ','
	case cpos >= 0 && dpos < 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
		// "2,5" is a decimal comma; "1,000" is a thousands group
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
