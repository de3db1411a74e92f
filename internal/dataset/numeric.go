package dataset

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Markers read as missing values rather than as invalid numbers.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

func isMissingToken(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Coerced is a numeric view of a column. Values[i] is NaN when cell i was
// missing or invalid; Invalid holds the row indices of cells that were
// present but not numbers.
type Coerced struct {
	Values  []float64
	Missing int
	Invalid []int
}

// Coerce converts cells to floats without failing.
func Coerce(cells []string) Coerced {
	c := Coerced{Values: make([]float64, len(cells))}
	for i, raw := range cells {
		cell := strings.TrimSpace(raw)
		if isMissingToken(cell) {
			c.Values[i] = math.NaN()
			c.Missing++
			continue
		}
		v, ok := parseNumber(cell)
		if !ok || math.IsNaN(v) {
			c.Values[i] = math.NaN()
			c.Missing++
			c.Invalid = append(c.Invalid, i)
			continue
		}
		c.Values[i] = v
	}
	return c
}

// Mean is the arithmetic mean of the non-NaN values, NaN when there are none.
func Mean(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	return stat.Mean(present, nil)
}

// Fit is an ordinary least squares line y = Intercept + Slope*x.
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	N         int     `json:"n"`
}

func (f Fit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// LinearFit fits y on x over the pairs where both are finite. It reports
// false with fewer than two pairs or when x has no variance.
func LinearFit(x, y []float64) (Fit, bool) {
	n := min(len(x), len(y))

	var xs, ys []float64
	for i := 0; i < n; i++ {
		if finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 || slices.Min(xs) == slices.Max(xs) {
		return Fit{}, false
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	f := Fit{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  1,
		N:         len(xs),
	}
	// A flat y is fit exactly; RSquared would divide zero by zero.
	if slices.Min(ys) != slices.Max(ys) {
		f.RSquared = stat.RSquared(xs, ys, nil, intercept, slope)
	}
	return f, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
