package presenter

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"xerpihan-dashboard/internal/dataset"
)

const (
	CategoryColumn = "Category"
	GrowthMarker   = "Growth"
)

// ErrUnknownDataset is returned by Explore for a label not in dataset.Sources.
var ErrUnknownDataset = errors.New("unknown dataset")

// DefaultYears returns the year column labels "2024".."2031".
func DefaultYears() []string {
	years := make([]string, 0, 8)
	for y := 2024; y <= 2031; y++ {
		years = append(years, fmt.Sprint(y))
	}
	return years
}

// MeanKPI averages column over t. Blank or invalid cells are excluded and
// reported as a non_numeric_value warning; a column with no numbers yields a
// missing value and the same condition as the tile's error.
func MeanKPI(t *dataset.Table, id, label, column string) KPI {
	kpi := KPI{ID: id, Label: label, Unit: "%"}

	c, err := t.Floats(column)
	if err != nil {
		kpi.Value = Number(math.NaN())
		kpi.Error = asDatasetError(err)
		return kpi
	}

	kpi.Value = Number(dataset.Mean(c.Values))
	kpi.Missing = c.Missing

	if c.Missing > 0 || kpi.Value.IsMissing() {
		cond := &dataset.Error{
			Kind:   dataset.KindNonNumeric,
			Table:  t.Name(),
			Column: column,
			Reason: fmt.Sprintf("%d of %d values are missing or not numbers", c.Missing, len(c.Values)),
		}
		if kpi.Value.IsMissing() {
			kpi.Error = cond
		} else {
			kpi.Warning = cond
		}
	}
	return kpi
}

// YearSeries keeps the rows of t whose category column equals category and
// projects them onto Scenario plus the year columns.
func YearSeries(t *dataset.Table, category string, years []string) (*dataset.Table, error) {
	var missing []string
	for _, y := range years {
		if !t.HasColumn(y) {
			missing = append(missing, y)
		}
	}

	rows, err := t.Filter(CategoryColumn, category)
	if err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		return nil, &dataset.Error{
			Kind:   dataset.KindMissingColumn,
			Table:  t.Name(),
			Column: missing[0],
			Reason: fmt.Sprintf("year columns missing: %s", strings.Join(missing, ", ")),
		}
	}

	return rows.Select(append([]string{dataset.ScenarioColumn}, years...)...)
}

// ByScenario projects t onto Scenario and columns.
func ByScenario(t *dataset.Table, columns ...string) (*dataset.Table, error) {
	return t.Select(append([]string{dataset.ScenarioColumn}, columns...)...)
}

// NumericAxes discovers the numeric columns of t and resolves the requested
// x and y, defaulting each to the first numeric column.
func NumericAxes(t *dataset.Table, x, y string) (AxisOptions, error) {
	cols := t.NumericColumns()
	if len(cols) == 0 {
		return AxisOptions{Columns: []string{}}, &dataset.Error{
			Kind:   dataset.KindMissingColumn,
			Table:  t.Name(),
			Reason: "no numeric columns found",
		}
	}

	opts := AxisOptions{Columns: cols, X: x, Y: y}
	if opts.X == "" {
		opts.X = cols[0]
	}
	if opts.Y == "" {
		opts.Y = cols[0]
	}

	for _, c := range []string{opts.X, opts.Y} {
		if !slices.Contains(cols, c) {
			return opts, &dataset.Error{
				Kind:   dataset.KindMissingColumn,
				Table:  t.Name(),
				Column: c,
				Reason: fmt.Sprintf("%q is not a numeric column", c),
			}
		}
	}
	return opts, nil
}

// ScatterWithTrend builds the custom x/y scatter coloured by scenario and
// fits an OLS line through it. The trend is omitted when it cannot be fit.
func ScatterWithTrend(t *dataset.Table, axes AxisOptions) (*Chart, error) {
	cols := []string{axes.X}
	if axes.Y != axes.X {
		cols = append(cols, axes.Y)
	}
	data, err := ByScenario(t, cols...)
	if err != nil {
		return nil, err
	}

	xs, err := data.Floats(axes.X)
	if err != nil {
		return nil, err
	}
	ys, err := data.Floats(axes.Y)
	if err != nil {
		return nil, err
	}

	chart := &Chart{
		Kind:  Scatter,
		X:     axes.X,
		Y:     []string{axes.Y},
		Color: dataset.ScenarioColumn,
		Data:  data,
	}
	if fit, ok := dataset.LinearFit(xs.Values, ys.Values); ok {
		chart.Trend = &fit
	}
	return chart, nil
}

// GrowthLong melts every column whose name contains "Growth" into
// Scenario, variable, value rows.
func GrowthLong(t *dataset.Table) (*dataset.Table, error) {
	cols := t.ColumnsContaining(GrowthMarker)
	if len(cols) == 0 {
		return nil, &dataset.Error{
			Kind:   dataset.KindMissingColumn,
			Table:  t.Name(),
			Reason: fmt.Sprintf("no column name contains %q", GrowthMarker),
		}
	}
	return t.Melt([]string{dataset.ScenarioColumn}, cols, "variable", "value")
}

// Explore returns the named dataset and its column names.
func Explore(ts *dataset.TableSet, label string) (*Exploration, error) {
	if label == "" {
		label = dataset.Sources[0].Label
	}
	src, ok := dataset.SourceByLabel(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, label)
	}

	t := ts.Table(src.ID)
	return &Exploration{
		Dataset:  src.Label,
		Datasets: datasetLabels(),
		Columns:  t.Columns(),
		Table:    t,
	}, nil
}

func datasetLabels() []string {
	names := make([]string, len(dataset.Sources))
	for i, s := range dataset.Sources {
		names[i] = s.Label
	}
	return names
}

func asDatasetError(err error) *dataset.Error {
	if e, ok := dataset.AsError(err); ok {
		return e
	}
	return &dataset.Error{Kind: dataset.KindParse, Reason: err.Error(), Cause: err}
}
