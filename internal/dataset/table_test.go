package dataset_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xerpihan-dashboard/internal/dataset"
)

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]string
	}{
		{"no columns", nil, nil},
		{"blank column", []string{"Scenario", " "}, nil},
		{"duplicate column", []string{"Scenario", "Scenario"}, nil},
		{"ragged row", []string{"Scenario", "Value"}, [][]string{{"Moderate"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.NewTable("metrics", tt.columns, tt.rows)
			require.Error(t, err)
			assert.Equal(t, dataset.KindParse, dataset.KindOf(err))
		})
	}
}

func TestTable_ColumnNotFound(t *testing.T) {
	tbl := dataset.MustTable("metrics", []string{"Scenario"}, [][]string{{"Moderate"}})

	_, err := tbl.Column("Revenue_CAGR")
	require.Error(t, err)

	e, ok := dataset.AsError(err)
	require.True(t, ok)
	assert.Equal(t, dataset.KindMissingColumn, e.Kind)
	assert.Equal(t, "Revenue_CAGR", e.Column)
	assert.Equal(t, "metrics", e.Table)
}

func TestTable_FloatsCoercesInvalidToMissing(t *testing.T) {
	tbl := dataset.MustTable("metrics", []string{"Scenario", "Revenue_CAGR"}, [][]string{
		{"Optimistic", "12.5"},
		{"Moderate", "n.a."},
		{"Pessimistic", "4.5"},
		{"Stress", ""},
	})

	c, err := tbl.Floats("Revenue_CAGR")
	require.NoError(t, err)

	require.Len(t, c.Values, 4)
	assert.Equal(t, 12.5, c.Values[0])
	assert.True(t, math.IsNaN(c.Values[1]))
	assert.True(t, math.IsNaN(c.Values[3]))
	assert.Equal(t, 2, c.Missing)
	assert.Equal(t, []int{1}, c.Invalid)

	mean := dataset.Mean(c.Values)
	assert.False(t, math.IsNaN(mean))
	assert.InDelta(t, 8.5, mean, 1e-9)
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 10.25, dataset.Mean([]float64{12.5, 8.0}), 1e-9)
	assert.True(t, math.IsNaN(dataset.Mean([]float64{math.NaN(), math.NaN()})))
	assert.True(t, math.IsNaN(dataset.Mean(nil)))
}

func TestTable_Filter(t *testing.T) {
	tbl := dataset.MustTable("combined", []string{"Scenario", "Category", "2024"}, [][]string{
		{"Optimistic", "Pendapatan", "100"},
		{"Optimistic", "Beban", "60"},
		{"Moderate", "Pendapatan", "95"},
	})

	got, err := tbl.Filter("Category", "Pendapatan")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"Moderate", "Pendapatan", "95"}, got.Row(1))

	empty, err := tbl.Filter("Category", "Revenue")
	require.Error(t, err)
	assert.Equal(t, dataset.KindMissingCategory, dataset.KindOf(err))
	require.NotNil(t, empty)
	assert.Equal(t, 0, empty.Len())

	_, err = tbl.Filter("Segment", "Retail")
	assert.Equal(t, dataset.KindMissingColumn, dataset.KindOf(err))
}

func TestTable_SelectKeepsRequestedOrder(t *testing.T) {
	tbl := dataset.MustTable("summary", []string{"Scenario", "Revenue_CAGR", "EBITDA_CAGR"}, [][]string{
		{"Optimistic", "12", "14"},
	})

	got, err := tbl.Select("EBITDA_CAGR", "Scenario")
	require.NoError(t, err)
	assert.Equal(t, []string{"EBITDA_CAGR", "Scenario"}, got.Columns())
	assert.Equal(t, []string{"14", "Optimistic"}, got.Row(0))

	_, err = tbl.Select("Scenario", "2031")
	assert.Equal(t, dataset.KindMissingColumn, dataset.KindOf(err))
}

func TestTable_Melt(t *testing.T) {
	tbl := dataset.MustTable("weights", []string{"Method", "Optimistic", "Moderate"}, [][]string{
		{"HJB", "1.0", "0.0"},
		{"RL", "0.055", "0.775"},
	})

	long, err := tbl.Melt([]string{"Method"}, []string{"Optimistic", "Moderate"}, "Scenario", "Weight")
	require.NoError(t, err)

	assert.Equal(t, []string{"Method", "Scenario", "Weight"}, long.Columns())
	assert.Equal(t, [][]string{
		{"HJB", "Optimistic", "1.0"},
		{"RL", "Optimistic", "0.055"},
		{"HJB", "Moderate", "0.0"},
		{"RL", "Moderate", "0.775"},
	}, long.Rows())
}

func TestTable_ColumnsContainingGrowth(t *testing.T) {
	tbl := dataset.MustTable("growth", []string{"Scenario", "Revenue_Growth", "EBITDA_Growth", "Notes"}, nil)

	assert.Equal(t, []string{"Revenue_Growth", "EBITDA_Growth"}, tbl.ColumnsContaining("Growth"))
	assert.Empty(t, tbl.ColumnsContaining("Volatility"))
}

func TestTable_NumericColumns(t *testing.T) {
	tbl := dataset.MustTable("financial", []string{"Scenario", "Revenue_CAGR", "Notes", "Blank", "Avg_Net_Margin"}, [][]string{
		{"Optimistic", "12.5", "ok", "", "18"},
		{"Moderate", "NaN", "7", "", "-3.5e1"},
	})

	assert.Equal(t, []string{"Revenue_CAGR", "Blank", "Avg_Net_Margin"}, tbl.NumericColumns())
}

func TestTable_NumericColumnsKeepsAllMissingColumn(t *testing.T) {
	tbl := dataset.MustTable("financial", []string{"A", "B"}, [][]string{
		{"1", ""},
		{"2", "NaN"},
	})
	assert.Equal(t, []string{"A", "B"}, tbl.NumericColumns())

	empty := dataset.MustTable("financial", []string{"A", "B"}, nil)
	assert.Empty(t, empty.NumericColumns())
}

func TestTable_MarshalJSON(t *testing.T) {
	tbl := dataset.MustTable("summary", []string{"Scenario"}, nil)

	b, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"summary","columns":["Scenario"],"rows":[]}`, string(b))
}

func TestLinearFit(t *testing.T) {
	fit, ok := dataset.LinearFit([]float64{1, 2, 3, math.NaN()}, []float64{3, 5, 7, 100})
	require.True(t, ok)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.Equal(t, 3, fit.N)
	assert.InDelta(t, 9.0, fit.At(4), 1e-9)

	_, ok = dataset.LinearFit([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.False(t, ok, "zero variance in x")

	_, ok = dataset.LinearFit([]float64{1}, []float64{1})
	assert.False(t, ok, "single point")
}

func TestLinearFit_ImperfectAndFlat(t *testing.T) {
	fit, ok := dataset.LinearFit([]float64{1, 2, 3, 4}, []float64{2, 4, 5, 4})
	require.True(t, ok)
	assert.InDelta(t, 0.7, fit.Slope, 1e-9)
	assert.InDelta(t, 2.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 12.25/23.75, fit.RSquared, 1e-9)

	fit, ok = dataset.LinearFit([]float64{1, 2, 3}, []float64{5, 5, 5})
	require.True(t, ok)
	assert.InDelta(t, 0.0, fit.Slope, 1e-9)
	assert.InDelta(t, 5.0, fit.Intercept, 1e-9)
	assert.Equal(t, 1.0, fit.RSquared)
}
