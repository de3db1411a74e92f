package presenter

import (
	"math"
	"strconv"

	"xerpihan-dashboard/internal/dataset"
)

type PageID string

const (
	Overview              PageID = "overview"
	FinancialAnalysis     PageID = "financial-analysis"
	RiskAnalysis          PageID = "risk-analysis"
	PortfolioOptimization PageID = "portfolio-optimization"
	Forecasting           PageID = "forecasting"
)

type PageInfo struct {
	ID    PageID `json:"id"`
	Title string `json:"title"`
}

// Pages lists the dashboard pages in navigation order.
var Pages = []PageInfo{
	{ID: Overview, Title: "Overview"},
	{ID: FinancialAnalysis, Title: "Financial Analysis"},
	{ID: RiskAnalysis, Title: "Risk Analysis"},
	{ID: PortfolioOptimization, Title: "Portfolio Optimization"},
	{ID: Forecasting, Title: "Forecasting"},
}

func LookupPage(id string) (PageInfo, bool) {
	for _, p := range Pages {
		if string(p.ID) == id {
			return p, true
		}
	}
	return PageInfo{}, false
}

type ChartKind string

const (
	Line    ChartKind = "line"
	Bar     ChartKind = "bar"
	Scatter ChartKind = "scatter"
	Box     ChartKind = "box"
)

// Chart is a chart-ready slice of a table plus the encoding needed to draw
// it: X names the category or numeric axis column, Y the value columns, and
// Color an optional column whose values split the data into series.
type Chart struct {
	Kind    ChartKind      `json:"kind"`
	X       string         `json:"x"`
	Y       []string       `json:"y"`
	Color   string         `json:"color,omitempty"`
	Grouped bool           `json:"grouped,omitempty"`
	Trend   *dataset.Fit   `json:"trend,omitempty"`
	Data    *dataset.Table `json:"data"`
}

// Slot is one chart position on a page. Exactly one of Chart and Error is
// set.
type Slot struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Chart *Chart         `json:"chart,omitempty"`
	Error *dataset.Error `json:"error,omitempty"`
}

func (s Slot) OK() bool { return s.Error == nil }

// Number is a float that encodes NaN as JSON null.
type Number float64

func (n Number) IsMissing() bool { return math.IsNaN(float64(n)) }

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// KPI is a single summary tile. Warning is set when some inputs were
// coerced to missing but a value could still be computed.
type KPI struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Unit    string         `json:"unit,omitempty"`
	Value   Number         `json:"value"`
	Missing int            `json:"missing"`
	Warning *dataset.Error `json:"warning,omitempty"`
	Error   *dataset.Error `json:"error,omitempty"`
}

// AxisOptions backs the free X/Y selection of the custom scatter.
type AxisOptions struct {
	Columns []string `json:"columns"`
	X       string   `json:"x"`
	Y       string   `json:"y"`
}

// Exploration is the dataset browser on the overview page. Error is set,
// and Table nil, when the selected dataset does not exist.
type Exploration struct {
	Dataset  string         `json:"dataset"`
	Datasets []string       `json:"datasets"`
	Columns  []string       `json:"columns"`
	Table    *dataset.Table `json:"table"`
	Error    *dataset.Error `json:"error,omitempty"`
}

type Download struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	File  string `json:"file"`
}

// Page is the result of rendering one dashboard page.
type Page struct {
	ID          PageID       `json:"id"`
	Title       string       `json:"title"`
	KPIs        []KPI        `json:"kpis,omitempty"`
	Slots       []Slot       `json:"slots"`
	Axes        *AxisOptions `json:"axes,omitempty"`
	Exploration *Exploration `json:"exploration,omitempty"`
	Downloads   []Download   `json:"downloads,omitempty"`
}

// Slot finds a slot by id.
func (p *Page) Slot(id string) (Slot, bool) {
	for _, s := range p.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// Params carries the per-page user selections.
type Params struct {
	X       string `json:"xAxis"`
	Y       string `json:"yAxis"`
	Dataset string `json:"dataset"`
}
