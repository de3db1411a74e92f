package presenter

import (
	"errors"
	"fmt"
	"log/slog"

	"xerpihan-dashboard/internal/dataset"
)

// ErrUnknownPage is returned by Render for an id not in Pages.
var ErrUnknownPage = errors.New("unknown page")

type Options struct {
	// RevenueCategory is the Category value marking revenue rows.
	RevenueCategory string
	Years           []string
}

// SlotObserver is told about every slot or tile that could not be computed.
type SlotObserver interface {
	ObserveSlotFailure(page PageID, slot string, kind dataset.Kind)
}

// Presenter computes dashboard pages from a snapshot. It holds no data of
// its own; every call receives the snapshot to read.
type Presenter struct {
	opts     Options
	logger   *slog.Logger
	observer SlotObserver
}

func New(opts Options, logger *slog.Logger, observer SlotObserver) *Presenter {
	if opts.RevenueCategory == "" {
		opts.RevenueCategory = "Pendapatan"
	}
	if len(opts.Years) == 0 {
		opts.Years = DefaultYears()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{opts: opts, logger: logger, observer: observer}
}

// Render builds the page id. Only an unknown page fails the whole call;
// everything else is reported per slot.
func (p *Presenter) Render(id PageID, ts *dataset.TableSet, params Params) (*Page, error) {
	switch id {
	case Overview:
		return p.Overview(ts, params), nil
	case FinancialAnalysis:
		return p.FinancialAnalysis(ts, params), nil
	case RiskAnalysis:
		return p.RiskAnalysis(ts), nil
	case PortfolioOptimization:
		return p.PortfolioOptimization(), nil
	case Forecasting:
		return p.Forecasting(ts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, id)
	}
}

func (p *Presenter) Overview(ts *dataset.TableSet, params Params) *Page {
	page := newPage(Overview)
	metrics := ts.Metrics()
	page.KPIs = []KPI{
		p.kpi(Overview, MeanKPI(metrics, "revenue-cagr", "Average Revenue CAGR", "Revenue_CAGR")),
		p.kpi(Overview, MeanKPI(metrics, "ebitda-margin", "Average EBITDA Margin", "Avg_EBITDA_Margin")),
		p.kpi(Overview, MeanKPI(metrics, "cost-efficiency", "Average Cost Efficiency", "Cost_to_Revenue")),
	}

	page.Slots = []Slot{
		p.slot(Overview, "revenue-trend", "Revenue Trend per Scenario (2024-2031)", func() (*Chart, error) {
			data, err := YearSeries(ts.Combined(), p.opts.RevenueCategory, p.opts.Years)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Line, X: dataset.ScenarioColumn, Y: p.opts.Years, Data: data}, nil
		}),
	}

	page.Exploration = p.explore(ts, params.Dataset)
	page.Downloads = []Download{
		{Name: "financial-metrics", Label: "Download Financial Metrics", File: "financial_metrics.csv"},
		{Name: "final-summary", Label: "Download Summary Data", File: "final_summary.csv"},
	}
	return page
}

// explore is Explore with an unknown selection confined to the explorer.
func (p *Presenter) explore(ts *dataset.TableSet, label string) *Exploration {
	ex, err := Explore(ts, label)
	if err == nil {
		return ex
	}

	e := &dataset.Error{
		Kind:   dataset.KindMissingCategory,
		Column: "dataset",
		Reason: fmt.Sprintf("no dataset named %q", label),
		Cause:  err,
	}
	p.fail(Overview, "explorer", e)
	return &Exploration{
		Dataset:  label,
		Datasets: datasetLabels(),
		Columns:  []string{},
		Error:    e,
	}
}

func (p *Presenter) FinancialAnalysis(ts *dataset.TableSet, params Params) *Page {
	page := newPage(FinancialAnalysis)
	financial := ts.Financial()

	axes, axesErr := NumericAxes(financial, params.X, params.Y)
	page.Axes = &axes

	page.Slots = []Slot{
		p.slot(FinancialAnalysis, "metrics-comparison", "Key Financial Metrics per Scenario", func() (*Chart, error) {
			y := []string{"Revenue_CAGR", "Avg_EBITDA_Margin", "Avg_Net_Margin"}
			data, err := ByScenario(financial, y...)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Bar, X: dataset.ScenarioColumn, Y: y, Grouped: true, Data: data}, nil
		}),
		p.slot(FinancialAnalysis, "growth-metrics", "Growth Metrics per Scenario", func() (*Chart, error) {
			y := []string{"Revenue_CAGR", "EBITDA_CAGR"}
			data, err := ByScenario(ts.Summary(), y...)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Line, X: dataset.ScenarioColumn, Y: y, Data: data}, nil
		}),
		p.slot(FinancialAnalysis, "custom-scatter", "Custom Visualization", func() (*Chart, error) {
			if axesErr != nil {
				return nil, axesErr
			}
			return ScatterWithTrend(financial, axes)
		}),
	}
	return page
}

func (p *Presenter) RiskAnalysis(ts *dataset.TableSet) *Page {
	page := newPage(RiskAnalysis)

	page.Slots = []Slot{
		p.slot(RiskAnalysis, "volatility", "Volatility Metrics per Scenario", func() (*Chart, error) {
			y := []string{"Revenue_Volatility", "Margin_Volatility"}
			data, err := ByScenario(ts.Metrics(), y...)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Bar, X: dataset.ScenarioColumn, Y: y, Grouped: true, Data: data}, nil
		}),
		p.slot(RiskAnalysis, "risk-decomposition", "Risk Decomposition per Scenario", func() (*Chart, error) {
			data, err := riskComponents().Melt(
				[]string{dataset.ScenarioColumn},
				[]string{"Market_Risk", "Credit_Risk", "Operational_Risk"},
				"Risk_Type", "Risk_Level",
			)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Bar, X: dataset.ScenarioColumn, Y: []string{"Risk_Level"}, Color: "Risk_Type", Data: data}, nil
		}),
	}
	return page
}

func (p *Presenter) PortfolioOptimization() *Page {
	page := newPage(PortfolioOptimization)

	page.Slots = []Slot{
		p.slot(PortfolioOptimization, "allocation", "Portfolio Allocation per Method", func() (*Chart, error) {
			data, err := portfolioWeights().Melt(
				[]string{"Method"},
				[]string{"Optimistic", "Moderate", "Pessimistic"},
				dataset.ScenarioColumn, "Weight",
			)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Bar, X: "Method", Y: []string{"Weight"}, Color: dataset.ScenarioColumn, Data: data}, nil
		}),
		p.slot(PortfolioOptimization, "performance", "Risk-Return Analysis", func() (*Chart, error) {
			return &Chart{
				Kind:  Scatter,
				X:     "Expected_Return",
				Y:     []string{"Sharpe_Ratio"},
				Color: "Method",
				Data:  methodPerformance(),
			}, nil
		}),
	}
	return page
}

func (p *Presenter) Forecasting(ts *dataset.TableSet) *Page {
	page := newPage(Forecasting)

	page.Slots = []Slot{
		p.slot(Forecasting, "revenue-forecast", "Revenue Forecast per Scenario (2024-2031)", func() (*Chart, error) {
			data, err := YearSeries(ts.Forecast(), p.opts.RevenueCategory, p.opts.Years)
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Line, X: dataset.ScenarioColumn, Y: p.opts.Years, Data: data}, nil
		}),
		p.slot(Forecasting, "growth-distribution", "Growth Rate Distribution per Scenario", func() (*Chart, error) {
			data, err := GrowthLong(ts.Growth())
			if err != nil {
				return nil, err
			}
			return &Chart{Kind: Box, X: dataset.ScenarioColumn, Y: []string{"value"}, Data: data}, nil
		}),
	}
	return page
}

func newPage(id PageID) *Page {
	info, _ := LookupPage(string(id))
	return &Page{ID: id, Title: info.Title}
}

// slot runs build and confines any failure to the returned Slot.
func (p *Presenter) slot(page PageID, id, title string, build func() (*Chart, error)) Slot {
	s := Slot{ID: id, Title: title}

	chart, err := build()
	if err != nil {
		s.Error = asDatasetError(err)
		p.fail(page, id, s.Error)
		return s
	}
	s.Chart = chart
	return s
}

func (p *Presenter) kpi(page PageID, k KPI) KPI {
	switch {
	case k.Error != nil:
		p.fail(page, k.ID, k.Error)
	case k.Warning != nil:
		p.logger.Warn("kpi computed with missing values",
			"page", page,
			"kpi", k.ID,
			"missing", k.Missing,
			"reason", k.Warning.Reason,
		)
	}
	return k
}

func (p *Presenter) fail(page PageID, slot string, e *dataset.Error) {
	p.logger.Warn("slot unavailable",
		"page", page,
		"slot", slot,
		"kind", e.Kind,
		"error", e,
	)
	if p.observer != nil {
		p.observer.ObserveSlotFailure(page, slot, e.Kind)
	}
}
