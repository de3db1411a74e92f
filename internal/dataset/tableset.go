package dataset

import (
	"fmt"
	"time"
)

// TableID names one of the six source tables.
type TableID string

const (
	Combined  TableID = "combined"
	Growth    TableID = "growth"
	Metrics   TableID = "metrics"
	Summary   TableID = "summary"
	Financial TableID = "financial"
	Forecast  TableID = "forecast"
)

// ScenarioColumn is the grouping key every source table must carry.
const ScenarioColumn = "Scenario"

// Source describes where a table comes from and how it is shown.
type Source struct {
	ID    TableID
	Label string
	File  string
}

// Sources lists the six tables in their canonical order.
var Sources = []Source{
	{ID: Combined, Label: "Combined Data", File: "xerpihan_combined_data.csv"},
	{ID: Growth, Label: "Growth Data", File: "xerpihan_combined_data_with_growth.csv"},
	{ID: Metrics, Label: "Metrics", File: "xerpihan_comprehensive_metrics.csv"},
	{ID: Summary, Label: "Final Summary", File: "xerpihan_final_summary.csv"},
	{ID: Financial, Label: "Financial Metrics", File: "xerpihan_financial_metrics.csv"},
	{ID: Forecast, Label: "Forecast", File: "xerpihan_forecast_combined.csv"},
}

// SourceByLabel finds a source by its display label.
func SourceByLabel(label string) (Source, bool) {
	for _, s := range Sources {
		if s.Label == label {
			return s, true
		}
	}
	return Source{}, false
}

// TableSet is an immutable snapshot holding all six tables.
type TableSet struct {
	tables   map[TableID]*Table
	loadedAt time.Time
}

// NewTableSet builds a snapshot; every source table must be present.
func NewTableSet(tables map[TableID]*Table) (*TableSet, error) {
	ts := &TableSet{
		tables:   make(map[TableID]*Table, len(Sources)),
		loadedAt: time.Now(),
	}
	for _, s := range Sources {
		t, ok := tables[s.ID]
		if !ok || t == nil {
			return nil, fmt.Errorf("table set: %s table missing", s.ID)
		}
		ts.tables[s.ID] = t
	}
	return ts, nil
}

func (ts *TableSet) Table(id TableID) *Table { return ts.tables[id] }

func (ts *TableSet) Combined() *Table  { return ts.tables[Combined] }
func (ts *TableSet) Growth() *Table    { return ts.tables[Growth] }
func (ts *TableSet) Metrics() *Table   { return ts.tables[Metrics] }
func (ts *TableSet) Summary() *Table   { return ts.tables[Summary] }
func (ts *TableSet) Financial() *Table { return ts.tables[Financial] }
func (ts *TableSet) Forecast() *Table  { return ts.tables[Forecast] }

func (ts *TableSet) LoadedAt() time.Time { return ts.loadedAt }

// Stats summarizes row and column counts per table.
func (ts *TableSet) Stats() map[string]any {
	tables := make(map[string]any, len(Sources))
	total := 0
	for _, s := range Sources {
		t := ts.tables[s.ID]
		total += t.Len()
		tables[string(s.ID)] = map[string]int{
			"rows":    t.Len(),
			"columns": len(t.columns),
		}
	}
	return map[string]any{
		"loaded_at":  ts.loadedAt,
		"total_rows": total,
		"tables":     tables,
	}
}
