// Package datasettest provides a small, well-formed set of the six source
// files for tests in other packages.
package datasettest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xerpihan-dashboard/internal/dataset"
)

const yearHeader = "2024,2025,2026,2027,2028,2029,2030,2031"

// Files maps each source file name to its contents.
var Files = map[string]string{
	"xerpihan_combined_data.csv": lines(
		"Scenario,Category,"+yearHeader,
		"Optimistic,Pendapatan,100,112,125,140,157,176,197,220",
		"Optimistic,Beban,60,66,72,79,87,96,105,116",
		"Moderate,Pendapatan,100,108,117,126,136,147,159,171",
		"Moderate,Beban,62,67,72,78,84,91,98,106",
		"Pessimistic,Pendapatan,100,104,108,112,117,122,127,132",
		"Pessimistic,Beban,65,68,71,74,77,80,83,86",
	),
	"xerpihan_combined_data_with_growth.csv": lines(
		"Scenario,Category,Revenue_Growth,EBITDA_Growth,Notes",
		"Optimistic,Pendapatan,12.0,14.5,strong",
		"Optimistic,Beban,11.0,13.0,strong",
		"Moderate,Pendapatan,8.0,9.1,base",
		"Moderate,Beban,7.5,8.2,base",
		"Pessimistic,Pendapatan,4.0,3.2,weak",
		"Pessimistic,Beban,3.5,2.9,weak",
	),
	"xerpihan_comprehensive_metrics.csv": lines(
		"Scenario,Revenue_CAGR,Avg_EBITDA_Margin,Cost_to_Revenue,Revenue_Volatility,Margin_Volatility",
		"Optimistic,12.0,30.0,55.0,4.1,2.2",
		"Moderate,8.0,25.0,60.0,3.2,1.8",
		"Pessimistic,4.0,20.0,65.0,2.5,1.1",
	),
	"xerpihan_final_summary.csv": lines(
		"Scenario,Revenue_CAGR,EBITDA_CAGR,Final_Revenue",
		"Optimistic,12.0,14.5,220",
		"Moderate,8.0,9.1,171",
		"Pessimistic,4.0,3.2,132",
	),
	"xerpihan_financial_metrics.csv": lines(
		"Scenario,Revenue_CAGR,Avg_EBITDA_Margin,Avg_Net_Margin",
		"Optimistic,12.5,30.0,18.0",
		"Moderate,8.0,25.0,15.0",
		"Pessimistic,4.0,20.0,11.0",
	),
	"xerpihan_forecast_combined.csv": lines(
		"Scenario,Category,"+yearHeader,
		"Optimistic,Pendapatan,100,113,127,143,161,181,203,228",
		"Moderate,Pendapatan,100,108,117,126,136,147,159,171",
		"Pessimistic,Pendapatan,100,103,106,109,112,115,118,121",
		"Moderate,Laba Bersih,15,16,17,18,20,21,23,24",
	),
}

// WriteFiles writes every fixture into dir, replacing contents given in
// overrides. An override of "" removes the file.
func WriteFiles(tb testing.TB, dir string, overrides map[string]string) {
	tb.Helper()
	for name, body := range Files {
		if o, ok := overrides[name]; ok {
			if o == "" {
				continue
			}
			body = o
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			tb.Fatalf("write fixture %s: %v", name, err)
		}
	}
}

// TableSet loads the fixtures from a temporary directory.
func TableSet(tb testing.TB) *dataset.TableSet {
	tb.Helper()
	dir := tb.TempDir()
	WriteFiles(tb, dir, nil)

	ts, err := dataset.NewLoader(dir, nil).Load(context.Background())
	if err != nil {
		tb.Fatalf("load fixtures: %v", err)
	}
	return ts
}

// Replace returns a copy of ts with one table swapped.
func Replace(tb testing.TB, ts *dataset.TableSet, id dataset.TableID, t *dataset.Table) *dataset.TableSet {
	tb.Helper()
	tables := make(map[dataset.TableID]*dataset.Table, len(dataset.Sources))
	for _, s := range dataset.Sources {
		tables[s.ID] = ts.Table(s.ID)
	}
	tables[id] = t

	out, err := dataset.NewTableSet(tables)
	if err != nil {
		tb.Fatalf("replace table: %v", err)
	}
	return out
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}
