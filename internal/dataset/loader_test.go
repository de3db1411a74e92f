package dataset_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/dataset/datasettest"
)

func TestLoader_LoadsCompleteSet(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, nil)

	ts, err := dataset.NewLoader(dir, nil).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ts)

	for _, s := range dataset.Sources {
		tbl := ts.Table(s.ID)
		require.NotNil(t, tbl, s.ID)
		assert.True(t, tbl.HasColumn(dataset.ScenarioColumn), s.ID)
		assert.Positive(t, tbl.Len(), s.ID)
	}
	assert.Equal(t, 6, ts.Combined().Len())
	assert.Equal(t, "Optimistic", ts.Metrics().Row(0)[0], "source row order is preserved")
}

func TestLoader_MissingFile(t *testing.T) {
	for _, src := range dataset.Sources {
		t.Run(src.File, func(t *testing.T) {
			dir := t.TempDir()
			datasettest.WriteFiles(t, dir, map[string]string{src.File: ""})

			ts, err := dataset.NewLoader(dir, nil).Load(context.Background())
			require.Error(t, err)
			assert.Nil(t, ts, "no partial table set")

			e, ok := dataset.AsError(err)
			require.True(t, ok)
			assert.Equal(t, dataset.KindFileNotFound, e.Kind)
			assert.Equal(t, src.File, e.File)
			assert.Contains(t, err.Error(), src.File)
		})
	}
}

func TestLoader_ParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		body   string
		reason string
	}{
		{"empty file", "xerpihan_final_summary.csv", "\n", "empty"},
		{"ragged row", "xerpihan_financial_metrics.csv", "Scenario,Revenue_CAGR\nOptimistic,12,extra\n", "malformed record"},
		{"bad quoting", "xerpihan_comprehensive_metrics.csv", "Scenario,Revenue_CAGR\n\"Optimistic,12\n", "malformed record"},
		{"duplicate header", "xerpihan_forecast_combined.csv", "Scenario,2024,2024\nModerate,1,2\n", "duplicate column"},
		{"no scenario column", "xerpihan_combined_data.csv", "Category,2024\nPendapatan,100\n", "Scenario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			datasettest.WriteFiles(t, dir, map[string]string{tt.file: tt.body})

			ts, err := dataset.NewLoader(dir, nil).Load(context.Background())
			require.Error(t, err)
			assert.Nil(t, ts)

			e, ok := dataset.AsError(err)
			require.True(t, ok)
			assert.Equal(t, dataset.KindParse, e.Kind)
			assert.Equal(t, tt.file, e.File)
			assert.NotEmpty(t, e.Table)
			assert.Contains(t, e.Error(), tt.reason)
		})
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ts, err := dataset.NewLoader(dir, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ts)
}

func TestReadCSV_StripsByteOrderMark(t *testing.T) {
	body := "\xEF\xBB\xBFScenario,Revenue_CAGR\nModerate,8.0\n"

	tbl, err := dataset.ReadCSV("financial", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"Scenario", "Revenue_CAGR"}, tbl.Columns())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	ts := datasettest.TableSet(t)

	for _, src := range dataset.Sources {
		t.Run(string(src.ID), func(t *testing.T) {
			orig := ts.Table(src.ID)

			var buf bytes.Buffer
			require.NoError(t, dataset.WriteCSV(&buf, orig))
			assert.Equal(t, datasettest.Files[src.File], buf.String(), "byte-identical export")

			again, err := dataset.ReadCSV(string(src.ID), &buf)
			require.NoError(t, err)
			assert.Equal(t, orig.Columns(), again.Columns())
			assert.Equal(t, orig.Len(), again.Len())
			assert.Equal(t, orig.Rows(), again.Rows())
		})
	}
}

func TestWriteCSV_QuotesWhenNeeded(t *testing.T) {
	tbl := dataset.MustTable("summary", []string{"Scenario", "Notes"}, [][]string{
		{"Moderate", "base, with comma"},
	})

	var buf bytes.Buffer
	require.NoError(t, dataset.WriteCSV(&buf, tbl))

	again, err := dataset.ReadCSV("summary", &buf)
	require.NoError(t, err)
	assert.Equal(t, "base, with comma", again.Row(0)[1])
}

type recordingObserver struct {
	mu     sync.Mutex
	errors []error
}

func (o *recordingObserver) ObserveLoad(_ time.Duration, _ *dataset.TableSet, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, err)
}

func TestStore_ReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, nil)

	obs := &recordingObserver{}
	store := dataset.NewStore(dataset.NewLoader(dir, nil), nil, obs)
	assert.Nil(t, store.Current())

	first, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, store.Current())
	assert.Equal(t, int64(1), store.Generation())

	// Break one file and reload.
	datasettest.WriteFiles(t, dir, map[string]string{"xerpihan_final_summary.csv": "Scenario,Revenue_CAGR\nA,1,2\n"})
	_, err = store.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, first, store.Current(), "failed reload must not replace the snapshot")
	assert.Equal(t, int64(1), store.Generation())

	// Repair and reload.
	datasettest.WriteFiles(t, dir, nil)
	second, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Same(t, second, store.Current())

	require.Len(t, obs.errors, 3)
	assert.NoError(t, obs.errors[0])
	assert.Error(t, obs.errors[1])
	assert.NoError(t, obs.errors[2])
}

func TestStaticStore(t *testing.T) {
	ts := datasettest.TableSet(t)
	store := dataset.NewStaticStore(ts)

	assert.Same(t, ts, store.Current())
	_, err := store.Reload(context.Background())
	assert.Error(t, err)
}

func TestNewTableSet_RequiresAllTables(t *testing.T) {
	_, err := dataset.NewTableSet(map[dataset.TableID]*dataset.Table{
		dataset.Combined: dataset.MustTable("combined", []string{"Scenario"}, nil),
	})
	assert.Error(t, err)
}
