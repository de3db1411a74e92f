// Package exporter turns loaded tables into downloadable files.
package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"xerpihan-dashboard/internal/dataset"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

var (
	ErrUnknownExport = errors.New("unknown export")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Export is a table offered for download.
type Export struct {
	Name  string
	Table dataset.TableID
	Base  string
}

// Exports lists the downloads offered on the overview page.
var Exports = []Export{
	{Name: "financial-metrics", Table: dataset.Financial, Base: "financial_metrics"},
	{Name: "final-summary", Table: dataset.Summary, Base: "final_summary"},
}

func Lookup(name string) (Export, bool) {
	for _, e := range Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

func (e Export) FileName(f Format) string {
	return e.Base + "." + string(f)
}

// ParseFormat accepts a file extension with or without the leading dot.
func ParseFormat(ext string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(ext, "."))); f {
	case CSV, XLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

type Exporter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Render encodes t in format f. The result is buffered so a failed encode
// never leaves a partial download behind.
func (x *Exporter) Render(t *dataset.Table, f Format) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch f {
	case CSV:
		err = dataset.WriteCSV(&buf, t)
	case XLSX:
		err = WriteXLSX(&buf, t)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		x.logger.Error("export failed", "table", t.Name(), "format", f, "error", err)
		return nil, err
	}

	x.logger.Debug("export rendered",
		"table", t.Name(),
		"format", f,
		"rows", t.Len(),
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

// WriteXLSX writes t as a single-sheet workbook. Cells that parse as numbers
// are stored as numbers; everything else is kept as text.
func WriteXLSX(w io.Writer, t *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Name())
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range t.Rows() {
		cells := make([]any, len(row))
		for j, raw := range row {
			cells[j] = cellValue(raw)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(raw string) any {
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return raw
}

// Sheet names are limited to 31 characters and may not contain []:*?/\.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "Sheet1"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
