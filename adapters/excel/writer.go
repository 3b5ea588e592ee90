package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"soilval/domain/grid"
	"soilval/domain/report"
	"soilval/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Format is a tabular sink format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf infers the sink format from a file name
func FormatOf(path string) (Format, error) {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, zstdSuffix)
	switch filepath.Ext(name) {
	case ".xlsx":
		if isCompressed(path) {
			return "", errors.InvalidInput("xlsx output is already compressed, drop the .zst suffix")
		}
		return FormatXLSX, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("unsupported table format: %s", path))
	}
}

// TableWriter persists report tables to spreadsheet or delimited-text files
type TableWriter struct {
	cfg Config
}

// NewTableWriter creates a writer
func NewTableWriter(cfg Config) *TableWriter {
	return &TableWriter{cfg: cfg}
}

// Write stores t at path, choosing the format from the file name.
// Undefined cells are written as the configured marker.
func (w *TableWriter) Write(path string, t *report.Table) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(path, err)
	}

	switch format {
	case FormatXLSX:
		err = w.writeXLSX(path, t)
	default:
		err = w.writeCSV(path, t)
	}
	if err != nil {
		return errors.ExportError(string(format), err)
	}
	return nil
}

// WriteMatrix stores an observation matrix as a table whose first column is
// the location index and whose remaining columns are time steps.
func (w *TableWriter) WriteMatrix(path string, m *grid.Matrix) error {
	return w.Write(path, matrixTable(m))
}

func matrixTable(m *grid.Matrix) *report.Table {
	t := &report.Table{
		Name:    "observations",
		Columns: make([]string, 0, m.Steps()+1),
		Rows:    make([][]report.Cell, m.Locations()),
	}
	t.Columns = append(t.Columns, report.LocationColumn)
	for s := 0; s < m.Steps(); s++ {
		t.Columns = append(t.Columns, fmt.Sprintf("t%d", s))
	}
	for i := range t.Rows {
		row := make([]report.Cell, 0, m.Steps()+1)
		row = append(row, report.Integer(i))
		for _, v := range m.Row(i) {
			row = append(row, report.Cell{Kind: report.CellNumber, Num: v})
		}
		t.Rows[i] = row
	}
	return t
}

func (w *TableWriter) writeCSV(path string, t *report.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var out io.Writer = f
	if isCompressed(path) {
		enc, encErr := compressedWriter(f, w.cfg.CompressionLevel)
		if encErr != nil {
			return encErr
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		out = enc
	}

	cw := csv.NewWriter(out)
	if strings.HasSuffix(strings.TrimSuffix(strings.ToLower(path), zstdSuffix), ".tsv") {
		cw.Comma = '\t'
	}
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	marker := w.cfg.marker()
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, c := range row {
			record[j] = formatCell(c, marker)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *TableWriter) writeXLSX(path string, t *report.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(t.Columns))
	for i, h := range t.Columns {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	marker := w.cfg.marker()
	values := make([]interface{}, len(t.Columns))
	for r, row := range t.Rows {
		for j, c := range row {
			values[j] = cellValue(c, marker)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// formatCell renders NaN observations as the marker as well
func formatCell(c report.Cell, marker string) string {
	if c.Kind == report.CellNumber && math.IsNaN(c.Num) {
		return marker
	}
	return c.Format(marker)
}

func cellValue(c report.Cell, marker string) interface{} {
	switch c.Kind {
	case report.CellInteger:
		return c.Int
	case report.CellNumber:
		if math.IsNaN(c.Num) {
			return marker
		}
		return c.Num
	default:
		return marker
	}
}
