package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"soilval/domain/grid"
	"soilval/domain/report"
	"soilval/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader loads observation matrices from spreadsheet or delimited files.
// Each row is a location and each column a time step. A leading header row is
// detected and skipped; when its first cell is "location" the first column is
// treated as an index and dropped.
type DataReader struct {
	cfg Config
}

// NewDataReader creates a reader
func NewDataReader(cfg Config) *DataReader {
	return &DataReader{cfg: cfg}
}

// ReadMatrix loads the matrix stored at path
func (r *DataReader) ReadMatrix(path string) (*grid.Matrix, error) {
	rows, err := r.readRows(path)
	if err != nil {
		return nil, err
	}
	m, err := r.parse(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return m, nil
}

// ReadVector loads one value per location, e.g. latitudes. Both a single
// column and a single row are accepted.
func (r *DataReader) ReadVector(path string) ([]float64, error) {
	m, err := r.ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	switch {
	case m.Steps() == 1:
		out := make([]float64, m.Locations())
		for i := range out {
			out[i] = m.At(i, 0)
		}
		return out, nil
	case m.Locations() == 1:
		return append([]float64(nil), m.Row(0)...), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("%s holds a %s matrix, expected a vector", path, m.Shape()))
	}
}

func (r *DataReader) readRows(path string) ([][]string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return r.readExcelRows(path)
	}
	return r.readDelimitedRows(path)
}

func (r *DataReader) readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	defer f.Close()

	sheet := r.cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("%s has no worksheets", path))
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.IOError(path, err)
	}

	// GetRows drops trailing empty cells; those are missing observations.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows, nil
}

func (r *DataReader) readDelimitedRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	defer file.Close()

	var in io.Reader = file
	if isCompressed(path) {
		dec, err := compressedReader(file)
		if err != nil {
			return nil, errors.IOError(path, err)
		}
		defer dec.Close()
		in = dec
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if strings.HasSuffix(strings.TrimSuffix(strings.ToLower(path), zstdSuffix), ".tsv") {
		reader.Comma = '\t'
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	return rows, nil
}

func (r *DataReader) parse(rows [][]string) (*grid.Matrix, error) {
	rows = trimEmptyRows(rows)
	if len(rows) == 0 {
		return nil, errors.InvalidInput("no data rows")
	}

	skipIndex := false
	if r.isHeader(rows[0]) {
		skipIndex = strings.EqualFold(strings.TrimSpace(rows[0][0]), report.LocationColumn)
		rows = rows[1:]
		if len(rows) == 0 {
			return nil, errors.InvalidInput("header without data rows")
		}
	}

	values := make([][]float64, len(rows))
	for i, raw := range rows {
		if skipIndex && len(raw) > 0 {
			raw = raw[1:]
		}
		row := make([]float64, len(raw))
		for j, cell := range raw {
			v, err := r.parseCell(cell)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d column %d: %v", i, j, err))
			}
			row[j] = v
		}
		values[i] = row
	}

	m, err := grid.FromRows(values)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return m, nil
}

func (r *DataReader) isHeader(row []string) bool {
	for _, cell := range row {
		if _, err := r.parseCell(cell); err != nil {
			return true
		}
	}
	return false
}

func (r *DataReader) parseCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if r.isMissing(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func (r *DataReader) isMissing(s string) bool {
	if s == "" || s == r.cfg.marker() {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "na", "n/a", "null", "none":
		return true
	}
	return false
}

// trimEmptyRows drops trailing blank rows, which spreadsheets often carry
func trimEmptyRows(rows [][]string) [][]string {
	for len(rows) > 0 {
		last := rows[len(rows)-1]
		blank := true
		for _, c := range last {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if !blank {
			break
		}
		rows = rows[:len(rows)-1]
	}
	return rows
}
