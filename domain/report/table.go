// Package report converts per-location record collections into named-column
// tables for the export sinks.
package report

import (
	"strconv"

	"soilval/domain/stats"
)

// DefaultUndefinedMarker is written in place of undefined statistics
const DefaultUndefinedMarker = "NaN"

// LocationColumn is the leading column holding the location index
const LocationColumn = "location"

// CellKind tells sinks how to write a cell
type CellKind int

const (
	CellUndefined CellKind = iota
	CellNumber
	CellInteger
)

// Cell is one table entry. The zero Cell is undefined.
type Cell struct {
	Kind CellKind
	Num  float64
	Int  int
}

// Number converts a statistic into a cell
func Number(v stats.Value) Cell {
	if f, ok := v.Get(); ok {
		return Cell{Kind: CellNumber, Num: f}
	}
	return Cell{}
}

// Integer wraps a defined integer
func Integer(n int) Cell {
	return Cell{Kind: CellInteger, Int: n}
}

// FromCount converts an optional count into a cell
func FromCount(c stats.Count) Cell {
	if n, ok := c.Get(); ok {
		return Integer(n)
	}
	return Cell{}
}

// Format renders the cell as text, with marker for undefined cells
func (c Cell) Format(marker string) string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'g', -1, 64)
	case CellInteger:
		return strconv.Itoa(c.Int)
	default:
		return marker
	}
}

// Table is a named-column view of a record collection
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Cell
}

// PairTable lays out metric records, one row per location
func PairTable(records []stats.PairRecord) *Table {
	t := &Table{
		Name:    "metrics",
		Columns: append([]string{LocationColumn}, stats.PairColumns...),
		Rows:    make([][]Cell, len(records)),
	}
	for i, r := range records {
		t.Rows[i] = []Cell{
			Integer(i),
			Number(r.R),
			Number(r.Bias),
			Number(r.RMSE),
			Number(r.UbRMSE),
			Number(r.PValue),
			Integer(r.N),
		}
	}
	return t
}

// TCATable lays out triple collocation records, one row per location
func TCATable(records []stats.TCARecord, labels [3]string) *Table {
	t := &Table{
		Name:    "tca",
		Columns: append([]string{LocationColumn}, stats.TCAColumns(labels)...),
		Rows:    make([][]Cell, len(records)),
	}
	for i, r := range records {
		row := make([]Cell, 0, len(t.Columns))
		row = append(row, Integer(i))
		for _, group := range [][3]stats.Value{r.ErrVar, r.SNRdB, r.FMSE} {
			for _, v := range group {
				row = append(row, Number(v))
			}
		}
		row = append(row, FromCount(r.NObs))
		for _, v := range r.Corr {
			row = append(row, Number(v))
		}
		t.Rows[i] = row
	}
	return t
}

// Column returns the index of the named column, or -1
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
