// Package grid holds the observation matrix shared by every engine: rows are
// spatial locations, columns are time steps, and NaN marks a missing value.
package grid

import (
	"fmt"
	"math"

	"soilval/domain/core"
)

// Shape is the [locations, steps] extent of a matrix
type Shape struct {
	Locations int `json:"locations" yaml:"locations"`
	Steps     int `json:"steps" yaml:"steps"`
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d x %d]", s.Locations, s.Steps)
}

// Matrix is a dense row-major location × time matrix. It is safe for
// concurrent reads once built.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix allocates a matrix filled with NaN
func NewMatrix(locations, steps int) *Matrix {
	if locations < 0 || steps < 0 {
		panic(fmt.Sprintf("grid: negative dimensions %d x %d", locations, steps))
	}
	data := make([]float64, locations*steps)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Matrix{rows: locations, cols: steps, data: data}
}

// FromRows copies a slice of equally long rows into a new matrix
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, core.ErrEmptyInput
	}
	cols := len(rows[0])
	m := &Matrix{rows: len(rows), cols: cols, data: make([]float64, 0, len(rows)*cols)}
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d steps, row 0 has %d", core.ErrRaggedInput, i, len(r), cols)
		}
		m.data = append(m.data, r...)
	}
	return m, nil
}

// Shape returns the matrix extent
func (m *Matrix) Shape() Shape {
	return Shape{Locations: m.rows, Steps: m.cols}
}

// Locations returns the number of rows
func (m *Matrix) Locations() int { return m.rows }

// Steps returns the number of columns
func (m *Matrix) Steps() int { return m.cols }

// At returns the value at location i, step t
func (m *Matrix) At(i, t int) float64 {
	return m.data[i*m.cols+t]
}

// Set stores v at location i, step t
func (m *Matrix) Set(i, t int, v float64) {
	m.data[i*m.cols+t] = v
}

// Row returns the time series of location i. The slice aliases the matrix
// storage and must not be modified by readers.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// SetRow overwrites the time series of location i
func (m *Matrix) SetRow(i int, values []float64) {
	if len(values) != m.cols {
		panic(fmt.Sprintf("grid: row length %d, want %d", len(values), m.cols))
	}
	copy(m.data[i*m.cols:(i+1)*m.cols], values)
}

// Clone returns a deep copy
func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// MissingCount returns the number of NaN cells
func (m *Matrix) MissingCount() int {
	n := 0
	for _, v := range m.data {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// CheckShapes verifies that all matrices are non-nil and share one shape
func CheckShapes(ms ...*Matrix) error {
	if len(ms) == 0 {
		return core.ErrEmptyInput
	}
	for i, m := range ms {
		if m == nil {
			return fmt.Errorf("%w: matrix %d is nil", core.ErrEmptyInput, i)
		}
	}
	want := ms[0].Shape()
	for _, m := range ms[1:] {
		if got := m.Shape(); got != want {
			return core.NewShapeError(want, got)
		}
	}
	return nil
}
