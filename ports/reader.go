package ports

import (
	"soilval/domain/grid"
)

// MatrixReader loads observation matrices supplied by the caller. Time
// alignment across datasets is the caller's responsibility.
type MatrixReader interface {
	ReadMatrix(path string) (*grid.Matrix, error)
	// ReadVector loads one value per location, e.g. latitudes
	ReadVector(path string) ([]float64, error)
}
