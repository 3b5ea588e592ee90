package ports

import (
	"context"

	"soilval/domain/grid"
	"soilval/domain/stats"
)

// MetricEngine computes agreement statistics between a reference and a
// satellite matrix, one record per location
type MetricEngine interface {
	Compute(ctx context.Context, reference, satellite *grid.Matrix) ([]stats.PairRecord, error)
}

// TCAEngine computes triple collocation estimates, one record per location
type TCAEngine interface {
	Compute(ctx context.Context, a, b, c *grid.Matrix) ([]stats.TCARecord, error)
}
