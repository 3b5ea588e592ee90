// Package pairwise computes per-location agreement statistics between a
// reference and a satellite observation matrix.
package pairwise

import (
	"context"
	"math"

	"soilval/adapters/stats/correlation"
	"soilval/domain/grid"
	"soilval/domain/stats"
	"soilval/internal"
	"soilval/internal/errors"
	"soilval/internal/workers"

	mstats "github.com/montanaflynn/stats"
)

// DefaultMinSamples is the smallest number of jointly valid samples for
// which a location is evaluated.
const DefaultMinSamples = 2

// Options tunes the engine
type Options struct {
	MinSamples int
	Workers    int
}

// DefaultOptions returns the standard sample gate and one worker per core
func DefaultOptions() Options {
	return Options{MinSamples: DefaultMinSamples, Workers: workers.DefaultWorkers()}
}

// Engine computes PairRecords
type Engine struct {
	opts   Options
	logger *internal.Logger
}

// NewEngine creates a metric engine. A nil logger disables logging.
func NewEngine(opts Options, logger *internal.Logger) *Engine {
	if opts.MinSamples < 2 {
		opts.MinSamples = DefaultMinSamples
	}
	return &Engine{opts: opts, logger: logger.With("pairwise")}
}

// Compute returns one record per location. Matrices of different shape are
// rejected before any location is processed.
func (e *Engine) Compute(ctx context.Context, reference, satellite *grid.Matrix) ([]stats.PairRecord, error) {
	if err := grid.CheckShapes(reference, satellite); err != nil {
		return nil, errors.Wrap(errors.ShapeMismatch(err.Error()), "compute metrics")
	}

	records := make([]stats.PairRecord, reference.Locations())
	err := workers.ForEach(ctx, len(records), e.opts.Workers, func(i int) {
		records[i] = e.location(reference.Row(i), satellite.Row(i))
	})
	if err != nil {
		return nil, errors.Cancelled(err)
	}

	e.logger.Debug("evaluated %d locations (%d skipped)", len(records), countSkipped(records))
	return records, nil
}

func (e *Engine) location(ref, sat []float64) stats.PairRecord {
	valid := grid.JointValid(ref, sat)
	r, s := valid[0], valid[1]
	n := len(r)
	if n < e.opts.MinSamples {
		return stats.PairRecord{}
	}

	rec := stats.PairRecord{N: n}

	meanRef, _ := mstats.Mean(r)
	meanSat, _ := mstats.Mean(s)
	diff := make([]float64, n)
	sq := make([]float64, n)
	ubSq := make([]float64, n)
	for t := range r {
		d := s[t] - r[t]
		diff[t] = d
		sq[t] = d * d
		ub := (s[t] - meanSat) - (r[t] - meanRef)
		ubSq[t] = ub * ub
	}

	bias, _ := mstats.Mean(diff)
	mse, _ := mstats.Mean(sq)
	ubMSE, _ := mstats.Mean(ubSq)
	rec.Bias = stats.Defined(bias)
	rec.RMSE = stats.Defined(math.Sqrt(mse))
	rec.UbRMSE = stats.Defined(math.Sqrt(ubMSE))

	if res, err := correlation.Pearson(r, s); err == nil {
		rec.R = stats.Defined(res.R)
		rec.PValue = stats.Defined(res.PValue)
	}
	return rec
}

func countSkipped(records []stats.PairRecord) int {
	n := 0
	for _, r := range records {
		if r.N == 0 {
			n++
		}
	}
	return n
}
