// Package tca estimates per-location random error variance, SNR and fMSE of
// three collocated datasets with Triple Collocation.
//
// The estimates assume the three datasets observe a common signal with
// individual linear scaling and mutually independent, signal-independent
// errors. Violations show up as negative error variances, which are reported
// as computed and flagged in the record rather than clamped.
package tca

import (
	"context"
	"math"

	"soilval/adapters/stats/correlation"
	"soilval/domain/grid"
	"soilval/domain/stats"
	"soilval/internal"
	"soilval/internal/errors"
	"soilval/internal/workers"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultMinSamples is the smallest number of jointly valid samples for
// which a location is evaluated.
const DefaultMinSamples = 100

// Options tunes the engine
type Options struct {
	MinSamples int
	Workers    int
}

// DefaultOptions returns the standard sample gate and one worker per core
func DefaultOptions() Options {
	return Options{MinSamples: DefaultMinSamples, Workers: workers.DefaultWorkers()}
}

// Engine computes TCARecords
type Engine struct {
	opts   Options
	logger *internal.Logger
}

// NewEngine creates a triple collocation engine. A nil logger disables logging.
func NewEngine(opts Options, logger *internal.Logger) *Engine {
	if opts.MinSamples <= 0 {
		opts.MinSamples = DefaultMinSamples
	}
	// The unbiased covariance divides by N-1.
	if opts.MinSamples < 2 {
		opts.MinSamples = 2
	}
	return &Engine{opts: opts, logger: logger.With("tca")}
}

// Compute returns one record per location. Matrices of different shape are
// rejected before any location is processed; every other problem stays
// local to its location as undefined fields.
func (e *Engine) Compute(ctx context.Context, a, b, c *grid.Matrix) ([]stats.TCARecord, error) {
	if err := grid.CheckShapes(a, b, c); err != nil {
		return nil, errors.Wrap(errors.ShapeMismatch(err.Error()), "triple collocation")
	}

	records := make([]stats.TCARecord, a.Locations())
	err := workers.ForEach(ctx, len(records), e.opts.Workers, func(i int) {
		records[i] = e.location(a.Row(i), b.Row(i), c.Row(i))
	})
	if err != nil {
		return nil, errors.Cancelled(err)
	}

	computed, negative := 0, 0
	for _, r := range records {
		if r.Computed() {
			computed++
		}
		for _, neg := range r.NegativeErrVar {
			if neg {
				negative++
			}
		}
	}
	e.logger.Debug("evaluated %d of %d locations, %d negative error variances", computed, len(records), negative)
	return records, nil
}

func (e *Engine) location(a, b, c []float64) stats.TCARecord {
	var rec stats.TCARecord

	valid := grid.JointValid(a, b, c)
	n := len(valid[0])
	if n < e.opts.MinSamples {
		return rec
	}
	rec.NObs = stats.CountOf(n)

	cov := covariance(valid)
	rec.Cov = cov

	errVar, snr := estimate(cov)
	for k := range stats.Datasets {
		rec.ErrVar[k] = stats.Defined(errVar[k])
		if rec.ErrVar[k].IsDefined() && errVar[k] < 0 {
			rec.NegativeErrVar[k] = true
		}

		s := stats.Defined(snr[k])
		if v, ok := s.Get(); ok {
			rec.FMSE[k] = stats.Defined(1 / (1 + v))
			if v > 0 {
				rec.SNRdB[k] = stats.Defined(10 * math.Log10(v))
			}
		}
	}

	rec.Corr = correlations(valid[0], valid[1], valid[2])
	return rec
}

// covariance returns the unbiased 3x3 sample covariance of the valid samples
func covariance(valid [][]float64) stats.Covariance {
	n := len(valid[0])
	x := mat.NewDense(n, 3, nil)
	for k, series := range valid {
		x.SetCol(k, series)
	}

	var c mat.SymDense
	stat.CovarianceMatrix(&c, x, nil)
	return stats.Covariance{
		VarA:  c.At(0, 0),
		VarB:  c.At(1, 1),
		VarC:  c.At(2, 2),
		CovAB: c.At(0, 1),
		CovAC: c.At(0, 2),
		CovBC: c.At(1, 2),
	}
}

// estimate applies the triple collocation error variance and linear SNR
// formulas. A zero covariance denominator yields a non-finite term that the
// caller records as undefined.
func estimate(c stats.Covariance) (errVar, snr [3]float64) {
	num := [3]float64{c.CovAB * c.CovAC, c.CovAB * c.CovBC, c.CovAC * c.CovBC}
	den := [3]float64{c.CovBC, c.CovAC, c.CovAB}
	variance := [3]float64{c.VarA, c.VarB, c.VarC}

	for k := range num {
		errVar[k] = variance[k] - num[k]/den[k]
		if !finite(errVar[k]) {
			errVar[k] = math.NaN()
			snr[k] = math.NaN()
			continue
		}
		snr[k] = num[k] / (den[k] * errVar[k])
	}
	return errVar, snr
}

// correlations returns R_ab, R_ac, R_bc, p_ab, p_ac, p_bc. If any pair
// fails, the whole group stays undefined.
func correlations(a, b, c []float64) [6]stats.Value {
	var out [6]stats.Value
	pairs := [3][2][]float64{{a, b}, {a, c}, {b, c}}

	var results [3]correlation.Result
	for k, p := range pairs {
		res, err := correlation.Pearson(p[0], p[1])
		if err != nil {
			return out
		}
		results[k] = res
	}
	for k, res := range results {
		out[stats.CorrAB+k] = stats.Defined(res.R)
		out[stats.PValueAB+k] = stats.Defined(res.PValue)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
