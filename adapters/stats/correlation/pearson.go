// Package correlation computes Pearson correlation with its two-sided
// significance as a local result: failures are returned to the caller, who
// decides how much of its record to leave undefined.
package correlation

import (
	"errors"
	"fmt"
	"math"

	"soilval/domain/core"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrLengthMismatch = errors.New("series differ in length")
	ErrTooFewSamples  = fmt.Errorf("%w: pearson needs at least 2 samples", core.ErrInsufficientData)
	ErrDegenerate     = fmt.Errorf("%w: zero variance series", core.ErrDegenerate)
)

// Result is a Pearson correlation and its two-sided p-value
type Result struct {
	R      float64
	PValue float64
	N      int
}

// Pearson correlates two fully valid series of equal length
func Pearson(x, y []float64) (Result, error) {
	if len(x) != len(y) {
		return Result{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return Result{}, ErrTooFewSamples
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Result{}, ErrDegenerate
	}
	// Rounding can push |r| a hair past one for perfectly collinear series.
	r = math.Max(-1, math.Min(1, r))

	return Result{R: r, PValue: PValue(r, n), N: n}, nil
}

// PValue is the two-sided significance of correlation r over n samples,
// from Student's t with n-2 degrees of freedom. Two samples always
// correlate perfectly, so their p-value is 1.
func PValue(r float64, n int) float64 {
	if n <= 2 {
		return 1.0
	}
	df := float64(n - 2)
	if math.Abs(r) == 1 {
		return 0
	}
	tStatistic := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*tDist.Survival(math.Abs(tStatistic)))
}
