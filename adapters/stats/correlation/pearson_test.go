package correlation

import (
	"testing"

	"soilval/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonPerfect(t *testing.T) {
	x := []float64{0.11, 0.15, 0.21, 0.18, 0.30, 0.27, 0.22, 0.19, 0.16, 0.12}

	res, err := Pearson(x, x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.R, 1e-12)
	assert.InDelta(t, 0.0, res.PValue, 1e-9)
	assert.Equal(t, 10, res.N)
}

func TestPearsonKnownValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 5}

	res, err := Pearson(x, y)
	require.NoError(t, err)
	// r = 0.8, t = 0.8*sqrt(3/0.36) = 2.3094, two-sided p = 0.1041
	assert.InDelta(t, 0.8, res.R, 1e-12)
	assert.InDelta(t, 0.1041, res.PValue, 1e-3)
}

func TestPearsonNegative(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{6, 5, 4, 3, 2, 1}

	res, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, res.R, 1e-12)
	assert.InDelta(t, 0.0, res.PValue, 1e-9)
}

func TestPearsonFailures(t *testing.T) {
	_, err := Pearson([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Pearson([]float64{1}, []float64{1})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = Pearson([]float64{1, 2, 3}, []float64{4, 4, 4})
	assert.ErrorIs(t, err, core.ErrDegenerate)
}

func TestPValueTwoSamples(t *testing.T) {
	res, err := Pearson([]float64{1, 2}, []float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.R, 1e-12)
	assert.Equal(t, 1.0, res.PValue)
}
