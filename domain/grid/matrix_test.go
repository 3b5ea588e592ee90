package grid

import (
	"math"
	"testing"

	"soilval/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixIsMissing(t *testing.T) {
	m := NewMatrix(2, 3)

	assert.Equal(t, Shape{Locations: 2, Steps: 3}, m.Shape())
	assert.Equal(t, 6, m.MissingCount())

	m.Set(1, 2, 0.25)
	assert.Equal(t, 0.25, m.At(1, 2))
	assert.Equal(t, 5, m.MissingCount())
}

func TestFromRowsRejectsRagged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, core.ErrRaggedInput)

	_, err = FromRows(nil)
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestRowAndClone(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 5, 6}, m.Row(1))

	c := m.Clone()
	c.SetRow(1, []float64{7, 8, 9})
	assert.Equal(t, []float64{4, 5, 6}, m.Row(1))
	assert.Equal(t, []float64{7, 8, 9}, c.Row(1))
}

func TestCheckShapes(t *testing.T) {
	a := NewMatrix(5, 200)
	b := NewMatrix(5, 200)
	c := NewMatrix(5, 199)

	assert.NoError(t, CheckShapes(a, b))
	err := CheckShapes(a, b, c)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "[5 x 199]")
	assert.ErrorIs(t, CheckShapes(a, nil), core.ErrEmptyInput)
}

func TestJointValid(t *testing.T) {
	nan := math.NaN()
	a := []float64{1, nan, 3, 4, 5}
	b := []float64{1, 2, nan, 4, 5}
	c := []float64{1, 2, 3, 4, nan}

	got := JointValid(a, b, c)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{1, 4}, got[0])
	assert.Equal(t, []float64{1, 4}, got[1])
	assert.Equal(t, []float64{1, 4}, got[2])
	assert.Equal(t, 2, JointValidCount(a, b, c))
	assert.Equal(t, 3, JointValidCount(a, c))
}
