package report

import (
	"testing"

	"soilval/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairTable(t *testing.T) {
	records := []stats.PairRecord{
		{R: stats.Defined(0.9), Bias: stats.Defined(0.01), RMSE: stats.Defined(0.04),
			UbRMSE: stats.Defined(0.03), PValue: stats.Defined(0.001), N: 120},
		{},
	}

	tbl := PairTable(records)
	assert.Equal(t, []string{"location", "R", "Bias", "RMSE", "ubRMSE", "PValue", "N"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, "0.9", tbl.Rows[0][1].Format("NaN"))
	assert.Equal(t, "120", tbl.Rows[0][6].Format("NaN"))
	assert.Equal(t, "NaN", tbl.Rows[1][1].Format("NaN"))
	assert.Equal(t, "0", tbl.Rows[1][6].Format("NaN"))
	assert.Equal(t, "1", tbl.Rows[1][0].Format("NaN"))
}

func TestTCATableOrder(t *testing.T) {
	var rec stats.TCARecord
	rec.ErrVar = [3]stats.Value{stats.Defined(1), stats.Defined(2), stats.Defined(3)}
	rec.SNRdB = [3]stats.Value{stats.Defined(4), stats.Defined(5), stats.Defined(6)}
	rec.FMSE = [3]stats.Value{stats.Defined(7), stats.Defined(8), stats.Defined(9)}
	rec.NObs = stats.CountOf(10)
	for k := range rec.Corr {
		rec.Corr[k] = stats.Defined(float64(11 + k))
	}

	tbl := TCATable([]stats.TCARecord{rec, {}}, stats.DefaultLabels)
	require.Len(t, tbl.Columns, 17)

	for j := 1; j < len(tbl.Columns); j++ {
		assert.Equal(t, float64(j), cellValue(tbl.Rows[0][j]), "column %s", tbl.Columns[j])
		assert.Equal(t, CellUndefined, tbl.Rows[1][j].Kind, "column %s", tbl.Columns[j])
	}
	assert.Equal(t, 10, tbl.Column("NObs"))
	assert.Equal(t, -1, tbl.Column("missing"))
}

func TestSummarize(t *testing.T) {
	records := []stats.PairRecord{
		{R: stats.Defined(0.2), N: 10},
		{R: stats.Defined(0.4), N: 20},
		{R: stats.Defined(0.6), N: 30},
		{},
	}
	summaries := Summarize(PairTable(records))
	require.Len(t, summaries, 6)

	r := summaries[0]
	assert.Equal(t, "R", r.Column)
	assert.Equal(t, 3, r.Defined)
	assert.Equal(t, 1, r.Undefined)
	assert.InDelta(t, 0.4, r.Mean, 1e-12)
	assert.InDelta(t, 0.4, r.Median, 1e-12)

	n := summaries[5]
	assert.Equal(t, "N", n.Column)
	assert.Equal(t, 4, n.Defined)
	assert.InDelta(t, 15.0, n.Mean, 1e-12)
}

func cellValue(c Cell) float64 {
	if c.Kind == CellInteger {
		return float64(c.Int)
	}
	return c.Num
}
