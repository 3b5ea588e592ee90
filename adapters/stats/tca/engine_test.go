package tca

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"soilval/domain/core"
	"soilval/domain/grid"
	"soilval/domain/stats"
	"soilval/internal/errors"
	"soilval/internal/synth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var injected = [3]float64{0.01, 0.02, 0.03}

// scenario builds 5 locations x 200 steps: locations 0-2 carry errors of
// known variance, location 3 has only 50 jointly valid samples and location
// 4 has cov_bc exactly zero.
func scenario(t *testing.T) (a, b, c *grid.Matrix) {
	t.Helper()

	cfg := synth.DefaultConfig()
	cfg.Locations = 5
	cfg.Steps = 200
	cfg.ErrVar = injected
	cfg.Scale = [3]float64{1, 1, 1}
	cfg.Offset = [3]float64{}
	cfg.SeasonalAmplitude = 0.1
	cfg.AnomalyStd = 0.05
	cfg.MissingFraction = [3]float64{0.03, 0.03, 0.03}
	cfg.ExactMoments = true

	tr, err := synth.GenerateTriplet(cfg)
	require.NoError(t, err)
	a, b, c = tr.A, tr.B, tr.C

	for step := 50; step < cfg.Steps; step++ {
		a.Set(3, step, math.NaN())
	}

	// Orthogonal +-1 patterns on exactly representable levels keep every
	// intermediate sum exact, so cov_bc is exactly zero.
	for step := 0; step < cfg.Steps; step++ {
		w1 := 1.0
		if step%2 == 1 {
			w1 = -1
		}
		w2 := 1.0
		if (step/2)%2 == 1 {
			w2 = -1
		}
		bv := 0.25 + 0.125*w1
		cv := 0.5 + 0.0625*w2
		a.Set(4, step, bv+cv)
		b.Set(4, step, bv)
		c.Set(4, step, cv)
	}
	return a, b, c
}

func defined(t *testing.T, v stats.Value) float64 {
	t.Helper()
	f, ok := v.Get()
	require.True(t, ok, "expected a defined value")
	return f
}

func TestScenario(t *testing.T) {
	a, b, c := scenario(t)

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), a, b, c)
	require.NoError(t, err)
	require.Len(t, records, 5)

	for i := 0; i < 3; i++ {
		rec := records[i]
		nObs, ok := rec.NObs.Get()
		require.True(t, ok)
		assert.GreaterOrEqual(t, nObs, 150)
		for k := range stats.Datasets {
			errVar := defined(t, rec.ErrVar[k])
			assert.InDelta(t, injected[k], errVar, 0.005, "location %d dataset %d", i, k)
			assert.False(t, rec.NegativeErrVar[k])

			snr := rec.Cov.CovAB * rec.Cov.CovAC / rec.Cov.CovBC / errVar
			if k == 1 {
				snr = rec.Cov.CovAB * rec.Cov.CovBC / rec.Cov.CovAC / errVar
			} else if k == 2 {
				snr = rec.Cov.CovAC * rec.Cov.CovBC / rec.Cov.CovAB / errVar
			}
			assert.InDelta(t, 10*math.Log10(snr), defined(t, rec.SNRdB[k]), 1e-9)
			assert.InDelta(t, 1/(1+snr), defined(t, rec.FMSE[k]), 1e-9)
		}
		for _, v := range rec.Corr {
			assert.True(t, v.IsDefined())
		}
		assert.Greater(t, defined(t, rec.Corr[stats.CorrAB]), 0.0)
	}

	insufficient := records[3]
	assert.Equal(t, stats.TCARecord{}, insufficient)
	assert.False(t, insufficient.NObs.IsDefined())

	zero := records[4]
	assert.Equal(t, 0.0, zero.Cov.CovBC)
	assert.False(t, zero.ErrVar[stats.DatasetA].IsDefined())
	assert.False(t, zero.SNRdB[stats.DatasetA].IsDefined())
	assert.False(t, zero.FMSE[stats.DatasetA].IsDefined())
	assert.True(t, zero.ErrVar[stats.DatasetB].IsDefined())
	assert.True(t, zero.ErrVar[stats.DatasetC].IsDefined())
	for _, v := range zero.Corr {
		assert.True(t, v.IsDefined())
	}
	assert.InDelta(t, 0, defined(t, zero.Corr[stats.CorrBC]), 1e-12)
}

func TestErrorVarianceIdentity(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.Locations = 40
	cfg.Steps = 300
	tr, err := synth.GenerateTriplet(cfg)
	require.NoError(t, err)

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), tr.A, tr.B, tr.C)
	require.NoError(t, err)

	for i, rec := range records {
		if !rec.Computed() {
			continue
		}
		cv := rec.Cov
		assert.InDelta(t, cv.VarA, defined(t, rec.ErrVar[0])+cv.CovAB*cv.CovAC/cv.CovBC, 1e-12, "location %d", i)
		assert.InDelta(t, cv.VarB, defined(t, rec.ErrVar[1])+cv.CovAB*cv.CovBC/cv.CovAC, 1e-12, "location %d", i)
		assert.InDelta(t, cv.VarC, defined(t, rec.ErrVar[2])+cv.CovAC*cv.CovBC/cv.CovAB, 1e-12, "location %d", i)
	}
}

func TestStatisticalRecovery(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.Locations = 3
	cfg.Steps = 20000
	cfg.Period = 365
	cfg.ErrVar = injected
	cfg.SeasonalAmplitude = 0.1
	cfg.MissingFraction = [3]float64{0.1, 0.1, 0.1}

	tr, err := synth.GenerateTriplet(cfg)
	require.NoError(t, err)

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), tr.A, tr.B, tr.C)
	require.NoError(t, err)

	for i, rec := range records {
		for k := range stats.Datasets {
			// Dataset errors are reported in the dataset's own units.
			assert.InDelta(t, injected[k], defined(t, rec.ErrVar[k]), 0.005, "location %d dataset %d", i, k)
		}
	}
}

func TestBelowSampleGate(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.Locations = 2
	cfg.Steps = 99
	cfg.MissingFraction = [3]float64{}
	tr, err := synth.GenerateTriplet(cfg)
	require.NoError(t, err)

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), tr.A, tr.B, tr.C)
	require.NoError(t, err)
	for _, rec := range records {
		assert.Equal(t, stats.TCARecord{}, rec)
	}

	relaxed, err := NewEngine(Options{MinSamples: 50}, nil).Compute(context.Background(), tr.A, tr.B, tr.C)
	require.NoError(t, err)
	for _, rec := range relaxed {
		n, ok := rec.NObs.Get()
		assert.True(t, ok)
		assert.Equal(t, 99, n)
	}
}

func TestPermutationInvariance(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.Locations = 10
	cfg.Steps = 400
	tr, err := synth.GenerateTriplet(cfg)
	require.NoError(t, err)

	engine := NewEngine(DefaultOptions(), nil)
	abc, err := engine.Compute(context.Background(), tr.A, tr.B, tr.C)
	require.NoError(t, err)
	cab, err := engine.Compute(context.Background(), tr.C, tr.A, tr.B)
	require.NoError(t, err)

	// Argument k of (c, a, b) is dataset perm[k] of (a, b, c).
	perm := [3]int{2, 0, 1}
	for i := range abc {
		orig, moved := abc[i], cab[i]
		assert.Equal(t, orig.NObs, moved.NObs)
		for k, from := range perm {
			assertClose(t, orig.ErrVar[from], moved.ErrVar[k], 1e-12)
			assertClose(t, orig.SNRdB[from], moved.SNRdB[k], 1e-9)
			assertClose(t, orig.FMSE[from], moved.FMSE[k], 1e-12)
		}
		// (c,a) = (a,c), (c,b) = (b,c), (a,b) = (a,b)
		assertClose(t, orig.Corr[stats.CorrAC], moved.Corr[stats.CorrAB], 1e-12)
		assertClose(t, orig.Corr[stats.CorrBC], moved.Corr[stats.CorrAC], 1e-12)
		assertClose(t, orig.Corr[stats.CorrAB], moved.Corr[stats.CorrBC], 1e-12)
	}
}

func assertClose(t *testing.T, want, got stats.Value, delta float64) {
	t.Helper()
	w, wok := want.Get()
	g, gok := got.Get()
	require.Equal(t, wok, gok, "definedness differs")
	if wok {
		assert.InDelta(t, w, g, delta)
	}
}

func TestIdempotent(t *testing.T) {
	a, b, c := scenario(t)
	first, err := NewEngine(Options{Workers: 1}, nil).Compute(context.Background(), a, b, c)
	require.NoError(t, err)
	second, err := NewEngine(Options{Workers: 4}, nil).Compute(context.Background(), a, b, c)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNegativeErrorVarianceIsReportedNotClamped(t *testing.T) {
	const steps = 2000
	rng := rand.New(rand.NewSource(7))
	a := grid.NewMatrix(1, steps)
	b := grid.NewMatrix(1, steps)
	c := grid.NewMatrix(1, steps)
	for step := 0; step < steps; step++ {
		s := rng.NormFloat64()
		shared := rng.NormFloat64() * math.Sqrt(0.5)
		a.Set(0, step, s+rng.NormFloat64()*math.Sqrt(0.1))
		// b and c share an anti-correlated error, breaking independence.
		b.Set(0, step, s+shared)
		c.Set(0, step, s-shared)
	}

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), a, b, c)
	require.NoError(t, err)

	rec := records[0]
	errVarA := defined(t, rec.ErrVar[stats.DatasetA])
	assert.Less(t, errVarA, 0.0)
	assert.True(t, rec.NegativeErrVar[stats.DatasetA])
	assert.False(t, rec.SNRdB[stats.DatasetA].IsDefined())
}

func TestZeroVarianceSeriesLeavesCorrelationGroupUndefined(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.Locations = 1
	cfg.Steps = 150
	cfg.MissingFraction = [3]float64{}
	tr, err := synth.GenerateTriplet(cfg)
	require.NoError(t, err)
	flat := make([]float64, cfg.Steps)
	for i := range flat {
		flat[i] = 0.3
	}
	tr.C.SetRow(0, flat)

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), tr.A, tr.B, tr.C)
	require.NoError(t, err)

	rec := records[0]
	assert.True(t, rec.Computed())
	for _, v := range rec.Corr {
		assert.False(t, v.IsDefined())
	}
}

func TestShapeMismatch(t *testing.T) {
	a := grid.NewMatrix(5, 200)
	b := grid.NewMatrix(5, 200)
	c := grid.NewMatrix(4, 200)

	records, err := NewEngine(DefaultOptions(), nil).Compute(context.Background(), a, b, c)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
	assert.Equal(t, errors.CodeShapeMismatch, errors.GetCode(err))
}

func TestCancelled(t *testing.T) {
	a, b, c := scenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(DefaultOptions(), nil).Compute(ctx, a, b, c)
	assert.ErrorIs(t, err, context.Canceled)
}
