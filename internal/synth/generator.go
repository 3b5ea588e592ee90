// Package synth generates seeded synthetic soil-moisture datasets with known
// error characteristics, for tests and the demo command.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"soilval/domain/grid"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config describes a synthetic triplet. Dataset k observes
// Scale[k]*signal + Offset[k] + e_k with e_k ~ N(0, ErrVar[k]).
type Config struct {
	Locations int
	Steps     int
	Seed      int64

	// Signal: Mean + seasonal cycle + AR(1) anomaly, in m3/m3
	Mean              float64
	SeasonalAmplitude float64
	Period            float64
	AnomalyStd        float64
	Persistence       float64

	ErrVar          [3]float64
	Scale           [3]float64
	Offset          [3]float64
	MissingFraction [3]float64

	// ExactMoments makes the errors exactly uncorrelated with the signal and
	// with each other over the jointly valid samples, with unbiased sample
	// variance exactly ErrVar.
	ExactMoments bool
}

// DefaultConfig returns a daily, one-year triplet over 50 locations
func DefaultConfig() Config {
	return Config{
		Locations:         50,
		Steps:             365,
		Seed:              42,
		Mean:              0.25,
		SeasonalAmplitude: 0.08,
		Period:            365,
		AnomalyStd:        0.04,
		Persistence:       0.9,
		ErrVar:            [3]float64{0.0004, 0.0009, 0.0016},
		Scale:             [3]float64{1, 0.8, 1.2},
		Offset:            [3]float64{0, 0.03, -0.02},
		MissingFraction:   [3]float64{0.1, 0.2, 0},
	}
}

// Triplet is a generated truth plus three noisy observations of it
type Triplet struct {
	Truth   *grid.Matrix
	A, B, C *grid.Matrix
}

// Datasets returns the observations in argument order
func (t *Triplet) Datasets() [3]*grid.Matrix {
	return [3]*grid.Matrix{t.A, t.B, t.C}
}

func (cfg Config) validate() error {
	if cfg.Locations <= 0 || cfg.Steps <= 0 {
		return fmt.Errorf("locations and steps must be > 0")
	}
	if cfg.Persistence < 0 || cfg.Persistence >= 1 {
		return fmt.Errorf("persistence must be in [0, 1)")
	}
	for k := 0; k < 3; k++ {
		if cfg.ErrVar[k] < 0 {
			return fmt.Errorf("error variance of dataset %d must be >= 0", k)
		}
		if cfg.MissingFraction[k] < 0 || cfg.MissingFraction[k] >= 1 {
			return fmt.Errorf("missing fraction of dataset %d must be in [0, 1)", k)
		}
	}
	if cfg.ExactMoments && cfg.Steps < 5 {
		return fmt.Errorf("exact moments need at least 5 steps")
	}
	return nil
}

// GenerateTriplet builds a triplet from cfg. Output is a pure function of cfg.
func GenerateTriplet(cfg Config) (*Triplet, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	for k := range cfg.Scale {
		if cfg.Scale[k] == 0 {
			cfg.Scale[k] = 1
		}
	}
	if cfg.Period <= 0 {
		cfg.Period = float64(cfg.Steps)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	out := &Triplet{
		Truth: grid.NewMatrix(cfg.Locations, cfg.Steps),
		A:     grid.NewMatrix(cfg.Locations, cfg.Steps),
		B:     grid.NewMatrix(cfg.Locations, cfg.Steps),
		C:     grid.NewMatrix(cfg.Locations, cfg.Steps),
	}
	obs := out.Datasets()

	for i := 0; i < cfg.Locations; i++ {
		signal := cfg.signal(rng)
		var errs [3][]float64
		var missing [3][]bool
		for k := 0; k < 3; k++ {
			errs[k] = make([]float64, cfg.Steps)
			sd := math.Sqrt(cfg.ErrVar[k])
			for t := range errs[k] {
				errs[k][t] = rng.NormFloat64() * sd
			}
			missing[k] = make([]bool, cfg.Steps)
			for t := range missing[k] {
				missing[k][t] = rng.Float64() < cfg.MissingFraction[k]
			}
		}

		if cfg.ExactMoments {
			if err := exactMoments(signal, &errs, missing, cfg.ErrVar); err != nil {
				return nil, fmt.Errorf("location %d: %w", i, err)
			}
		}

		out.Truth.SetRow(i, signal)
		for k := 0; k < 3; k++ {
			row := make([]float64, cfg.Steps)
			for t := range row {
				if missing[k][t] {
					row[t] = math.NaN()
					continue
				}
				row[t] = cfg.Scale[k]*signal[t] + cfg.Offset[k] + errs[k][t]
			}
			obs[k].SetRow(i, row)
		}
	}
	return out, nil
}

func (cfg Config) signal(rng *rand.Rand) []float64 {
	phase := rng.Float64() * 2 * math.Pi
	innovation := cfg.AnomalyStd * math.Sqrt(1-cfg.Persistence*cfg.Persistence)
	anomaly := rng.NormFloat64() * cfg.AnomalyStd

	s := make([]float64, cfg.Steps)
	for t := range s {
		if t > 0 {
			anomaly = cfg.Persistence*anomaly + rng.NormFloat64()*innovation
		}
		seasonal := cfg.SeasonalAmplitude * math.Sin(2*math.Pi*float64(t)/cfg.Period+phase)
		s[t] = cfg.Mean + seasonal + anomaly
	}
	return s
}

// exactMoments rewrites the errors on the jointly valid samples so that they
// are centered, orthogonal to the signal and to each other, and have
// unbiased variance target[k].
func exactMoments(signal []float64, errs *[3][]float64, missing [3][]bool, target [3]float64) error {
	var idx []int
	for t := range signal {
		if !missing[0][t] && !missing[1][t] && !missing[2][t] {
			idx = append(idx, t)
		}
	}
	n := len(idx)
	if n < 5 {
		return fmt.Errorf("only %d jointly valid samples", n)
	}

	basis := [][]float64{centered(gather(signal, idx))}
	for k := 0; k < 3; k++ {
		e := centered(gather(errs[k], idx))
		for _, b := range basis {
			floats.AddScaled(e, -floats.Dot(e, b)/floats.Dot(b, b), b)
		}
		norm2 := floats.Dot(e, e)
		if norm2 == 0 {
			return fmt.Errorf("degenerate error draw for dataset %d", k)
		}
		basis = append(basis, append([]float64(nil), e...))

		floats.Scale(math.Sqrt(target[k]*float64(n-1)/norm2), e)
		for j, t := range idx {
			errs[k][t] = e[j]
		}
	}
	return nil
}

func gather(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for j, t := range idx {
		out[j] = v[t]
	}
	return out
}

func centered(v []float64) []float64 {
	floats.AddConst(-stat.Mean(v, nil), v)
	return v
}
