// Package hovmoller reshapes a location × time matrix into a latitude × time
// diagram of zonally averaged values and renders it as a heat map.
package hovmoller

import (
	"fmt"
	"math"
	"sort"

	"soilval/domain/grid"
	"soilval/internal/errors"
)

// Diagram holds zonal means: Values[band][step]. Bands are ordered south to
// north and Latitudes holds their centers.
type Diagram struct {
	Latitudes []float64
	BandWidth float64
	Steps     int
	Values    [][]float64
	// Counts[band] is the number of locations that fell into the band
	Counts []int
}

// Build averages every time step over the locations that share a latitude
// band of width bandWidth degrees. Missing observations are skipped; a band
// with no valid observation at a step is NaN there.
func Build(m *grid.Matrix, lats []float64, bandWidth float64) (*Diagram, error) {
	if m == nil || m.Locations() == 0 || m.Steps() == 0 {
		return nil, errors.InvalidInput("empty observation matrix")
	}
	if len(lats) != m.Locations() {
		return nil, errors.ShapeMismatch(fmt.Sprintf("%d latitudes for %d locations", len(lats), m.Locations()))
	}
	if !(bandWidth > 0) {
		return nil, errors.InvalidInput("band width must be positive")
	}

	bandOf := make([]int, len(lats))
	keys := make(map[int]struct{})
	for i, lat := range lats {
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			return nil, errors.InvalidInput(fmt.Sprintf("location %d has latitude %v", i, lat))
		}
		b := int(math.Floor(lat / bandWidth))
		bandOf[i] = b
		keys[b] = struct{}{}
	}
	ordered := make([]int, 0, len(keys))
	for b := range keys {
		ordered = append(ordered, b)
	}
	sort.Ints(ordered)
	index := make(map[int]int, len(ordered))
	for j, b := range ordered {
		index[b] = j
	}

	d := &Diagram{
		Latitudes: make([]float64, len(ordered)),
		BandWidth: bandWidth,
		Steps:     m.Steps(),
		Values:    make([][]float64, len(ordered)),
		Counts:    make([]int, len(ordered)),
	}
	for j, b := range ordered {
		d.Latitudes[j] = (float64(b) + 0.5) * bandWidth
	}

	sums := make([][]float64, len(ordered))
	counts := make([][]int, len(ordered))
	for j := range ordered {
		sums[j] = make([]float64, m.Steps())
		counts[j] = make([]int, m.Steps())
	}
	for i := 0; i < m.Locations(); i++ {
		j := index[bandOf[i]]
		d.Counts[j]++
		for s, v := range m.Row(i) {
			if math.IsNaN(v) {
				continue
			}
			sums[j][s] += v
			counts[j][s]++
		}
	}
	for j := range ordered {
		row := make([]float64, m.Steps())
		for s := range row {
			if counts[j][s] == 0 {
				row[s] = math.NaN()
				continue
			}
			row[s] = sums[j][s] / float64(counts[j][s])
		}
		d.Values[j] = row
	}
	return d, nil
}

// Range returns the smallest and largest defined value
func (d *Diagram) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range d.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}

// Matrix returns the diagram as a band × time matrix
func (d *Diagram) Matrix() *grid.Matrix {
	m := grid.NewMatrix(len(d.Values), d.Steps)
	for j, row := range d.Values {
		m.SetRow(j, row)
	}
	return m
}
