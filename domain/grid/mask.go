package grid

import "math"

// JointValid returns, for each series, the values at the time indices where
// every series is non-NaN. All series must have the same length.
func JointValid(series ...[]float64) [][]float64 {
	if len(series) == 0 {
		return nil
	}
	n := len(series[0])
	count := 0
	for t := 0; t < n; t++ {
		if validAt(series, t) {
			count++
		}
	}

	out := make([][]float64, len(series))
	for k := range out {
		out[k] = make([]float64, 0, count)
	}
	for t := 0; t < n; t++ {
		if !validAt(series, t) {
			continue
		}
		for k, s := range series {
			out[k] = append(out[k], s[t])
		}
	}
	return out
}

// JointValidCount counts the time indices where every series is non-NaN
func JointValidCount(series ...[]float64) int {
	if len(series) == 0 {
		return 0
	}
	count := 0
	for t := range series[0] {
		if validAt(series, t) {
			count++
		}
	}
	return count
}

func validAt(series [][]float64, t int) bool {
	for _, s := range series {
		if math.IsNaN(s[t]) {
			return false
		}
	}
	return true
}
