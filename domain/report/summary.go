package report

import (
	mstats "github.com/montanaflynn/stats"
)

// ColumnSummary describes the defined values of one table column
type ColumnSummary struct {
	Column    string  `yaml:"column"`
	Defined   int     `yaml:"defined"`
	Undefined int     `yaml:"undefined"`
	Mean      float64 `yaml:"mean,omitempty"`
	Median    float64 `yaml:"median,omitempty"`
	P10       float64 `yaml:"p10,omitempty"`
	P90       float64 `yaml:"p90,omitempty"`
}

// Summarize reports defined/undefined counts and the distribution of the
// defined values of every numeric column except the location index.
func Summarize(t *Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.Columns))
	for j, name := range t.Columns {
		if name == LocationColumn {
			continue
		}
		s := ColumnSummary{Column: name}
		values := make(mstats.Float64Data, 0, len(t.Rows))
		for _, row := range t.Rows {
			switch row[j].Kind {
			case CellNumber:
				values = append(values, row[j].Num)
			case CellInteger:
				values = append(values, float64(row[j].Int))
			default:
				s.Undefined++
			}
		}
		s.Defined = len(values)
		if len(values) > 0 {
			s.Mean, _ = values.Mean()
			s.Median, _ = values.Median()
			s.P10, _ = values.Percentile(10)
			s.P90, _ = values.Percentile(90)
		}
		out = append(out, s)
	}
	return out
}
