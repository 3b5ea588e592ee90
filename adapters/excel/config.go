package excel

import "soilval/domain/report"

// Config controls how tables and matrices are read and written
type Config struct {
	// Sheet is the worksheet to read; empty selects the first sheet
	Sheet string `yaml:"sheet" json:"sheet"`
	// UndefinedMarker replaces undefined statistics and missing observations
	UndefinedMarker string `yaml:"undefined_marker" json:"undefined_marker"`
	// CompressionLevel selects the zstd speed for .zst outputs (1 fastest .. 4 best)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
}

// DefaultConfig returns sensible defaults for tabular I/O
func DefaultConfig() Config {
	return Config{
		UndefinedMarker:  report.DefaultUndefinedMarker,
		CompressionLevel: 2,
	}
}

func (c Config) marker() string {
	if c.UndefinedMarker == "" {
		return report.DefaultUndefinedMarker
	}
	return c.UndefinedMarker
}
