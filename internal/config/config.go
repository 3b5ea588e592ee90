package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"soilval/internal/errors"

	"gopkg.in/yaml.v3"
)

// Default values for the validation configuration
const (
	DefaultMinPairSamples  = 2
	DefaultMinTCASamples   = 100
	DefaultUndefinedMarker = "NaN"
	DefaultOutputDir       = "./out"
	DefaultFormat          = "xlsx"
	DefaultBandWidth       = 5.0
	DefaultFigureWidthCm   = 20.0
	DefaultFigureHeightCm  = 10.0
)

// Config represents the complete application configuration
type Config struct {
	Compute   ComputeConfig   `yaml:"compute"`
	Output    OutputConfig    `yaml:"output"`
	Hovmoller HovmollerConfig `yaml:"hovmoller"`
	LogLevel  string          `yaml:"log_level"`
}

// ComputeConfig holds engine settings
type ComputeConfig struct {
	// Workers bounds the number of locations processed concurrently; 0 means one per CPU
	Workers int `yaml:"workers"`
	// MinPairSamples gates the metric engine
	MinPairSamples int `yaml:"min_pair_samples"`
	// MinTCASamples gates the triple collocation engine
	MinTCASamples int `yaml:"min_tca_samples"`
}

// OutputConfig holds export settings
type OutputConfig struct {
	Dir             string   `yaml:"dir"`
	Format          string   `yaml:"format"`
	UndefinedMarker string   `yaml:"undefined_marker"`
	Labels          []string `yaml:"labels"`
	// CompressionLevel applies to .zst outputs
	CompressionLevel int `yaml:"compression_level"`
}

// HovmollerConfig holds diagram settings
type HovmollerConfig struct {
	BandWidth float64 `yaml:"band_width"`
	WidthCm   float64 `yaml:"width_cm"`
	HeightCm  float64 `yaml:"height_cm"`
	Colors    int     `yaml:"colors"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := loadEnv()
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadFile reads the YAML file at path on top of the environment
// configuration. Keys absent from the file keep their environment or default
// value.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}

	config := loadEnv()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), fmt.Sprintf("parse %s", path))
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Labels returns the three dataset labels used for TCA column names
func (c *Config) Labels() [3]string {
	var labels [3]string
	copy(labels[:], c.Output.Labels)
	return labels
}

// Validate re-checks the configuration after callers have overridden fields
func (c *Config) Validate() error {
	return validateConfig(c)
}

func loadEnv() *Config {
	return &Config{
		Compute: ComputeConfig{
			Workers:        getEnvIntOrDefault("SOILVAL_WORKERS", 0),
			MinPairSamples: getEnvIntOrDefault("SOILVAL_MIN_PAIR_SAMPLES", DefaultMinPairSamples),
			MinTCASamples:  getEnvIntOrDefault("SOILVAL_MIN_TCA_SAMPLES", DefaultMinTCASamples),
		},
		Output: OutputConfig{
			Dir:              getEnvOrDefault("SOILVAL_OUTPUT_DIR", DefaultOutputDir),
			Format:           getEnvOrDefault("SOILVAL_FORMAT", DefaultFormat),
			UndefinedMarker:  getEnvOrDefault("SOILVAL_UNDEFINED_MARKER", DefaultUndefinedMarker),
			Labels:           getEnvListOrDefault("SOILVAL_LABELS", []string{"a", "b", "c"}),
			CompressionLevel: getEnvIntOrDefault("SOILVAL_COMPRESSION_LEVEL", 2),
		},
		Hovmoller: HovmollerConfig{
			BandWidth: getEnvFloatOrDefault("SOILVAL_BAND_WIDTH", DefaultBandWidth),
			WidthCm:   getEnvFloatOrDefault("SOILVAL_FIGURE_WIDTH_CM", DefaultFigureWidthCm),
			HeightCm:  getEnvFloatOrDefault("SOILVAL_FIGURE_HEIGHT_CM", DefaultFigureHeightCm),
			Colors:    getEnvIntOrDefault("SOILVAL_FIGURE_COLORS", 24),
		},
		LogLevel: getEnvOrDefault("SOILVAL_LOG_LEVEL", getEnvOrDefault("LOG_LEVEL", "info")),
	}
}

func validateConfig(config *Config) error {
	if config.Compute.Workers < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("compute.workers %d must not be negative", config.Compute.Workers))
	}
	if config.Compute.MinPairSamples < 2 {
		return errors.ConfigInvalid(fmt.Sprintf("compute.min_pair_samples %d is below 2", config.Compute.MinPairSamples))
	}
	if config.Compute.MinTCASamples < 2 {
		return errors.ConfigInvalid(fmt.Sprintf("compute.min_tca_samples %d is below 2", config.Compute.MinTCASamples))
	}
	switch config.Output.Format {
	case "xlsx", "csv", "tsv", "csv.zst", "tsv.zst":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("output.format %q unknown: want xlsx|csv|tsv|csv.zst|tsv.zst", config.Output.Format))
	}
	if config.Output.UndefinedMarker == "" {
		return errors.ConfigInvalid("output.undefined_marker must not be empty")
	}
	if len(config.Output.Labels) != 3 {
		return errors.ConfigInvalid(fmt.Sprintf("output.labels needs 3 entries, got %d", len(config.Output.Labels)))
	}
	seen := make(map[string]bool, 3)
	for _, label := range config.Output.Labels {
		if label == "" || seen[label] {
			return errors.ConfigInvalid(fmt.Sprintf("output.labels %v must be non-empty and distinct", config.Output.Labels))
		}
		seen[label] = true
	}
	if config.Output.CompressionLevel < 1 || config.Output.CompressionLevel > 4 {
		return errors.ConfigInvalid(fmt.Sprintf("output.compression_level %d is out of range [1, 4]", config.Output.CompressionLevel))
	}
	if !(config.Hovmoller.BandWidth > 0) || config.Hovmoller.BandWidth > 180 {
		return errors.ConfigInvalid(fmt.Sprintf("hovmoller.band_width %v is out of range (0, 180]", config.Hovmoller.BandWidth))
	}
	if config.Hovmoller.WidthCm <= 0 || config.Hovmoller.HeightCm <= 0 {
		return errors.ConfigInvalid("hovmoller figure size must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
