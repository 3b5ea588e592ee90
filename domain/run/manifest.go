package run

import (
	"time"

	"soilval/domain/core"
	"soilval/domain/grid"
	"soilval/domain/report"
)

// Kind names the engine a run invoked
type Kind string

const (
	KindMetrics Kind = "metrics"
	KindTCA     Kind = "tca"
)

// Input records one dataset that entered a run
type Input struct {
	Label   string `yaml:"label"`
	Path    string `yaml:"path,omitempty"`
	Missing int    `yaml:"missing"`
}

// Manifest describes one engine invocation and the artifacts it produced.
// It is written next to the exported table.
type Manifest struct {
	RunID      core.RunID     `yaml:"run_id"`
	Kind       Kind           `yaml:"kind"`
	CreatedAt  core.Timestamp `yaml:"created_at"`
	Duration   string         `yaml:"duration"`
	Inputs     []Input        `yaml:"inputs"`
	Shape      grid.Shape     `yaml:"shape"`
	MinSamples int            `yaml:"min_samples"`
	Workers    int            `yaml:"workers"`

	// Computed counts locations that passed the sample gate
	Computed int `yaml:"computed"`
	Skipped  int `yaml:"skipped"`
	// NegativeErrVar counts locations per dataset label whose error
	// variance came out negative
	NegativeErrVar map[string]int `yaml:"negative_error_variance,omitempty"`

	Outputs []string               `yaml:"outputs"`
	Columns []report.ColumnSummary `yaml:"columns"`
}

// NewManifest starts a manifest for a run of the given kind
func NewManifest(kind Kind) *Manifest {
	return &Manifest{
		RunID:     core.NewRunID(),
		Kind:      kind,
		CreatedAt: core.Now(),
	}
}

// Finish stamps the elapsed time since creation
func (m *Manifest) Finish() {
	m.Duration = time.Since(m.CreatedAt.Time()).Round(time.Millisecond).String()
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("manifest", "run_id cannot be empty")
	}
	switch m.Kind {
	case KindMetrics:
		if len(m.Inputs) != 2 {
			return core.NewValidationError("manifest", "metrics runs take 2 inputs")
		}
	case KindTCA:
		if len(m.Inputs) != 3 {
			return core.NewValidationError("manifest", "tca runs take 3 inputs")
		}
	default:
		return core.NewValidationError("manifest", "unknown kind "+string(m.Kind))
	}
	if m.Computed+m.Skipped != m.Shape.Locations {
		return core.NewValidationError("manifest", "computed and skipped do not add up to the location count")
	}
	return nil
}
