package ports

import (
	"soilval/domain/grid"
	"soilval/domain/report"
	"soilval/domain/run"
)

// TableWriter persists result tables. Undefined cells are written as an
// explicit marker, never as blanks.
type TableWriter interface {
	Write(path string, t *report.Table) error
	WriteMatrix(path string, m *grid.Matrix) error
}

// ManifestStore persists run manifests
type ManifestStore interface {
	Save(path string, m *run.Manifest) error
	Load(path string) (*run.Manifest, error)
}
