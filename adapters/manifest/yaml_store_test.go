package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"soilval/domain/grid"
	"soilval/domain/report"
	"soilval/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	m := run.NewManifest(run.KindTCA)
	m.Inputs = []run.Input{{Label: "ascat", Path: "a.csv"}, {Label: "smap"}, {Label: "era5", Missing: 12}}
	m.Shape = grid.Shape{Locations: 5, Steps: 200}
	m.MinSamples = 100
	m.Computed, m.Skipped = 3, 2
	m.NegativeErrVar = map[string]int{"ascat": 1}
	m.Outputs = []string{"tca.xlsx"}
	m.Columns = []report.ColumnSummary{{Column: "ErrVar_ascat", Defined: 3, Undefined: 2, Mean: 0.01}}
	m.Finish()

	path := filepath.Join(t.TempDir(), "runs", "manifest.yaml")
	store := NewYAMLStore()
	require.NoError(t, store.Save(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "kind: tca")
	assert.Contains(t, string(raw), "negative_error_variance:")

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, loaded.RunID)
	assert.Equal(t, m.Shape, loaded.Shape)
	assert.Equal(t, m.Inputs, loaded.Inputs)
	assert.Equal(t, m.Columns, loaded.Columns)
	assert.Equal(t, m.CreatedAt.Time().Unix(), loaded.CreatedAt.Time().Unix())
}

func TestSaveRejectsInvalid(t *testing.T) {
	m := run.NewManifest(run.KindMetrics)
	err := NewYAMLStore().Save(filepath.Join(t.TempDir(), "m.yaml"), m)
	assert.Error(t, err)
}
