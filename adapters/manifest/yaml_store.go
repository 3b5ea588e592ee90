// Package manifest stores run manifests as YAML files.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"soilval/domain/run"
	"soilval/internal/errors"

	"gopkg.in/yaml.v3"
)

// YAMLStore reads and writes manifests on the local filesystem
type YAMLStore struct{}

// NewYAMLStore creates a store
func NewYAMLStore() *YAMLStore {
	return &YAMLStore{}
}

// Save validates m and writes it to path
func (s *YAMLStore) Save(path string, m *run.Manifest) error {
	if err := m.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return errors.ExportError("manifest", err)
	}
	if err := enc.Close(); err != nil {
		return errors.ExportError("manifest", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.IOError(path, err)
	}
	return nil
}

// Load reads the manifest stored at path
func (s *YAMLStore) Load(path string) (*run.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	m := &run.Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("manifest %q: parse yaml: %w", path, err))
	}
	return m, nil
}
