package app

import (
	"context"
	"fmt"
	"path/filepath"

	"soilval/domain/grid"
	"soilval/domain/report"
	"soilval/domain/run"
	"soilval/domain/stats"
	"soilval/internal"
	"soilval/internal/errors"
	"soilval/internal/hovmoller"
	"soilval/internal/workers"
	"soilval/ports"
)

// Settings describes how a ValidationService names and records its outputs
type Settings struct {
	OutputDir string
	// Format is the table file extension without the dot, e.g. xlsx or csv.zst
	Format         string
	Labels         [3]string
	MinPairSamples int
	MinTCASamples  int
	Workers        int
}

// Source is one dataset entering a run. Matrix is used as-is when set,
// otherwise it is loaded from Path.
type Source struct {
	Label  string
	Path   string
	Matrix *grid.Matrix
}

// MetricsResult is the outcome of a metric run
type MetricsResult struct {
	Records      []stats.PairRecord
	Table        *report.Table
	Manifest     *run.Manifest
	TablePath    string
	ManifestPath string
}

// TCAResult is the outcome of a triple collocation run
type TCAResult struct {
	Records      []stats.TCARecord
	Table        *report.Table
	Manifest     *run.Manifest
	TablePath    string
	ManifestPath string
}

// HovmollerRequest asks for a zonal-mean diagram of one dataset
type HovmollerRequest struct {
	Data      Source
	Latitudes []float64
	// LatitudesPath is read when Latitudes is empty
	LatitudesPath string
	BandWidth     float64
	// Output is the figure path; the band × time matrix is exported next to it
	Output string
	Render hovmoller.RenderOptions
}

// ValidationService loads datasets, runs the engines and exports tables with
// a manifest describing each run
type ValidationService struct {
	reader    ports.MatrixReader
	metrics   ports.MetricEngine
	tca       ports.TCAEngine
	writer    ports.TableWriter
	manifests ports.ManifestStore
	settings  Settings
	logger    *internal.Logger
}

// NewValidationService creates a validation service
func NewValidationService(
	reader ports.MatrixReader,
	metrics ports.MetricEngine,
	tca ports.TCAEngine,
	writer ports.TableWriter,
	manifests ports.ManifestStore,
	settings Settings,
	logger *internal.Logger,
) *ValidationService {
	if settings.Workers <= 0 {
		settings.Workers = workers.DefaultWorkers()
	}
	if settings.Format == "" {
		settings.Format = "xlsx"
	}
	return &ValidationService{
		reader:    reader,
		metrics:   metrics,
		tca:       tca,
		writer:    writer,
		manifests: manifests,
		settings:  settings,
		logger:    logger.With("validation"),
	}
}

// RunMetrics computes per-location agreement between a reference and a
// satellite dataset and exports the table under name
func (s *ValidationService) RunMetrics(ctx context.Context, name string, reference, satellite Source) (*MetricsResult, error) {
	manifest := run.NewManifest(run.KindMetrics)
	s.logger.Info("metrics run %s started", manifest.RunID)

	matrices, err := s.load(manifest, reference, satellite)
	if err != nil {
		return nil, err
	}
	records, err := s.metrics.Compute(ctx, matrices[0], matrices[1])
	if err != nil {
		return nil, errors.Wrap(err, "metric computation failed")
	}

	manifest.Shape = matrices[0].Shape()
	manifest.MinSamples = s.settings.MinPairSamples
	for _, r := range records {
		if r.N > 0 {
			manifest.Computed++
		} else {
			manifest.Skipped++
		}
	}

	table := report.PairTable(records)
	tablePath, manifestPath, err := s.export(name, table, manifest)
	if err != nil {
		return nil, err
	}
	return &MetricsResult{
		Records:      records,
		Table:        table,
		Manifest:     manifest,
		TablePath:    tablePath,
		ManifestPath: manifestPath,
	}, nil
}

// RunTripleCollocation estimates error variance, SNR and fMSE of three
// independent datasets and exports the table under name
func (s *ValidationService) RunTripleCollocation(ctx context.Context, name string, sources [3]Source) (*TCAResult, error) {
	manifest := run.NewManifest(run.KindTCA)
	s.logger.Info("tca run %s started", manifest.RunID)

	for k := range sources {
		if sources[k].Label == "" {
			sources[k].Label = s.settings.Labels[k]
		}
	}
	matrices, err := s.load(manifest, sources[:]...)
	if err != nil {
		return nil, err
	}
	records, err := s.tca.Compute(ctx, matrices[0], matrices[1], matrices[2])
	if err != nil {
		return nil, errors.Wrap(err, "triple collocation failed")
	}

	manifest.Shape = matrices[0].Shape()
	manifest.MinSamples = s.settings.MinTCASamples
	negative := make(map[string]int)
	for _, r := range records {
		if !r.Computed() {
			manifest.Skipped++
			continue
		}
		manifest.Computed++
		for k, flagged := range r.NegativeErrVar {
			if flagged {
				negative[sources[k].Label]++
			}
		}
	}
	if len(negative) > 0 {
		manifest.NegativeErrVar = negative
		for label, n := range negative {
			s.logger.Warn("%d locations have a negative error variance for %s", n, label)
		}
	}

	labels := [3]string{sources[0].Label, sources[1].Label, sources[2].Label}
	table := report.TCATable(records, labels)
	tablePath, manifestPath, err := s.export(name, table, manifest)
	if err != nil {
		return nil, err
	}
	return &TCAResult{
		Records:      records,
		Table:        table,
		Manifest:     manifest,
		TablePath:    tablePath,
		ManifestPath: manifestPath,
	}, nil
}

// Hovmoller builds the zonal-mean diagram of one dataset, renders it to
// req.Output and exports the band × time matrix alongside
func (s *ValidationService) Hovmoller(ctx context.Context, req HovmollerRequest) (*hovmoller.Diagram, error) {
	m, err := s.matrix(req.Data)
	if err != nil {
		return nil, err
	}
	lats := req.Latitudes
	if len(lats) == 0 {
		if req.LatitudesPath == "" {
			return nil, errors.InvalidInput("latitudes are required")
		}
		if lats, err = s.reader.ReadVector(req.LatitudesPath); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}

	d, err := hovmoller.Build(m, lats, req.BandWidth)
	if err != nil {
		return nil, err
	}
	if err := hovmoller.Render(d, req.Output, req.Render); err != nil {
		return nil, err
	}

	ext := filepath.Ext(req.Output)
	matrixPath := req.Output[:len(req.Output)-len(ext)] + "." + s.settings.Format
	if err := s.writer.WriteMatrix(matrixPath, d.Matrix()); err != nil {
		return nil, err
	}
	s.logger.Info("hovmoller diagram with %d bands written to %s", len(d.Latitudes), req.Output)
	return d, nil
}

func (s *ValidationService) load(manifest *run.Manifest, sources ...Source) ([]*grid.Matrix, error) {
	matrices := make([]*grid.Matrix, len(sources))
	for i, src := range sources {
		m, err := s.matrix(src)
		if err != nil {
			return nil, err
		}
		matrices[i] = m
		manifest.Inputs = append(manifest.Inputs, run.Input{
			Label:   src.Label,
			Path:    src.Path,
			Missing: m.MissingCount(),
		})
		s.logger.Debug("dataset %s: %d locations × %d steps, %d missing", src.Label, m.Locations(), m.Steps(), m.MissingCount())
	}
	return matrices, nil
}

func (s *ValidationService) matrix(src Source) (*grid.Matrix, error) {
	if src.Matrix != nil {
		return src.Matrix, nil
	}
	if src.Path == "" {
		return nil, errors.InvalidInput(fmt.Sprintf("dataset %q has neither a matrix nor a path", src.Label))
	}
	m, err := s.reader.ReadMatrix(src.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %s", src.Label)
	}
	return m, nil
}

func (s *ValidationService) export(name string, table *report.Table, manifest *run.Manifest) (string, string, error) {
	tablePath := filepath.Join(s.settings.OutputDir, name+"."+s.settings.Format)
	manifestPath := filepath.Join(s.settings.OutputDir, name+".manifest.yaml")

	if err := s.writer.Write(tablePath, table); err != nil {
		return "", "", err
	}

	manifest.Workers = s.settings.Workers
	manifest.Outputs = []string{tablePath, manifestPath}
	manifest.Columns = report.Summarize(table)
	manifest.Finish()
	if err := s.manifests.Save(manifestPath, manifest); err != nil {
		return "", "", err
	}
	s.logger.Info("%s run %s: %d computed, %d skipped, table %s (%s)",
		manifest.Kind, manifest.RunID, manifest.Computed, manifest.Skipped, tablePath, manifest.Duration)
	return tablePath, manifestPath, nil
}
