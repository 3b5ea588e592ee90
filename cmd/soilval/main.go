package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"soilval/adapters/excel"
	"soilval/adapters/manifest"
	"soilval/adapters/stats/pairwise"
	"soilval/adapters/stats/tca"
	"soilval/app"
	"soilval/internal"
	"soilval/internal/config"
	"soilval/internal/hovmoller"
	"soilval/internal/synth"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

// options are the flags shared by every command
type options struct {
	configPath string
	outDir     string
	format     string
	workers    int
	labels     string
	name       string
}

func main() {
	// .env is optional; the environment alone is a valid configuration
	_ = godotenv.Load()

	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "soilval",
		Short:         "Soil-moisture validation: agreement metrics, triple collocation and Hovmöller diagrams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file (overrides environment)")
	rootCmd.PersistentFlags().StringVar(&opts.outDir, "out", "", "Output directory")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "", "Table format: xlsx|csv|tsv|csv.zst|tsv.zst")
	rootCmd.PersistentFlags().IntVar(&opts.workers, "workers", -1, "Concurrent workers (0 = one per CPU)")
	rootCmd.PersistentFlags().StringVar(&opts.labels, "labels", "", "Comma-separated labels of the three TCA datasets")
	rootCmd.PersistentFlags().StringVar(&opts.name, "name", "", "Base name of the exported table and manifest")

	rootCmd.AddCommand(
		newMetricsCmd(opts),
		newTCACmd(opts),
		newHovmollerCmd(opts),
		newDemoCmd(opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newMetricsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [reference] [satellite]",
		Short: "Per-location R, bias, RMSE, ubRMSE, p-value and N",
		Long: `Compare a satellite dataset against a reference, location by location.

Inputs are location × time matrices in .csv, .tsv, .xlsx or their .zst variants.

Example: soilval metrics insitu.csv smap.csv --out results --format xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			svc := newService(cfg, logger)
			res, err := svc.RunMetrics(cmd.Context(), opts.baseName("metrics"),
				app.Source{Label: datasetLabel(args[0]), Path: args[0]},
				app.Source{Label: datasetLabel(args[1]), Path: args[1]},
			)
			if err != nil {
				return err
			}
			fmt.Printf("%d of %d locations computed\ntable:    %s\nmanifest: %s\n",
				res.Manifest.Computed, res.Manifest.Shape.Locations, res.TablePath, res.ManifestPath)
			return nil
		},
	}
}

func newTCACmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tca [a] [b] [c]",
		Short: "Triple collocation: error variance, SNR and fMSE per dataset",
		Long: `Estimate the random error of three independent datasets with triple collocation.

Locations with fewer jointly valid samples than compute.min_tca_samples are left undefined.

Example: soilval tca insitu.csv smap.csv ascat.csv --labels insitu,smap,ascat`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			svc := newService(cfg, logger)
			var sources [3]app.Source
			for k, path := range args {
				sources[k] = app.Source{Path: path}
			}
			res, err := svc.RunTripleCollocation(cmd.Context(), opts.baseName("tca"), sources)
			if err != nil {
				return err
			}
			printTCA(res)
			return nil
		},
	}
}

func newHovmollerCmd(opts *options) *cobra.Command {
	var latitudes string
	var figure string
	var title string

	cmd := &cobra.Command{
		Use:   "hovmoller [data]",
		Short: "Render a latitude × time diagram of zonal means",
		Long: `Average a dataset over latitude bands at every time step and render the result.

The latitude file holds one value per location, in the row order of the data.

Example: soilval hovmoller smap.csv --lat lat.csv --figure smap.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			if latitudes == "" {
				return fmt.Errorf("--lat is required")
			}
			if figure == "" {
				figure = filepath.Join(cfg.Output.Dir, opts.baseName("hovmoller")+".png")
			}
			render := renderOptions(cfg)
			if title != "" {
				render.Title = title
			}

			svc := newService(cfg, logger)
			d, err := svc.Hovmoller(cmd.Context(), app.HovmollerRequest{
				Data:          app.Source{Label: datasetLabel(args[0]), Path: args[0]},
				LatitudesPath: latitudes,
				BandWidth:     cfg.Hovmoller.BandWidth,
				Output:        figure,
				Render:        render,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%d latitude bands × %d steps\nfigure: %s\n", len(d.Latitudes), d.Steps, figure)
			return nil
		},
	}

	cmd.Flags().StringVar(&latitudes, "lat", "", "File with one latitude per location")
	cmd.Flags().StringVar(&figure, "figure", "", "Figure path; format follows the extension (png, svg, pdf)")
	cmd.Flags().StringVar(&title, "title", "", "Figure title")
	return cmd
}

func newDemoCmd(opts *options) *cobra.Command {
	var locations, steps int
	var seed int64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run metrics, triple collocation and a Hovmöller diagram on synthetic data",
		Long: `Generate a seeded synthetic triplet with known error variances and run every analysis on it.

Example: soilval demo --locations 100 --steps 730 --seed 7 --out demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			sc := synth.DefaultConfig()
			sc.Locations, sc.Steps, sc.Seed = locations, steps, seed
			tr, err := synth.GenerateTriplet(sc)
			if err != nil {
				return err
			}
			logger.Info("synthetic triplet: %d locations × %d steps, true error variances %v", locations, steps, sc.ErrVar)

			svc := newService(cfg, logger)
			ctx := cmd.Context()
			labels := cfg.Labels()

			metrics, err := svc.RunMetrics(ctx, opts.baseName("demo")+"_metrics",
				app.Source{Label: "truth", Matrix: tr.Truth},
				app.Source{Label: labels[0], Matrix: tr.A},
			)
			if err != nil {
				return err
			}
			fmt.Printf("metrics:   %s\n", metrics.TablePath)

			res, err := svc.RunTripleCollocation(ctx, opts.baseName("demo")+"_tca", [3]app.Source{
				{Matrix: tr.A}, {Matrix: tr.B}, {Matrix: tr.C},
			})
			if err != nil {
				return err
			}
			printTCA(res)

			lats := make([]float64, locations)
			for i := range lats {
				lats[i] = -60 + 135*float64(i)/float64(max(locations-1, 1))
			}
			figure := filepath.Join(cfg.Output.Dir, opts.baseName("demo")+"_hovmoller.png")
			if _, err := svc.Hovmoller(ctx, app.HovmollerRequest{
				Data:      app.Source{Label: "truth", Matrix: tr.Truth},
				Latitudes: lats,
				BandWidth: cfg.Hovmoller.BandWidth,
				Output:    figure,
				Render:    renderOptions(cfg),
			}); err != nil {
				return err
			}
			fmt.Printf("hovmoller: %s\n", figure)
			return nil
		},
	}

	cmd.Flags().IntVar(&locations, "locations", 50, "Number of synthetic locations")
	cmd.Flags().IntVar(&steps, "steps", 365, "Number of time steps per location")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic data")
	return cmd
}

// setup loads configuration, applies flag overrides and builds the logger
func setup(opts *options) (*config.Config, *internal.Logger, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.format != "" {
		cfg.Output.Format = strings.TrimPrefix(opts.format, ".")
	}
	if opts.workers >= 0 {
		cfg.Compute.Workers = opts.workers
	}
	if opts.labels != "" {
		parts := strings.Split(opts.labels, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Output.Labels = parts
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	return cfg, logger, nil
}

func newService(cfg *config.Config, logger *internal.Logger) *app.ValidationService {
	tabular := excel.Config{
		UndefinedMarker:  cfg.Output.UndefinedMarker,
		CompressionLevel: cfg.Output.CompressionLevel,
	}
	return app.NewValidationService(
		excel.NewDataReader(tabular),
		pairwise.NewEngine(pairwise.Options{
			MinSamples: cfg.Compute.MinPairSamples,
			Workers:    cfg.Compute.Workers,
		}, logger),
		tca.NewEngine(tca.Options{
			MinSamples: cfg.Compute.MinTCASamples,
			Workers:    cfg.Compute.Workers,
		}, logger),
		excel.NewTableWriter(tabular),
		manifest.NewYAMLStore(),
		app.Settings{
			OutputDir:      cfg.Output.Dir,
			Format:         cfg.Output.Format,
			Labels:         cfg.Labels(),
			MinPairSamples: cfg.Compute.MinPairSamples,
			MinTCASamples:  cfg.Compute.MinTCASamples,
			Workers:        cfg.Compute.Workers,
		},
		logger,
	)
}

func renderOptions(cfg *config.Config) hovmoller.RenderOptions {
	opts := hovmoller.DefaultRenderOptions()
	opts.Width = vg.Length(cfg.Hovmoller.WidthCm) * vg.Centimeter
	opts.Height = vg.Length(cfg.Hovmoller.HeightCm) * vg.Centimeter
	if cfg.Hovmoller.Colors > 1 {
		opts.Colors = cfg.Hovmoller.Colors
	}
	return opts
}

func printTCA(res *app.TCAResult) {
	m := res.Manifest
	fmt.Printf("tca: %d of %d locations computed (min %d samples)\n", m.Computed, m.Shape.Locations, m.MinSamples)
	for label, n := range m.NegativeErrVar {
		fmt.Printf("  %s: %d locations with negative error variance\n", label, n)
	}
	fmt.Printf("table:    %s\nmanifest: %s\n", res.TablePath, res.ManifestPath)
}

// datasetLabel names a dataset after its file, without directory or extensions
func datasetLabel(path string) string {
	base := filepath.Base(path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func (o *options) baseName(def string) string {
	if o.name != "" {
		return o.name
	}
	return def
}
