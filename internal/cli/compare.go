package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"merchant-recon/internal/fileio"
	"merchant-recon/internal/reconcile/model"
	recSvc "merchant-recon/internal/reconcile/service"
)

type compareFlags struct {
	outDir      string
	format      string
	leftHeader  int
	rightHeader int
}

func newCompareCommand(a *app) *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "compare LEFT RIGHT",
		Short: "Reconcile two catalog files and write a report",
		Long: `Reads two CSV/XLS/XLSX catalogs, runs the coordinate pass and the proximity
pass, and writes coordinate_priority_comparison_<timestamp>.<format> into
the output directory.`,
		Example: `  merchant-recon compare visa.csv mastercard.xlsx --out reports
  merchant-recon compare a.csv b.csv --max-distance 0.5 --ignore-zip --geocode`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compare(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], f)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.outDir, "out", "o", ".", "output directory")
	fs.StringVar(&f.format, "format", "csv", "report format: csv or xlsx")
	fs.IntVar(&f.leftHeader, "left-header-row", 1, "1-based header row of LEFT")
	fs.IntVar(&f.rightHeader, "right-header-row", 1, "1-based header row of RIGHT")

	d := model.DefaultOptions()
	fs.Float64("max-distance", d.MaxDistanceMiles, "maximum distance in miles")
	fs.Float64("min-name-similarity", d.MinNameSimilarity, "minimum name similarity [0,1]")
	fs.Float64("min-confidence", d.MinConfidence, "minimum confidence to report [0,1]")
	fs.Int("precision", d.CoordinatePrecision, "coordinate truncation precision, decimal places")
	fs.Bool("ignore-city", false, "do not compare cities")
	fs.Bool("ignore-state", false, "do not compare states")
	fs.Bool("ignore-zip", false, "do not compare zip codes")
	fs.Bool("ignore-name", false, "match on location only")
	fs.Bool("include-address", d.IncludeAddress, "use street similarity when geography is ignored")
	fs.Bool("show-all", d.ShowAllPotentialMatches, "report every proximity candidate, not only the best")
	fs.Bool("geocode", false, "add reverse geocoded locality columns")
	fs.Int("workers", d.Workers, "matching workers")
	a.bind(fs, map[string]string{
		"matching.max_distance_miles":         "max-distance",
		"matching.min_name_similarity":        "min-name-similarity",
		"matching.min_confidence":             "min-confidence",
		"matching.coordinate_precision":       "precision",
		"matching.ignore_city":                "ignore-city",
		"matching.ignore_state":               "ignore-state",
		"matching.ignore_zip":                 "ignore-zip",
		"matching.ignore_name":                "ignore-name",
		"matching.include_address":            "include-address",
		"matching.show_all_potential_matches": "show-all",
		"matching.enable_reverse_geocoding":   "geocode",
		"matching.workers":                    "workers",
	})
	return cmd
}

func (a *app) compare(ctx context.Context, stdout io.Writer, leftPath, rightPath string, f *compareFlags) error {
	cfg, logger := a.cfg, a.logger
	format := strings.ToLower(f.format)
	if format != "csv" && format != "xlsx" {
		return &model.ValidationError{Field: "format", Value: f.format, Message: "must be csv or xlsx"}
	}

	left, err := loadStore(leftPath, model.Left, f.leftHeader)
	if err != nil {
		return err
	}
	right, err := loadStore(rightPath, model.Right, f.rightHeader)
	if err != nil {
		return err
	}
	logger.Info().
		Int("left", left.Len()).Int("left_coords", left.WithCoords()).
		Int("right", right.Len()).Int("right_coords", right.WithCoords()).
		Msg("catalogs loaded")

	opts := []recSvc.Option{
		recSvc.WithProgress(func(p recSvc.Progress) {
			logger.Debug().Str("stage", p.Stage).Int("done", p.Done).Int("total", p.Total).Msg("progress")
		}),
	}
	if cfg.Matching.EnableReverseGeocoding {
		locality, release, err := newLocalityCache(ctx, cfg.Geocode, logger)
		if err != nil {
			return err
		}
		defer release()
		defer func() {
			st := locality.Stats()
			logger.Info().Uint64("calls", st.Calls).Uint64("failures", st.Failures).
				Float64("hit_rate", st.HitRate()).Msg("geocode cache")
		}()
		opts = append(opts, recSvc.WithLocality(locality))
	}

	eng, err := recSvc.NewEngine(cfg.Matching, logger, opts...)
	if err != nil {
		return err
	}
	rep, err := eng.Run(ctx, left, right)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return err
	}
	path := fileio.ReportFileName(f.outDir, time.Now(), rep.Geocoded, "."+format)
	if err := writeFile(path, func(w io.Writer) error {
		if format == "xlsx" {
			return fileio.WriteReportXLSX(w, rep)
		}
		return fileio.WriteReportCSV(w, rep)
	}); err != nil {
		return err
	}

	s := rep.Summary
	_, err = fmt.Fprintf(stdout, "%s\nhigh=%d medium=%d low=%d potential=%d left_unique=%d right_unique=%d\n",
		path, s.High, s.Medium, s.Low, s.Potential, s.LeftUnique, s.RightUnique)
	return err
}

func loadStore(path string, side model.Side, headerRow int) (*model.Store, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	m := model.DefaultMapping()
	m.HeaderRow = headerRow
	return fileio.LoadStore(fh, path, side, m)
}

// writeFile removes a partially written file when write fails.
func writeFile(path string, write func(io.Writer) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fh); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}
