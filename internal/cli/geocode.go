package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"merchant-recon/internal/fileio"
	"merchant-recon/internal/geocode"
)

const geocodeProgressEvery = 100

func newGeocodeCommand(a *app) *cobra.Command {
	var (
		outDir    string
		headerRow int
	)
	cmd := &cobra.Command{
		Use:   "geocode FILE",
		Short: "Append reverse geocoded city and state columns to a file",
		Long: `Reads any CSV/XLS/XLSX file with latitude and longitude columns and writes
<name>_geocoded_<timestamp>.csv with corrected_city and corrected_state
appended. Rows without usable coordinates get empty values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.geocodeFile(cmd.Context(), cmd.OutOrStdout(), args[0], outDir, headerRow)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: next to FILE)")
	cmd.Flags().IntVar(&headerRow, "header-row", 1, "1-based header row")
	return cmd
}

func (a *app) geocodeFile(ctx context.Context, stdout io.Writer, path, outDir string, headerRow int) error {
	logger := a.logger

	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	t, err := fileio.ReadTable(fh, path, headerRow)
	_ = fh.Close()
	if err != nil {
		return err
	}
	if _, _, err := geocode.DetectCoordinateColumns(t.Headers); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	locality, release, err := newLocalityCache(ctx, a.cfg.Geocode, logger)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	latKey, lonKey, err := geocode.Annotate(ctx, t.Headers, t.Rows, locality, func(done, total int) {
		if done%geocodeProgressEvery == 0 || done == total {
			logger.Info().Int("done", done).Int("total", total).Msg("geocoding")
		}
	})
	if err != nil {
		return err
	}

	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	out := geocodedFileName(outDir, path, time.Now())
	if err := writeFile(out, func(w io.Writer) error {
		return fileio.WriteTableCSV(w, t, geocode.ColCorrectedCity, geocode.ColCorrectedState)
	}); err != nil {
		return err
	}

	st := locality.Stats()
	logger.Info().
		Str("lat", latKey).Str("lon", lonKey).
		Int("rows", len(t.Rows)).
		Uint64("calls", st.Calls).Uint64("failures", st.Failures).
		Dur("elapsed", time.Since(start)).
		Msg("geocode done")
	_, err = fmt.Fprintln(stdout, out)
	return err
}

// geocodedFileName is <dir>/<input name>_geocoded_<YYYYMMDD_HHMMSS>.csv.
func geocodedFileName(dir, input string, ts time.Time) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_geocoded_"+ts.Format("20060102_150405")+".csv")
}
