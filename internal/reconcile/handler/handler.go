package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"merchant-recon/internal/config"
	"merchant-recon/internal/fileio"
	"merchant-recon/internal/geocode"
	"merchant-recon/internal/middleware"
	"merchant-recon/internal/reconcile/model"
	recSvc "merchant-recon/internal/reconcile/service"
)

// statusClientClosed is the nginx convention for a request the client gave up on.
const statusClientClosed = 499

// Reconcile returns the POST /reconcile handler. Multipart fields:
// leftFile/rightFile (fileA/fileB accepted), <side>_header_row and
// <side>_<column> mapping overrides, matching options named as in the
// config file, and format=json|csv|xlsx. locator is shared across requests;
// each request resolves through its own geocode.Cache so lookups and cache
// stats never leak between runs. A nil locator rejects
// enable_reverse_geocoding.
func Reconcile(cfg config.Config, locator geocode.Locator, logger zerolog.Logger) http.HandlerFunc {
	maxMemory := int64(cfg.Server.MaxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		opts, err := optionsForm(r, cfg.Matching)
		if err != nil {
			fail(w, log, err)
			return
		}
		format := strings.ToLower(formValue(r, "format"))
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" && format != "xlsx" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
			return
		}

		left, err := loadSide(r, model.Left, "left", "a", "leftFile", "fileA")
		if err != nil {
			fail(w, log, err)
			return
		}
		right, err := loadSide(r, model.Right, "right", "b", "rightFile", "fileB")
		if err != nil {
			fail(w, log, err)
			return
		}

		var engOpts []recSvc.Option
		if locator != nil {
			locality := geocode.NewCache(locator, cfg.Geocode.CacheConfig(), log.With().Str("component", "geocode").Logger())
			engOpts = append(engOpts, recSvc.WithLocality(locality))
		}
		eng, err := recSvc.NewEngine(opts, log, engOpts...)
		if err != nil {
			fail(w, log, err)
			return
		}
		rep, err := eng.Run(r.Context(), left, right)
		if err != nil {
			fail(w, log, err)
			return
		}

		switch format {
		case "csv":
			attachment(w, "text/csv; charset=utf-8", rep, ".csv")
			err = fileio.WriteReportCSV(w, rep)
		case "xlsx":
			attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rep, ".xlsx")
			err = fileio.WriteReportXLSX(w, rep)
		default:
			err = writeJSON(w, http.StatusOK, rep)
		}
		if err != nil {
			log.Error().Err(err).Str("format", format).Msg("write report")
			return
		}

		log.Info().
			Str("run_id", rep.RunID).
			Int("left", left.Len()).
			Int("right", right.Len()).
			Int("rows", len(rep.Rows)).
			Dur("elapsed", time.Since(start)).
			Msg("reconcile done")
	}
}

// loadSide reads one uploaded catalog using the <prefix>_ (or legacy <alias>_)
// column overrides from the form.
func loadSide(r *http.Request, side model.Side, prefix, alias string, keys ...string) (*model.Store, error) {
	m, err := mappingForm(r, prefix, alias)
	if err != nil {
		return nil, err
	}
	f, h, err := formFile(r, keys...)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s file: %v", model.ErrMalformedDataset, side, err)
	}
	defer f.Close()

	s, err := fileio.LoadStore(f, h.Filename, side, m)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", side, err)
	}
	return s, nil
}

func attachment(w http.ResponseWriter, contentType string, rep *model.Report, ext string) {
	name := filepath.Base(fileio.ReportFileName("", time.Now(), rep.Geocoded, ext))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Run-ID", rep.RunID)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusClientClosed
	case errors.Is(err, model.ErrInvalidConfig),
		errors.Is(err, model.ErrMalformedDataset),
		errors.Is(err, model.ErrUnsupportedFile),
		errors.Is(err, model.ErrNoCoordinates):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := statusFor(err)
	switch status {
	case statusClientClosed:
		log.Warn().Err(err).Msg("reconcile cancelled by client")
	case http.StatusBadRequest:
		log.Info().Err(err).Msg("reconcile rejected")
	default:
		log.Error().Err(err).Msg("reconcile failed")
	}
	writeError(w, status, err.Error())
}
