package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-recon/internal/config"
	"merchant-recon/internal/geocode"
	"merchant-recon/internal/reconcile/model"
)

const leftCSV = `id,name,address,city,state,zip,latitude,longitude
1,Joe's Pizza,123 Main St,Dallas,TX,75201,32.7767,-96.7970
2,Other Place,9 Elm St,Austin,TX,78701,30.2672,-97.7431
`

const rightCSV = `merchant_id,merchant_name,street,town,region,postcode,lat,lng
A,Joes Pizza,123 Main Street,Dallas,TX,75201,32.7767,-96.7970
`

type upload struct {
	field, filename, body string
}

func newRequest(t *testing.T, files []upload, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reconcile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testConfig() config.Config {
	opts := model.DefaultOptions()
	opts.Workers = 2
	return config.Config{
		Server:   config.ServerConfig{MaxUploadMB: 8},
		Matching: opts,
		Geocode:  config.GeocodeConfig{CacheSize: 100, Precision: 3, Timeout: time.Second},
	}
}

func bothFiles() []upload {
	return []upload{
		{"leftFile", "left.csv", leftCSV},
		{"rightFile", "right.csv", rightCSV},
	}
}

// countingLocator answers every point with Dallas, Texas and counts calls.
func countingLocator(calls *atomic.Int64) geocode.Locator {
	return geocode.LocatorFunc(func(context.Context, float64, float64) (geocode.Address, error) {
		calls.Add(1)
		return geocode.Address{"city": "Dallas", "state": "Texas"}, nil
	})
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) model.Report {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	return rep
}

func TestReconcileJSON(t *testing.T) {
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rep := decodeReport(t, serve(h, newRequest(t, bothFiles(), nil)))

	require.Len(t, rep.Rows, 2)
	assert.Equal(t, model.KindMatch, rep.Rows[0].Kind)
	assert.Equal(t, "HIGH_CONFIDENCE_DUPLICATE", rep.Rows[0].MatchType)
	assert.Equal(t, "1", rep.Rows[0].Left.SourceRowID)
	assert.Equal(t, "A", rep.Rows[0].Right.SourceRowID)
	assert.Equal(t, model.KindLeftUnique, rep.Rows[1].Kind)

	assert.NotEmpty(t, rep.RunID)
	assert.False(t, rep.Geocoded)
	assert.Equal(t, 2, rep.Summary.LeftRecords)
	assert.Equal(t, 1, rep.Summary.RightRecords)
	assert.Equal(t, 1, rep.Summary.High)
	assert.Equal(t, 1, rep.Summary.LeftUnique)
	assert.Equal(t, 0, rep.Summary.RightUnique)
}

func TestReconcileLegacyFieldNames(t *testing.T) {
	files := []upload{
		{"fileA", "a.csv", leftCSV},
		{"fileB", "b.csv", rightCSV},
	}
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rep := decodeReport(t, serve(h, newRequest(t, files, nil)))
	assert.Len(t, rep.Rows, 2)
}

func TestReconcileOptionsFromForm(t *testing.T) {
	// Everything is unique once the name threshold cannot be met.
	files := []upload{
		{"leftFile", "left.csv", leftCSV},
		{"rightFile", "right.csv", "id,name,lat,lon\nA,Joe Pizzeria,32.7767,-96.7970\n"},
	}
	fields := map[string]string{"min_name_similarity": "1", "ignore_zip": "yes"}
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rep := decodeReport(t, serve(h, newRequest(t, files, fields)))

	assert.Equal(t, 1.0, rep.Options.MinNameSimilarity)
	assert.True(t, rep.Options.IgnoreZip)
	assert.Equal(t, 0, rep.Summary.High)
	assert.Equal(t, 2, rep.Summary.LeftUnique)
	assert.Equal(t, 1, rep.Summary.RightUnique)
}

func TestReconcileMappingOverride(t *testing.T) {
	right := "Exported 2024-03-09\nkey,label,y,x\nA,Joes Pizza,32.7767,-96.7970\n"
	files := []upload{
		{"leftFile", "left.csv", leftCSV},
		{"rightFile", "right.csv", right},
	}
	fields := map[string]string{
		"right_id": "key", "right_name": "label", "right_lat": "y", "right_lon": "x",
		"right_header_row": "2",
	}
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rep := decodeReport(t, serve(h, newRequest(t, files, fields)))
	require.NotEmpty(t, rep.Rows)
	assert.Equal(t, model.KindMatch, rep.Rows[0].Kind)
	assert.Equal(t, "A", rep.Rows[0].Right.SourceRowID)
}

func TestReconcileCSV(t *testing.T) {
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rec := serve(h, newRequest(t, bothFiles(), map[string]string{"format": "csv"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "coordinate_priority_comparison_")
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "match_type,confidence_score,left_id"))
}

func TestReconcileXLSX(t *testing.T) {
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rec := serve(h, newRequest(t, bothFiles(), map[string]string{"format": "xlsx"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestReconcileGeocoding(t *testing.T) {
	fields := map[string]string{"enable_reverse_geocoding": "true"}

	h := Reconcile(testConfig(), nil, zerolog.Nop())
	rec := serve(h, newRequest(t, bothFiles(), fields))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var calls atomic.Int64
	h = Reconcile(testConfig(), countingLocator(&calls), zerolog.Nop())
	rep := decodeReport(t, serve(h, newRequest(t, bothFiles(), fields)))
	assert.True(t, rep.Geocoded)
	require.NotNil(t, rep.Rows[0].LeftCorrected)
	assert.Equal(t, "Dallas", rep.Rows[0].LeftCorrected.City)
	assert.Positive(t, calls.Load())
}

func TestReconcileGeocodeCachePerRequest(t *testing.T) {
	fields := map[string]string{"enable_reverse_geocoding": "true"}
	var calls atomic.Int64
	h := Reconcile(testConfig(), countingLocator(&calls), zerolog.Nop())

	decodeReport(t, serve(h, newRequest(t, bothFiles(), fields)))
	first := calls.Load()
	require.Positive(t, first)

	// a shared cache would answer the second run without the provider
	decodeReport(t, serve(h, newRequest(t, bothFiles(), fields)))
	assert.Equal(t, 2*first, calls.Load())
}

func TestReconcileBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		files  []upload
		fields map[string]string
	}{
		{"missing right file", bothFiles()[:1], nil},
		{"non-numeric option", bothFiles(), map[string]string{"min_confidence": "abc"}},
		{"out of range option", bothFiles(), map[string]string{"coordinate_precision": "11"}},
		{"bad boolean", bothFiles(), map[string]string{"ignore_city": "maybe"}},
		{"unknown format", bothFiles(), map[string]string{"format": "pdf"}},
		{"non-numeric header row", bothFiles(), map[string]string{"left_header_row": "two"}},
		{"zero header row", bothFiles(), map[string]string{"b_header_row": "0"}},
		{"unsupported file", []upload{
			{"leftFile", "left.pdf", leftCSV},
			{"rightFile", "right.csv", rightCSV},
		}, nil},
		{"no coordinates", []upload{
			{"leftFile", "left.csv", "id,name\n1,Joe\n"},
			{"rightFile", "right.csv", rightCSV},
		}, nil},
	}
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, newRequest(t, tt.files, tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestReconcileNotMultipart(t *testing.T) {
	h := Reconcile(testConfig(), nil, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(h, req).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{context.Canceled, statusClientClosed},
		{fmt.Errorf("run: %w", context.DeadlineExceeded), statusClientClosed},
		{&model.ValidationError{Field: "x"}, http.StatusBadRequest},
		{fmt.Errorf("read: %w", model.ErrUnsupportedFile), http.StatusBadRequest},
		{model.ErrMalformedDataset, http.StatusBadRequest},
		{model.ErrNoCoordinates, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
