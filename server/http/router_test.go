package serverhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-recon/internal/config"
	"merchant-recon/internal/reconcile/model"
)

func testRouter() http.Handler {
	cfg := config.Config{
		Server:   config.ServerConfig{AllowOrigins: []string{"*"}, MaxUploadMB: 1},
		Matching: model.DefaultOptions(),
	}
	return NewRouter(cfg, nil, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := testRouter()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recon_http_request_duration_seconds")
}

func TestReconcileRequiresPost(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reconcile", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
