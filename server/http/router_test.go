package serverhttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namerecon-service/internal/config"
	"namerecon-service/internal/store"
)

func testConfig() config.Config {
	return config.Config{AllowOrigins: []string{"*"}, MaxUploadMB: 1, Match: config.MatchConfig{Threshold: 40}}
}

func newTestRouter() http.Handler {
	return NewRouter(testConfig(), store.NewMemory(), zerolog.Nop())
}

func TestRouter_Pprof(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cfg := testConfig()
	cfg.Pprof = true
	r := NewRouter(cfg, store.NewMemory(), zerolog.Nop())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}

func TestRouter(t *testing.T) {
	r := newTestRouter()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request id is propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/mappings", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("learn against empty catalog", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"rawLabel":"パスタ","masterId":"m1"}`)
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mappings", body))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mappings", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
