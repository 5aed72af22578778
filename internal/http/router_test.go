package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqcb_dashboard/backend/internal/config"
	"github.com/sqcb_dashboard/backend/internal/service"
	"github.com/sqcb_dashboard/backend/internal/sqcbapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	loader := service.NewLoader(sqcbapi.FileSource{Path: "testdata/sqcb.json"}, time.Minute, zerolog.Nop())
	return Router(cfg, Deps{Loader: loader, Classifier: service.NewClassifier(6)}, zerolog.Nop())
}

func TestRouter_DashboardFromFixture(t *testing.T) {
	r := testRouter(t, config.Config{CORSAllowed: "*", RequestTimeout: 5 * time.Second})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var result service.AggregateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Overview.Counters[service.CategoryNewSQCB])
	assert.Equal(t, 1, result.Overview.Counters[service.CategoryWaitingRMA])
	assert.Equal(t, 1, result.Overview.Counters[service.CategoryCompleted])
	assert.Equal(t, []service.Point{{Key: service.UnknownHandler, Value: 1}},
		result.Categories[service.CategoryWaitingRMA].ChartSeries)
	assert.Equal(t, "480.5", result.Categories[service.CategoryCompleted].TotalAmount.String())
}

func TestRouter_SyncRequiresAdminKey(t *testing.T) {
	r := testRouter(t, config.Config{CORSAllowed: "*", AdminKey: "k"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	req.Header.Set("X-Admin-Key", "k")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_HealthWithoutStore(t *testing.T) {
	r := testRouter(t, config.Config{CORSAllowed: "*"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_CORSOrigins(t *testing.T) {
	r := testRouter(t, config.Config{CORSAllowed: "https://qa.example.com, https://ops.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitOrigins(" a, ,b "))
	assert.Nil(t, splitOrigins(""))
}
