package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prestaboost/internal/clock"
	"prestaboost/internal/config"
	"prestaboost/internal/database"
	"prestaboost/internal/database/dbtest"
	"prestaboost/internal/logger"
	"prestaboost/internal/metrics"
	"prestaboost/internal/queue/queuetest"
	"prestaboost/internal/repository"
	"prestaboost/internal/tracker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := dbtest.New(t)
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveMessage("sync_orders", metrics.OutcomeSuccess)

	cfg := &config.Config{CORSOrigins: []string{"https://dash.example.com"}}
	return New(cfg, log, &database.Database{DB: db}, Deps{
		Publisher: &queuetest.Recorder{},
		Tracker:   tracker.New(repository.NewSyncJobRepository(db), log, clock.System),
		Gatherer:  reg,
	})
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/boutiques", http.StatusOK},
		{http.MethodGet, "/api/v1/boutiques/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/v1/boutiques/unknown/stocks/low", http.StatusNotFound},
		{http.MethodGet, "/api/v1/nothing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "prestaboost_queue_messages_total"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/boutiques", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
