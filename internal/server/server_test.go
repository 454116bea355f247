package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/redis"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type memoryStatus map[string]*redis.CrawlStatusData

func (m memoryStatus) Set(ctx context.Context, s *redis.CrawlStatusData) error {
	m[s.RequestID] = s
	return nil
}

func (m memoryStatus) Get(ctx context.Context, id string) (*redis.CrawlStatusData, error) {
	return m[id], nil
}

func (m memoryStatus) Delete(ctx context.Context, id string) error {
	delete(m, id)
	return nil
}

func newTestServer(status memoryStatus, pingErr error) *Server {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ProviderRetry()

	ping := pingerFunc(func(ctx context.Context) error { return pingErr })
	return New(status, ping, reg, log.New(io.Discard))
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(memoryStatus{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_HealthUnavailable(t *testing.T) {
	srv := newTestServer(memoryStatus{}, errors.New("redis down"))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(memoryStatus{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lyrics_worker_provider_retries_total 1")
}

func TestServer_CrawlStatus(t *testing.T) {
	status := memoryStatus{
		"req-1": {RequestID: "req-1", PlaylistID: "abc123", Status: domain.CrawlStatusMatching, Progress: 40},
	}
	srv := newTestServer(status, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crawls/req-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got redis.CrawlStatusData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.CrawlStatusMatching, got.Status)
	assert.Equal(t, 40, got.Progress)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crawls/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
