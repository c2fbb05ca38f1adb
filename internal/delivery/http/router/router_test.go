package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/dsnval-service/internal/delivery/http/handler"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/pkg/metrics"
	"go.uber.org/zap/zaptest"
)

type stubReleases struct{}

func (stubReleases) Releases(context.Context) (*entity.ReleaseSet, error) {
	return &entity.ReleaseSet{Single: true, Releases: []entity.Release{{
		BuildID:     "42",
		ReleaseDate: entity.ReleaseDate{Year: 2024, Month: 3, Day: 15},
		DownloadURL: "https://example.test/tool.zip",
	}}}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := zaptest.NewLogger(t)
	h := handler.NewHandler(stubReleases{}, 0, logger)
	srv := httptest.NewServer(New(h, metrics.New(reg), reg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"version":"42","date":"2024-03-15","url":"https://example.test/tool.zip"}`, body)

	resp, body = get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, _ = get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/",status="200"} 1`)
	assert.Contains(t, body, `path="unmatched",status="404"`)
}

func TestRejectsOtherMethods(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
