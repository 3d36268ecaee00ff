package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/storm-track-map/internal/adapter/http"
	"github.com/couchcryptid/storm-track-map/internal/adapter/stormapi"
	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
	"github.com/couchcryptid/storm-track-map/internal/session"
)

const erinID = "2025223N16334"

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type stubSource struct {
	storms []domain.StormTrack
	err    error
}

func (s *stubSource) FetchMonth(context.Context, int, time.Month) ([]domain.StormTrack, error) {
	return s.storms, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	months []string
	modes  []render.Mode
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, month string, scene *render.Scene) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.months = append(p.months, month)
	p.modes = append(p.modes, scene.Mode)
	return p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadStorms(t *testing.T) []domain.StormTrack {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "data", "mock", "storms_2025_08.json"))
	require.NoError(t, err)
	var c domain.StormCollection
	require.NoError(t, json.Unmarshal(data, &c))
	return c.Storms
}

func newServer(readyErr error, source session.StormSource, pub httpadapter.ScenePublisher) *httpadapter.Server {
	renderer := render.NewRenderer(discardLogger(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, source, renderer, pub, discardLogger())
}

func newTestServer(readyErr error) *httpadapter.Server {
	return newServer(readyErr, &stubSource{}, nil)
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeScene(t *testing.T, rec *httptest.ResponseRecorder) httpadapter.SceneResponse {
	t.Helper()
	var body httpadapter.SceneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(fmt.Errorf("storm API unreachable")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "storm API unreachable", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDAssignedAndPropagated(t *testing.T) {
	srv := newTestServer(nil)

	rec := get(srv, "/healthz")
	assert.Len(t, rec.Header().Get(httpadapter.RequestIDHeader), 36, "uuid assigned")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpadapter.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(httpadapter.RequestIDHeader))
}

func TestSceneOverviewJSON(t *testing.T) {
	pub := &recordingPublisher{}
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, pub)

	rec := get(srv, "/scenes/2025/08")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeScene(t, rec)
	assert.Equal(t, "2025-08", body.Month)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Found 13 storms", body.Message)
	assert.Equal(t, rec.Header().Get(httpadapter.RequestIDHeader), body.RequestID)
	require.NotNil(t, body.Scene)
	assert.Equal(t, render.ModeOverview, body.Scene.Mode)
	assert.Len(t, body.Scene.Groups, 13)
	assert.Nil(t, body.Scene.Bounds)

	assert.Equal(t, []string{"2025-08"}, pub.months)
}

func TestSceneDetailedJSON(t *testing.T) {
	pub := &recordingPublisher{}
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, pub)

	rec := get(srv, "/scenes/2025/8?selected="+erinID)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeScene(t, rec)
	require.NotNil(t, body.Scene)
	assert.Equal(t, render.ModeDetailed, body.Scene.Mode)
	assert.Equal(t, erinID, body.Scene.SelectedID)
	require.Len(t, body.Scene.Groups, 1)
	assert.Len(t, body.Scene.Markers, 2*48)
	assert.NotNil(t, body.Scene.Bounds)

	assert.Empty(t, pub.months, "detailed scenes are not published")
}

func TestSceneUnknownSelectionFallsBackToOverview(t *testing.T) {
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, nil)

	body := decodeScene(t, get(srv, "/scenes/2025/08?selected=NOPE"))
	require.NotNil(t, body.Scene)
	assert.Equal(t, render.ModeOverview, body.Scene.Mode)
	assert.Len(t, body.Scene.Groups, 13)
}

func TestSceneGeoJSON(t *testing.T) {
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, nil)

	rec := get(srv, "/scenes/2025/08?format=geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 13)
}

func TestScenePNG(t *testing.T) {
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, nil)

	rec := get(srv, "/scenes/2025/08?format=png&selected="+erinID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestSceneBadRequests(t *testing.T) {
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, nil)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"month out of range", "/scenes/2025/13", http.StatusBadRequest},
		{"month zero", "/scenes/2025/00", http.StatusBadRequest},
		{"year too early", "/scenes/1900/08", http.StatusBadRequest},
		{"unsupported format", "/scenes/2025/08?format=bmp", http.StatusBadRequest},
		{"non-numeric month", "/scenes/2025/aug", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, tt.target)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestSceneEmptyMonth(t *testing.T) {
	pub := &recordingPublisher{}
	srv := newServer(nil, &stubSource{storms: []domain.StormTrack{}}, pub)

	rec := get(srv, "/scenes/2025/01")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeScene(t, rec)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, session.MessageNoStorms, body.Message)
	require.NotNil(t, body.Scene)
	assert.Empty(t, body.Scene.Groups)
	assert.Empty(t, pub.months)
}

func TestSceneUpstreamFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"http status", &stormapi.StatusError{StatusCode: 503, Status: "Service Unavailable"}, "Failed to fetch data: Service Unavailable"},
		{"transport", errors.New("connection refused"), "Failed to fetch data: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(nil, &stubSource{err: tt.err}, nil)

			rec := get(srv, "/scenes/2025/08")
			require.Equal(t, http.StatusBadGateway, rec.Code)

			body := decodeScene(t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.message, body.Message)
			assert.Nil(t, body.Scene)
		})
	}
}

func TestScenePublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	srv := newServer(nil, &stubSource{storms: loadStorms(t)}, pub)

	rec := get(srv, "/scenes/2025/08")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.months, 1)
}
