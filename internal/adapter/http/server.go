package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	geojsonadapter "github.com/couchcryptid/storm-track-map/internal/adapter/geojson"
	plotadapter "github.com/couchcryptid/storm-track-map/internal/adapter/plot"
	"github.com/couchcryptid/storm-track-map/internal/render"
	"github.com/couchcryptid/storm-track-map/internal/session"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Scene response formats.
const (
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
	FormatPNG     = "png"
)

// ScenePublisher forwards rendered scenes downstream.
type ScenePublisher interface {
	Publish(ctx context.Context, month string, scene *render.Scene) error
}

// SceneResponse is the JSON body of the scene route.
type SceneResponse struct {
	RequestID string        `json:"request_id"`
	Month     string        `json:"month"`
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Scene     *render.Scene `json:"scene,omitempty"`
}

// Server exposes the scene API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	source     session.StormSource
	renderer   *render.Renderer
	publisher  ScenePublisher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /scenes/{year}/{month} routes. publisher may be nil.
func NewServer(
	addr string,
	ready sharedobs.ReadinessChecker,
	source session.StormSource,
	renderer *render.Renderer,
	publisher ScenePublisher,
	logger *slog.Logger,
) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:    source,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
	}

	router.Use(requestID)
	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/scenes/{year:[0-9]{4}}/{month:[0-9]{1,2}}", s.handleScene).Methods(http.MethodGet)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleScene fetches the month, renders it for the requested view, and
// writes it in the requested format. An empty month is a 200 with status
// "error"; an upstream failure is a 502.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFrom(r.Context())
	logger := s.logger.With("request_id", reqID)

	vars := mux.Vars(r)
	month, err := session.ParsePath(vars["year"], vars["month"])
	if err != nil {
		writeError(w, http.StatusBadRequest, reqID, err.Error())
		return
	}

	query := r.URL.Query()
	format := query.Get("format")
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatGeoJSON && format != FormatPNG {
		writeError(w, http.StatusBadRequest, reqID, "unsupported format "+format)
		return
	}

	// Sessions serialize their fetches; one per request.
	snap, err := session.New(s.source, logger).Plot(r.Context(), month)
	if err != nil {
		if errors.Is(err, session.ErrInvalidMonth) {
			writeError(w, http.StatusBadRequest, reqID, err.Error())
			return
		}
		sharedobs.WriteJSON(w, http.StatusBadGateway, SceneResponse{
			RequestID: reqID,
			Month:     month.String(),
			Status:    snap.Status.String(),
			Message:   snap.Message,
		})
		return
	}

	scene := s.renderer.Render(snap.Storms, render.Detailed(query.Get("selected")))
	if s.publisher != nil && snap.Status == session.StatusSuccess && scene.Mode == render.ModeOverview {
		if err := s.publisher.Publish(r.Context(), month.String(), scene); err != nil {
			logger.Warn("scene publish failed", "month", month.String(), "error", err)
		}
	}

	switch format {
	case FormatGeoJSON:
		data, err := geojsonadapter.Marshal(scene)
		if err != nil {
			logger.Error("encode geojson", "error", err)
			writeError(w, http.StatusInternalServerError, reqID, "encode geojson")
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case FormatPNG:
		var buf bytes.Buffer
		if err := plotadapter.Encode(&buf, scene, sceneTitle(month, scene), FormatPNG); err != nil {
			logger.Error("encode png", "error", err)
			writeError(w, http.StatusInternalServerError, reqID, "encode png")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	default:
		sharedobs.WriteJSON(w, http.StatusOK, SceneResponse{
			RequestID: reqID,
			Month:     month.String(),
			Status:    snap.Status.String(),
			Message:   snap.Message,
			Scene:     scene,
		})
	}
}

func sceneTitle(month session.Month, scene *render.Scene) string {
	if g, ok := scene.Group(scene.SelectedID); ok && scene.Mode == render.ModeDetailed {
		return g.Name + " " + month.String()
	}
	return "Storms " + month.String()
}

func writeError(w http.ResponseWriter, status int, reqID, message string) {
	sharedobs.WriteJSON(w, status, map[string]string{
		"status":     "error",
		"error":      message,
		"request_id": reqID,
	})
}

type requestIDKey struct{}

// requestID propagates an inbound X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFrom returns the request id stored by the middleware, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
