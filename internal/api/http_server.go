package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"depremkit/internal/config"
	"depremkit/internal/database"
	"depremkit/internal/domain"
	"depremkit/internal/metrics"
	"depremkit/internal/recommend"
	"depremkit/internal/service"

	"github.com/rs/zerolog"
)

// ReminderControl is the part of the reminder planner the API drives.
type ReminderControl interface {
	CheckNow(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// Dependencies are the collaborators behind the HTTP routes. Store is used
// by /readyz only.
type Dependencies struct {
	Kit       domain.KitService
	Generator domain.Generator
	Scheduler domain.Scheduler
	Reminders ReminderControl
	Store     Pinger
}

// HTTPServer exposes the kit over a JSON API.
type HTTPServer struct {
	cfg    config.APIConfig
	deps   Dependencies
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Dependencies, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, deps: deps, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	srv.route(mux, "/healthz", srv.handleHealthz)
	srv.route(mux, "/readyz", srv.handleReadyz)
	srv.route(mux, "/api/v1/categories", srv.handleCategories)
	srv.route(mux, "/api/v1/items", srv.handleItems)
	srv.route(mux, "/api/v1/items/", srv.handleItem)
	srv.route(mux, "/api/v1/expired", srv.handleExpired)
	srv.route(mux, "/api/v1/expiring", srv.handleExpiring)
	srv.route(mux, "/api/v1/summary", srv.handleSummary)
	srv.route(mux, "/api/v1/recommendations", srv.handleRecommendations)
	srv.route(mux, "/api/v1/export.xlsx", srv.handleExport)
	srv.route(mux, "/api/v1/notifications", srv.handleNotifications)
	srv.route(mux, "/api/v1/notifications/", srv.handleNotification)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second, // genai отвечает до минуты
	}

	return srv
}

// route registers h and counts requests under pattern.
func (s *HTTPServer) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(pattern)
		h(w, r)
	})
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		ev := s.logger.Debug()
		if recorder.status >= http.StatusInternalServerError {
			ev = s.logger.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// writeServiceError maps service and store errors onto status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		writeError(w, http.StatusBadRequest, fieldErr.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, recommend.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, database.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "store is not ready")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
