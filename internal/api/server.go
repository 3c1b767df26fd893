// Package api exposes the fact-check pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/resilience"
)

// Service is the pipeline surface the handlers need.
type Service interface {
	Submit(ctx context.Context, claimText, mediaPath string) (string, error)
	Status(ctx context.Context, id string) (*model.StatusView, error)
	Result(ctx context.Context, id string) (*model.AnalysisRecord, error)
	Delete(ctx context.Context, id string) error
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CircuitReporter reports the state of each collaborator's circuit breaker.
type CircuitReporter interface {
	States() map[string]resilience.State
}

// Options configures the HTTP handler.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string
	Health         Pinger
	Circuits       CircuitReporter
}

type healthResponse struct {
	Status   string            `json:"status"`
	Circuits map[string]string `json:"circuits,omitempty"`
}

// Server holds handler dependencies.
type Server struct {
	svc  Service
	opts Options
}

// NewRouter builds the chi router for the API.
func NewRouter(svc Service, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleResult)
		r.Get("/{id}/status", s.handleStatus)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

// handleHealth reports store reachability. Open circuits are listed but do
// not fail the check: analyses still complete with default values.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.opts.Circuits != nil {
		states := s.opts.Circuits.States()
		resp.Circuits = make(map[string]string, len(states))
		for name, st := range states {
			resp.Circuits[name] = st.String()
		}
	}

	if s.opts.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Health.Ping(ctx); err != nil {
			zap.L().Warn("api: store health check failed", zap.Error(err))
			resp.Status = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
