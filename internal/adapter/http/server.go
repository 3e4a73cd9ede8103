package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Datasets is the part of the pipeline the API serves from.
type Datasets interface {
	Load(ctx context.Context, start, end time.Time) (*domain.Dataset, error)
	ClearCache() int
	CheckReadiness(ctx context.Context) error
}

// Options configures a Server. DefaultStart and DefaultEnd are used when a
// request omits start or end; zero means the parameter is required.
type Options struct {
	Addr         string
	DefaultStart time.Time
	DefaultEnd   time.Time
}

// Server exposes health, readiness, metrics and the /api/v1 query routes.
type Server struct {
	httpServer *http.Server
	datasets   Datasets
	opts       Options
	logger     *slog.Logger
}

// NewServer wires the routes onto a gorilla/mux router.
func NewServer(opts Options, datasets Datasets, logger *slog.Logger) *Server {
	r := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		datasets: datasets,
		opts:     opts,
		logger:   logger,
	}

	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(datasets)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/observations", s.query(s.observations)).Methods(http.MethodGet)
	api.HandleFunc("/kpis", s.query(s.kpis)).Methods(http.MethodGet)
	api.HandleFunc("/top", s.query(s.top)).Methods(http.MethodGet)
	api.HandleFunc("/mortality", s.query(s.mortality)).Methods(http.MethodGet)
	api.HandleFunc("/growth", s.query(s.growth)).Methods(http.MethodGet)
	api.HandleFunc("/correlation", s.query(s.correlation)).Methods(http.MethodGet)
	api.HandleFunc("/continents", s.query(s.continents)).Methods(http.MethodGet)
	api.HandleFunc("/peak", s.query(s.peak)).Methods(http.MethodGet)
	api.HandleFunc("/rebounds", s.query(s.rebounds)).Methods(http.MethodGet)
	api.HandleFunc("/regions/latam", s.query(s.latam)).Methods(http.MethodGet)
	api.HandleFunc("/report", s.query(s.report)).Methods(http.MethodGet)
	api.HandleFunc("/cache", s.handleClearCache).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

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

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	n := s.datasets.ClearCache()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
