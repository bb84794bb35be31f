// Package api serves the lineage catalog as JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pbaille/covsupport/internal/domain"
	"github.com/pbaille/covsupport/internal/store"
)

// Catalog is the read side of the store the server needs.
type Catalog interface {
	ListLineages(prefix string) ([]domain.LineageEntry, error)
	GetLineage(name string) (*domain.LineageEntry, error)
	SearchLineages(query string) ([]domain.LineageEntry, error)
	LatestRun() (*domain.Run, error)
	ListRuns(limit int) ([]domain.Run, error)
}

// Server handles HTTP requests for the lineage catalog
type Server struct {
	catalog  Catalog
	addr     string
	log      zerolog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// New creates a new API server
func New(c Catalog, addr string, log zerolog.Logger) *Server {
	s := &Server{
		catalog:  c,
		addr:     addr,
		log:      log,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covsupport",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
	s.registry.MustRegister(s.requests)
	return s
}

// Handler returns the routed handler, CORS included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /lineages", s.instrument("lineages", s.listLineages))
	mux.HandleFunc("GET /lineages/{name}", s.instrument("lineage", s.getLineage))
	mux.HandleFunc("GET /search", s.instrument("search", s.searchLineages))
	mux.HandleFunc("GET /runs", s.instrument("runs", s.listRuns))
	mux.HandleFunc("GET /runs/latest", s.instrument("latest_run", s.latestRun))

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return withCORS(mux)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.log.Debug().Str("route", route).Str("path", r.URL.Path).Int("status", rec.status).Msg("request")
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listLineages(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix != "" {
		if err := domain.ValidateName(prefix); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	lineages, err := s.catalog.ListLineages(prefix)
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lineages": nonNil(lineages),
		"prefix":   prefix,
	})
}

func (s *Server) getLineage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	lineage, err := s.catalog.GetLineage(name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "lineage not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lineage)
}

func (s *Server) searchLineages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	lineages, err := s.catalog.SearchLineages(query)
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lineages": nonNil(lineages),
		"query":    query,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.catalog.ListRuns(limit)
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  nonNil(runs),
		"limit": limit,
	})
}

func (s *Server) latestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.catalog.LatestRun()
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no runs recorded")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("catalog query failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
