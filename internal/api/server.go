package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ajitpratap0/marquee/internal/config"
	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

// ModelSource provides the current timeline and rebuilds it on demand.
// Diagnostics covers the current model and the outcome of the last load.
type ModelSource interface {
	Current() *timeline.Model
	Load(ctx context.Context) (*timeline.Model, error)
	Diagnostics() []models.Diagnostic
}

// Options configures the HTTP surface.
type Options struct {
	AuthToken      string // empty = no auth required
	AllowedOrigins []string
	View           config.ViewConfig
}

// Server is an HTTP API server that exposes the timeline to renderers.
type Server struct {
	source ModelSource
	opts   Options
	logger *slog.Logger
}

// NewServer creates a new Server with the given dependencies.
func NewServer(src ModelSource, opts Options, logger *slog.Logger) *Server {
	return &Server{
		source: src,
		opts:   opts,
		logger: logger,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check and metrics: no auth required.
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/productions/{id}", s.handleGetProduction)
		r.Get("/search", s.handleSearch)
		r.Get("/people", s.handlePeople)
		r.Get("/people/{name}/productions", s.handlePersonProductions)
		r.Get("/graph", s.handleGraph)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AuthToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	m := s.source.Current()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"generation":  m.Generation,
		"productions": m.Stats().Productions,
	})
}

// timelineResponse is returned by GET /v1/timeline.
type timelineResponse struct {
	Generation string                `json:"generation"`
	BuiltAt    time.Time             `json:"built_at"`
	Items      []models.TimelineItem `json:"items"`
	View       config.ViewConfig     `json:"view"`
	Stats      models.Stats          `json:"stats"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, _ *http.Request) {
	m := s.source.Current()
	s.writeJSON(w, http.StatusOK, timelineResponse{
		Generation: m.Generation,
		BuiltAt:    m.BuiltAt,
		Items:      m.Items(),
		View:       s.opts.View,
		Stats:      m.Stats(),
	})
}

func (s *Server) handleGetProduction(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	p, err := s.source.Current().Production(id)
	if errors.Is(err, timeline.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "production not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get production", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get production")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// searchResponse is returned by GET /v1/search.
type searchResponse struct {
	Query   string                  `json:"query"`
	Results []timeline.SearchResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	results := s.source.Current().SearchTitles(q)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(results) {
			results = results[:limit]
		}
	}

	s.writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: results})
}

func (s *Server) handlePeople(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"people": s.source.Current().People()})
}

func (s *Server) handlePersonProductions(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	prods := s.source.Current().ProductionsForPerson(name)
	s.writeJSON(w, http.StatusOK, map[string]any{"name": name, "productions": prods})
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.Current().Graph())
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	m := s.source.Current()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"generation":  m.Generation,
		"diagnostics": s.source.Diagnostics(),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	m, err := s.source.Load(r.Context())
	if err != nil {
		s.logger.Error("reload failed", "error", err)
		s.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":      "reload failed; previous timeline kept",
			"generation": s.source.Current().Generation,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"generation": m.Generation,
		"stats":      m.Stats(),
	})
}

// --- helpers ---

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
