// Package httpapi serves the nooze JSON API over chi.
//
// Every failure body carries "error" as a string; successful structured
// responses carry "error": 0.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/runnerr0/nooze/internal/logger"
	"github.com/runnerr0/nooze/internal/metrics"
	"github.com/runnerr0/nooze/internal/query"
	"github.com/runnerr0/nooze/internal/series"
	"github.com/runnerr0/nooze/internal/storage"
	searchuc "github.com/runnerr0/nooze/internal/usecase/search"
)

// Searcher is the part of the search service the API exposes.
type Searcher interface {
	Search(ctx context.Context, dsl string) ([]storage.Status, error)
	XSearch(ctx context.Context, obj query.SearchObject) ([]storage.Status, error)
	XCount(ctx context.Context, obj query.SearchObject) (int64, error)
	XCounts(ctx context.Context, req searchuc.CountsRequest) (searchuc.CountsResult, error)
	XGraph(ctx context.Context, req series.GraphRequest) (map[string]any, error)
	Recent(ctx context.Context) ([]storage.Status, error)
	Count(ctx context.Context) (int64, error)
	Categories(ctx context.Context) (map[string][]storage.Topic, error)
}

var _ Searcher = (*searchuc.Service)(nil)

// Server holds the API handlers.
type Server struct {
	search  Searcher
	logger  *zap.Logger
	name    string
	maxBody int64
}

// NewServer creates an API server. A nil logger disables logging.
func NewServer(search Searcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, logger: logger}
}

// WithName sets the Server response header.
func (s *Server) WithName(name string) *Server {
	s.name = name
	return s
}

// WithMaxRequestSize caps request bodies. Zero means no cap.
func (s *Server) WithMaxRequestSize(n int64) *Server {
	s.maxBody = n
	return s
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(responseHeaders(s.name))
	r.Use(limitBody(s.maxBody))

	r.Route("/json", func(r chi.Router) {
		r.Get("/cats", s.Categories)
		r.Get("/count", s.Count)
		r.Get("/recent", s.Recent)
		r.Post("/recent", s.Recent)
		r.Get("/qry", s.Query)
		r.Post("/qry", s.Query)
		r.Post("/xqry", s.XQuery)
		r.Post("/xcount", s.XCount)
		r.Post("/intvlcounts", s.IntervalCounts)
		r.Post("/xgraph", s.XGraph)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Categories handles GET /json/cats.
func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	n, err := s.search.Count(r.Context())
	if err != nil {
		s.fail(w, r, err, map[string]any{"count": 0, "cats": map[string]any{}})
		return
	}
	cats, err := s.search.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err, map[string]any{"count": 0, "cats": map[string]any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n, "cats": cats})
}

// Count handles GET /json/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	n, err := s.search.Count(r.Context())
	if err != nil {
		s.fail(w, r, err, map[string]any{"count": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

// Recent handles /json/recent.
func (s *Server) Recent(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.search.Recent(r.Context())
	if err != nil {
		s.fail(w, r, err, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

// Query handles /json/qry?data=<shorthand query>.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	dsl := r.URL.Query().Get("data")
	statuses, err := s.search.Search(r.Context(), dsl)
	if err != nil {
		s.fail(w, r, err, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

// XQuery handles POST /json/xqry with a {words, start, end} body.
func (s *Server) XQuery(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"statuses": []storage.Status{}}

	var obj query.SearchObject
	if !s.decode(w, r, &obj, empty) {
		return
	}
	statuses, err := s.search.XSearch(r.Context(), obj)
	if err != nil {
		s.fail(w, r, err, empty)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": statuses, "error": 0})
}

// XCount handles POST /json/xcount with a {words, start, end} body.
func (s *Server) XCount(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"count": 0}

	var obj query.SearchObject
	if !s.decode(w, r, &obj, empty) {
		return
	}
	n, err := s.search.XCount(r.Context(), obj)
	if err != nil {
		s.fail(w, r, err, empty)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n, "error": 0})
}

// IntervalCounts handles POST /json/intvlcounts with a
// {words, start, interval, n} body.
func (s *Server) IntervalCounts(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"intervals": []any{}}

	var req searchuc.CountsRequest
	if !s.decode(w, r, &req, empty) {
		return
	}
	res, err := s.search.XCounts(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, empty)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"intervals": res, "error": 0})
}

// XGraph handles POST /json/xgraph with a
// {subqueries, start, interval, n, title} body.
func (s *Server) XGraph(w http.ResponseWriter, r *http.Request) {
	empty := map[string]any{"result": nil}

	var req series.GraphRequest
	if !s.decode(w, r, &req, empty) {
		return
	}
	chart, err := s.search.XGraph(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, empty)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": chart, "error": 0})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, body map[string]any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		body["error"] = fmt.Sprintf("invalid request body: %v", err)
		writeJSON(w, status, body)
		return false
	}
	return true
}

// fail writes body with an "error" message and a status chosen from the
// error's type. Store failures are not described to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, body map[string]any) {
	log := logpkg.FromContext(r.Context(), s.logger)

	var (
		pe  *query.ParseError
		tnf *query.TopicNotFoundError
		ise *query.IntervalSpecError
		se  *query.StoreError
	)
	status := http.StatusBadRequest
	msg := err.Error()
	switch {
	case errors.As(err, &pe), errors.As(err, &ise):
	case errors.As(err, &tnf):
		status = http.StatusNotFound
	case errors.As(err, &se):
		status = http.StatusInternalServerError
		msg = "store failure"
		log.Error("store failure", zap.Error(err))
	default:
		log.Warn("request failed", zap.Error(err))
	}

	body["error"] = msg
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
