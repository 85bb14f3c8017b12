// Package httpapi exposes catalog search over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/letmevibethatforyou/fusex"
)

// DefaultKeys are searched when a request names none.
var DefaultKeys = []string{"title", "author"}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is the body of a successful search.
type SearchResponse[T any] struct {
	Query string            `json:"query"`
	Total int               `json:"total"`
	Items []fusex.Result[T] `json:"items"`
}

// Server serves searches over a fixed collection of items.
type Server[T any] struct {
	collection string
	items      []T
	search     *fusex.Service[T]
	logger     *slog.Logger
	timeout    time.Duration
}

// NewServer creates a server that answers GET /{collection}/search.
func NewServer[T any](collection string, items []T, search *fusex.Service[T], logger *slog.Logger) *Server[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server[T]{
		collection: collection,
		items:      items,
		search:     search,
		logger:     logger,
	}
}

// WithSearchTimeout bounds every search by d. Zero disables the bound.
func (s *Server[T]) WithSearchTimeout(d time.Duration) *Server[T] {
	s.timeout = d
	return s
}

// Routes returns the router with health, metrics and search endpoints.
func (s *Server[T]) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(Middleware())

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/"+s.collection+"/search", s.handleSearch)
	return r
}

func (s *Server[T]) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"items":  len(s.items),
	})
}

// handleSearch handles GET /{collection}/search?q=&limit=&max_score=&tag=&keys=.
func (s *Server[T]) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	term := strings.TrimSpace(query.Get("q"))

	opts, limit, err := searchOptions(query)
	if err != nil {
		searchesTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.search.SearchList(ctx, s.items, term, opts...)
	if err != nil {
		s.handleSearchError(w, r, err)
		return
	}

	total := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	data, err := json.Marshal(SearchResponse[T]{
		Query: term,
		Total: total,
		Items: results,
	})
	if err != nil {
		s.handleSearchError(w, r, errors.Wrap(err, "failed to encode results"))
		return
	}

	searchesTotal.WithLabelValues("ok").Inc()
	searchResults.Observe(float64(total))

	writeBody(w, http.StatusOK, data)
}

// searchOptions reads search options from the query string.
func searchOptions(query map[string][]string) ([]fusex.Option, int, error) {
	get := func(key string) string {
		if v := query[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	keys := DefaultKeys
	if raw := get("keys"); raw != "" {
		keys = nil
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	opts := []fusex.Option{fusex.WithKeys(keys...)}

	limit := 0
	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, 0, errors.Newf("limit must be a non-negative integer, got %q", raw)
		}
		limit = n
		opts = append(opts, fusex.WithLimit(n))
	}

	if raw := get("max_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || score < 0 {
			return nil, 0, errors.Newf("max_score must be a non-negative number, got %q", raw)
		}
		opts = append(opts, fusex.WithMaximumScore(score))
	}

	if tag := get("tag"); tag != "" {
		if strings.ContainsAny(tag, "<>/ \"'") {
			return nil, 0, errors.Newf("tag must be a bare element name, got %q", tag)
		}
		opts = append(opts, fusex.WithHighlightTag(tag))
	}

	return opts, limit, nil
}

func (s *Server[T]) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status  int
		code    string
		message string
	)
	switch {
	case errors.Is(err, fusex.ErrInvalidOption):
		status, code, message = http.StatusBadRequest, "invalid_option", "invalid search option"
	case errors.Is(err, fusex.ErrTimeout):
		status, code, message = http.StatusGatewayTimeout, "timeout", "search timed out"
	case errors.Is(err, fusex.ErrCanceled):
		status, code, message = http.StatusServiceUnavailable, "canceled", "search canceled"
	case errors.Is(err, fusex.ErrBackendUnavailable):
		status, code, message = http.StatusBadGateway, "backend_unavailable", "search backend unavailable"
	default:
		status, code, message = http.StatusInternalServerError, "internal", "internal error"
	}

	searchesTotal.WithLabelValues(code).Inc()
	s.logger.ErrorContext(r.Context(), "search failed",
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"error", err,
	)
	writeError(w, status, code, message)
}

// requestLogger logs one line per request.
func (s *Server[T]) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// writeJSON encodes v before touching the header, so a value that fails to
// encode produces a 500 rather than a partial body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorResponse{Code: "internal", Message: "failed to encode response"})
	}
	writeBody(w, status, data)
}

func writeBody(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
