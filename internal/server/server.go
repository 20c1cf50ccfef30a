// Package server exposes the corrector over HTTP.
//
// Routes:
//
//	POST /v1/revise        {"text": "..."}        corrects one text
//	POST /v1/revise/batch  {"texts": ["...", ...]} corrects several texts
//	GET  /metrics          Prometheus exposition
//	GET  /healthz, /readyz liveness and readiness
//
// Every response body is JSON. Errors use {"error": "..."}.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/homonym/internal/health"
	"github.com/MrWong99/homonym/internal/observe"
	"github.com/MrWong99/homonym/internal/transcript"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultMaxBatch     = 256
)

// Source returns the corrector to use for a request. It may return nil while
// no dictionary has been compiled yet; requests then fail with 503.
type Source func() transcript.Corrector

// Option is a functional option for [New].
type Option func(*Server)

// WithMetrics records request durations on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth mounts h on /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler replaces the default promhttp handler on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMaxBatch limits the number of texts in one batch request.
// Default: 256.
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithMaxBodyBytes limits request body size. Default: 1 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger for request failures. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server routes HTTP requests to the current corrector.
type Server struct {
	source         Source
	metrics        *observe.Metrics
	health         *health.Handler
	metricsHandler http.Handler
	maxBatch       int
	maxBodyBytes   int64
	log            *slog.Logger
}

// New creates a [Server] answering from source.
func New(source Source, opts ...Option) *Server {
	s := &Server{
		source:         source,
		metricsHandler: promhttp.Handler(),
		maxBatch:       defaultMaxBatch,
		maxBodyBytes:   defaultMaxBodyBytes,
		log:            slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler. When metrics are configured every
// route is wrapped in [observe.Middleware].
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/revise", s.handleRevise)
	mux.HandleFunc("POST /v1/revise/batch", s.handleBatch)
	mux.Handle("GET /metrics", s.metricsHandler)
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metrics == nil {
		return mux
	}
	return observe.Middleware(s.metrics)(mux)
}

// ReviseRequest is the body of POST /v1/revise.
type ReviseRequest struct {
	Text string `json:"text"`
}

// BatchRequest is the body of POST /v1/revise/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

// Correction is the wire form of [transcript.Correction].
type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Distance  int    `json:"distance"`
	Begin     int    `json:"begin"`
	End       int    `json:"end"`
	Method    string `json:"method"`
}

// Stats is the wire form of [transcript.Stats].
type Stats struct {
	Sentences int `json:"sentences"`
	Hits      int `json:"hits"`
	Unmapped  int `json:"unmapped"`
	Rejected  int `json:"rejected"`
	Applied   int `json:"applied"`
}

// ReviseResponse is the body returned by POST /v1/revise and each element of
// [BatchResponse.Results].
type ReviseResponse struct {
	Text        string       `json:"text"`
	Corrected   string       `json:"corrected"`
	Corrections []Correction `json:"corrections"`
	Stats       Stats        `json:"stats"`
}

// BatchResponse is the body returned by POST /v1/revise/batch.
type BatchResponse struct {
	Results []ReviseResponse `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request) {
	c := s.corrector(w)
	if c == nil {
		return
	}
	var req ReviseRequest
	if !s.decode(w, r, &req) {
		return
	}
	res := c.Correct(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	c := s.corrector(w)
	if c == nil {
		return
	}
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Texts) > s.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("batch of %d texts exceeds limit of %d", len(req.Texts), s.maxBatch))
		return
	}
	results, err := c.CorrectAll(r.Context(), req.Texts)
	if err != nil {
		observe.LoggerWith(r.Context(), s.log).Warn("server: batch aborted", "texts", len(req.Texts), "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	out := BatchResponse{Results: make([]ReviseResponse, len(results))}
	for i, res := range results {
		out.Results[i] = toResponse(res)
	}
	writeJSON(w, http.StatusOK, out)
}

// corrector returns the current corrector, answering 503 when there is none.
func (s *Server) corrector(w http.ResponseWriter) transcript.Corrector {
	var c transcript.Corrector
	if s.source != nil {
		c = s.source()
	}
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "dictionary not loaded")
	}
	return c
}

// decode reads a JSON body into v, answering 400 or 413 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.log.Debug("server: bad request", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func toResponse(res *transcript.CorrectedText) ReviseResponse {
	out := ReviseResponse{
		Text:        res.Original,
		Corrected:   res.Corrected,
		Corrections: make([]Correction, len(res.Corrections)),
		Stats: Stats{
			Sentences: res.Stats.Sentences,
			Hits:      res.Stats.Hits,
			Unmapped:  res.Stats.Unmapped,
			Rejected:  res.Stats.Rejected,
			Applied:   res.Stats.Applied,
		},
	}
	for i, c := range res.Corrections {
		out.Corrections[i] = Correction(c)
	}
	return out
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
