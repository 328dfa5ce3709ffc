package api

import (
	"haidetect.com/hai/knowtator"
	"haidetect.com/hai/pipeline"
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	FormatJSON      = "json"
	FormatKnowtator = "knowtator"

	maxBodyBytes = 10 << 20
)

type Server struct {
	router   *chi.Mux
	pipeline pipeline.Pipeline
	metrics  http.Handler
	now      func() time.Time
	maxBody  int64
}

// NewServer serves the pipeline over HTTP. metricsHandler may be nil.
func NewServer(ppln pipeline.Pipeline, metricsHandler http.Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	s := &Server{
		router:   r,
		pipeline: ppln,
		metrics:  metricsHandler,
		now:      time.Now,
		maxBody:  maxBodyBytes,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/annotate", s.handleAnnotate)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Run(addr string) error {
	defaultLogger.Info().Str("addr", addr).Msg("Starting REST API")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnnotate runs the pipeline on the raw request body.
// Query parameters: tid (generated when absent), format=json|knowtator.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	logger := makeRequestLogger(r)

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatKnowtator {
		logger.Error().Str("format", format).Int("status", http.StatusBadRequest).Msg("Unknown response format")
		respondError(w, http.StatusBadRequest, "format must be json or knowtator")
		return
	}

	msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.Err(err).Int("status", http.StatusRequestEntityTooLarge).Msg("Request body too large")
		respondError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		respondError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if strings.TrimSpace(string(msg)) == "" {
		logger.Error().Int("status", http.StatusBadRequest).Msg("Empty request body")
		respondError(w, http.StatusBadRequest, "empty document")
		return
	}

	tid := r.URL.Query().Get("tid")
	if tid == "" {
		tid = uuid.NewString()
	}
	request := pipeline.Request{
		Tid:  tid,
		Text: string(msg),
	}
	logger = logger.With().Str("tid", tid).Logger()
	logger.Info().Msg("Starting pipeline for request from API")

	res, ok := <-s.pipeline(request)
	if !ok {
		logger.Error().Int("status", http.StatusInternalServerError).Msg("Pipeline channel was closed before returning anything")
		respondError(w, http.StatusInternalServerError, "pipeline failed")
		return
	}

	switch format {
	case FormatKnowtator:
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		if err := knowtator.Write(w, res.Document, tid, s.now()); err != nil {
			logger.Err(err).Msg("Failed to write knowtator response")
			return
		}
	default:
		respondJSON(w, http.StatusOK, pipeline.NewHAIResponse(res))
	}
	logger.Info().
		Int("status", http.StatusOK).
		Int("annotations", len(res.Document.Annotations)).
		Msg("Finished processing request")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
