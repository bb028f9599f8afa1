// Package server exposes the engine over HTTP. POST /api/invoke handles
// blocking JSON requests and, with "stream": true, server-sent events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/engine"
	"github.com/hupe1980/agentpilot/logging"
)

// Options configures the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       logging.Logger
}

// invokeRequest extends the engine request with the transport-level stream
// switch.
type invokeRequest struct {
	engine.Request
	Stream bool `json:"stream,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the orchestration API.
type Server struct {
	engine *engine.Engine
	logger logging.Logger
	http   *http.Server
}

// New creates a server around the given engine.
func New(eng *engine.Engine, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{engine: eng, logger: opts.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/invoke", s.handleInvoke)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      mux,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt must not be empty"})
		return
	}

	if req.Stream {
		s.streamInvoke(w, r, req.Request)
		return
	}

	resp, err := s.engine.Invoke(r.Context(), req.Request)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// streamInvoke writes the event stream as server-sent events, one JSON event
// per data line. The terminal done event is always delivered before the
// stream closes.
func (s *Server) streamInvoke(w http.ResponseWriter, r *http.Request, req engine.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	events, err := s.engine.Stream(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for ev := range events {
		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if err := enc.Encode(ev); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var notFound *core.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("invoke failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
