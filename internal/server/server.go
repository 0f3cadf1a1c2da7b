package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/recallbe/recall/internal/auth"
	"github.com/recallbe/recall/internal/config"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// OpenPaths are served without API_TOKEN.
var OpenPaths = []string{"/healthz", "/v1/ping"}

// Server wraps the HTTP server and related dependencies.
type Server struct {
	cfg    config.Config
	logger *slog.Logger
	server *http.Server
	mux    *http.ServeMux
}

// New constructs a server with base routes and middleware wiring.
func New(cfg config.Config, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           Middleware(logger, auth.Require(cfg.APIToken, logger, mux, OpenPaths...)),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		server: srv,
		mux:    mux,
	}
}

// Run starts the HTTP server and blocks until it exits or errors.
func (s *Server) Run() error {
	s.logger.Info("api server listening", "addr", s.server.Addr, "env", s.cfg.Env)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server within the provided context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Mux exposes the underlying mux for route registration by other packages.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Handler returns the fully wrapped handler served by Run.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Middleware tags each request with an ID and logs it once served.
func Middleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
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

// Hijack lets websocket upgrades through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
