// Package server exposes the nutrition routes over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/handlers"
	"github.com/user/foodlog/internal/logging"
)

// Banner is served at GET /
const Banner = "Food Logger Backend Running!"

// Server is the HTTP server for the nutrition API
type Server struct {
	cfg       config.ServerConfig
	nutrition *handlers.NutritionHandler
	base      *handlers.BaseHandler
	logger    *logging.Logger
	handler   http.Handler
}

// New creates a server and registers its routes
func New(cfg config.ServerConfig, nutrition *handlers.NutritionHandler, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		cfg:       cfg,
		nutrition: nutrition,
		logger:    logger.Named("server"),
	}
	s.base = handlers.NewBaseHandler(s.logger)
	s.handler = s.routes()
	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	prefixes := []string{""}
	if p := strings.TrimRight(s.cfg.APIPrefix, "/"); p != "" {
		prefixes = append(prefixes, p)
	}
	for _, prefix := range prefixes {
		mux.HandleFunc("POST "+prefix+"/macros-from-text", s.nutrition.MacrosFromText)
		mux.HandleFunc("POST "+prefix+"/calculate-macros", s.nutrition.CalculateMacros)
		mux.HandleFunc("POST "+prefix+"/vision", s.nutrition.Vision)
	}

	return corsMiddleware(s.loggingMiddleware(s.recoverMiddleware(mux)))
}

// Start listens on the configured port and serves until ctx is cancelled,
// then drains in-flight requests within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.GetReadTimeout(),
		WriteTimeout: s.cfg.GetWriteTimeout(),
	}

	s.logger.Info("server starting", logging.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.base.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
