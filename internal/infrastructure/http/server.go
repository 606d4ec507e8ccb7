// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/0xcro3dile/exemplar/internal/adapters/loader"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

// Options configures the HTTP server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = ":5000"
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 15 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 120 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = loader.DefaultMaxUploadBytes
	}
	return o
}

// Server is the HTTP server for the chat and dataset API.
type Server struct {
	chat      *usecases.ChatUseCase
	datasets  *usecases.DatasetUseCase
	generator ports.Generator
	logger    *slog.Logger
	opts      Options
}

// NewServer creates a new HTTP server. generator may be nil; it is only
// consulted by the health check.
func NewServer(
	chat *usecases.ChatUseCase,
	datasets *usecases.DatasetUseCase,
	generator ports.Generator,
	logger *slog.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		chat:      chat,
		datasets:  datasets,
		generator: generator,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /datasets", s.handleListDatasets)
	mux.HandleFunc("POST /datasets/reload", s.handleReload)
	mux.HandleFunc("GET /datasets/{file}", s.handleDownload)
	mux.HandleFunc("GET /health", s.handleHealth)

	return Chain(
		RequestID,
		Recovery(s.logger),
		Logging(s.logger),
		CORS,
	)(mux)
}

// Start runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("server starting",
		slog.String("addr", s.opts.Addr),
		slog.String("policy", s.chat.Policy()),
		slog.String("generator", s.chat.GeneratorName()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
