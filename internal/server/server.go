// Package server provides the HTTP API of the fractal calculator: frame
// rendering, preset listing, health, Prometheus metrics and a websocket
// stream of chunk progress.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/service"
)

// Server represents the HTTP server for the fractal calculator API.
// It wraps the standard http.Server and adds application-specific configuration
// and graceful shutdown capabilities.
type Server struct {
	presets        config.Presets
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	limits         service.Limits
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer creates a new Server instance for the given presets and configuration.
// It initializes the HTTP server with timeouts and a request multiplexer.
//
// Parameters:
//   - presets: The fractal presets requests are resolved against.
//   - cfg: The application configuration (port, workers, ...).
//   - opts: Optional functional options for customizing the server (e.g., WithLogger).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(presets config.Presets, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		presets:        presets,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		limits:         service.DefaultLimits(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		s.service = service.NewFrameService(s.presets, s.limits, s.logger)
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()

	// Security -> RateLimit -> Logging -> Metrics -> Handler
	mux.HandleFunc("/render", s.wrapWithMiddleware(s.handleRender))
	mux.HandleFunc("/fractals", s.wrapWithMiddleware(s.handleFractals))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))
	// Long-lived: no rate limit and no request metrics.
	mux.HandleFunc("/ws/progress", SecurityMiddleware(s.securityConfig, s.loggingMiddleware(s.handleProgressStream)))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// Handler returns the request multiplexer with its middleware chain.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// wrapWithMiddleware applies the full middleware chain to a handler.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start initializes and starts the HTTP server.
// It listens for incoming requests on the configured port and handles system
// signals (SIGINT, SIGTERM) to ensure a graceful shutdown.
//
// Returns:
//   - error: An error if the server fails to start or shuts down unexpectedly.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.Int("workers", s.cfg.Workers),
			logging.Int("max_pixels", s.limits.MaxPixels),
		)
		s.logger.Println("Available endpoints:")
		s.logger.Println("  GET /render?fractal=<name>&width=<px>&height=<px>&max=<n>...")
		s.logger.Println("  GET /fractals")
		s.logger.Println("  GET /health")
		s.logger.Println("  GET /metrics")
		s.logger.Println("  GET /ws/progress (websocket)")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Println("Shutdown signal received, initiating graceful shutdown...")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Println("Server stopped gracefully")
	return nil
}
