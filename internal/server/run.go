package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shikhar109/Downloder/internal/cookies"
	"github.com/shikhar109/Downloder/internal/history"
	"github.com/shikhar109/Downloder/internal/retrieval"
	"github.com/shikhar109/Downloder/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultShutdownTimeout bounds graceful shutdown once the context is
// cancelled.
const DefaultShutdownTimeout = 10 * time.Second

// Opts contains dependencies and settings for building the HTTP server.
type Opts struct {
	Addr            string
	Orchestrator    *retrieval.Orchestrator
	Cookies         *cookies.Store
	History         *history.Repository
	Logger          *log.Logger
	AllowedOrigins  []string
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

// Server wires the router, middleware and handlers for the gateway.
type Server struct {
	httpServer      *http.Server
	logger          *log.Logger
	shutdownTimeout time.Duration
}

// New assembles the full HTTP surface.
func New(opts Opts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	router := NewBasicRouter()
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(opts.Logger))
	router.Use(CORSMiddleware(opts.AllowedOrigins, opts.Logger))
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit)
		}
		router.Use(RateLimitMiddleware(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}

	router.Handler(&IndexHandler{Cookies: opts.Cookies})
	router.Handler(&DownloadHandler{Orchestrator: opts.Orchestrator, Logger: opts.Logger})
	router.Handler(&CookiesHandler{Store: opts.Cookies, Logger: opts.Logger})
	router.Handler(&HistoryHandler{Repo: opts.History, Logger: opts.Logger})
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          opts.Logger,
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Handler exposes the assembled router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the server and blocks until it stops. Cancelling the context
// triggers a graceful shutdown bounded by the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", s.httpServer.Addr)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
