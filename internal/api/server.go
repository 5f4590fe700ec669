package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
	"github.com/nerrad567/waveform-core/internal/infrastructure/logging"
	"github.com/nerrad567/waveform-core/internal/ingest"
	"github.com/nerrad567/waveform-core/internal/static"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Runner performs one ingestion. *ingest.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context) (ingest.Result, error)
}

// Database is the part of *database.DB the server reports on.
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// ConnectionReporter reports whether an optional client is connected.
// *mqtt.Client implements it.
type ConnectionReporter interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.ServerConfig
	Static  config.StaticConfig
	Logger  *logging.Logger
	Ingest  Runner
	Index   *static.Index
	DB      Database
	Version string

	// Registry receives the HTTP collectors and is exposed on /metrics.
	// Nil disables /metrics.
	Registry *prometheus.Registry

	// MQTT is optional and only reported in /api/v1/metrics.
	MQTT ConnectionReporter
}

// Server is the HTTP server for Waveform Core.
type Server struct {
	cfg       config.ServerConfig
	staticCfg config.StaticConfig
	logger    *logging.Logger
	ingest    Runner
	index     *static.Index
	db        Database
	registry  *prometheus.Registry
	mqtt      ConnectionReporter
	version   string
	startTime time.Time
	http      *httpMetrics
	limiter   *rate.Limiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a server. It is not listening until Start is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Ingest == nil {
		return nil, errors.New("ingest runner is required")
	}
	if deps.Index == nil {
		return nil, errors.New("index document is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}

	s := &Server{
		cfg:       deps.Config,
		staticCfg: deps.Static,
		logger:    deps.Logger.With("component", "api"),
		ingest:    deps.Ingest,
		index:     deps.Index,
		db:        deps.DB,
		registry:  deps.Registry,
		mqtt:      deps.MQTT,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if deps.Registry != nil {
		s.http = newHTTPMetrics(deps.Registry)
	}
	if rl := deps.Config.RateLimit; rl.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rl.RPS), max(rl.Burst, 1))
	}
	return s, nil
}

// Start binds the listener and serves in a background goroutine.
//
// Request contexts derive from an internal context that Close cancels, so
// requests still in their interval wait end promptly on shutdown.
//
// Returns:
//   - error: If the address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("api server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.listener = ln
	s.done = make(chan struct{})

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		BaseContext:       func(net.Listener) context.Context { return srvCtx },
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())

	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)
	<-s.done
	s.server = nil
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
