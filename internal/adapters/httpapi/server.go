// Package httpapi exposes the relay queue over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"game-relayer/go-backend/internal/domains/relay"
	"game-relayer/go-backend/internal/platform/config"
	"game-relayer/go-backend/internal/platform/ratelimiter"
)

// Relayer is the queue surface the transport needs.
type Relayer interface {
	Enqueue(req relay.Request) *relay.Pending
	Len() int
}

// NonceReader reports the cached next nonce for health output.
type NonceReader interface {
	Peek() (uint64, bool)
}

// Telemetry records transport events. Handler may return nil to disable /metrics.
type Telemetry interface {
	RateLimited()
	HTTPResponse(code int)
	Handler() http.Handler
}

type Options struct {
	HTTP        config.HTTPConfig
	WaitTimeout time.Duration
	Relay       Relayer
	Nonces      NonceReader
	Limiter     *ratelimiter.MapLimiter
	Telemetry   Telemetry
	Logger      *slog.Logger
}

type Server struct {
	httpServer      *http.Server
	relay           Relayer
	nonces          NonceReader
	limiter         *ratelimiter.MapLimiter
	telemetry       Telemetry
	logger          *slog.Logger
	maxBodyBytes    int64
	waitTimeout     time.Duration
	shutdownTimeout time.Duration
	trustProxy      bool
}

var errRelayRequired = errors.New("httpapi: relay is required")

func NewServer(opts Options) (*Server, error) {
	if opts.Relay == nil {
		return nil, errRelayRequired
	}
	defaults := config.Default().HTTP
	if opts.HTTP.Addr == "" {
		opts.HTTP.Addr = defaults.Addr
	}
	if opts.HTTP.RelayPath == "" {
		opts.HTTP.RelayPath = defaults.RelayPath
	}
	if opts.HTTP.MaxBodyBytes <= 0 {
		opts.HTTP.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if opts.HTTP.ReadHeaderTimeout <= 0 {
		opts.HTTP.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if opts.HTTP.ShutdownTimeout <= 0 {
		opts.HTTP.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = config.Default().Queue.WaitTimeout
	}
	if opts.Telemetry == nil {
		opts.Telemetry = nopTelemetry{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		relay:           opts.Relay,
		nonces:          opts.Nonces,
		limiter:         opts.Limiter,
		telemetry:       opts.Telemetry,
		logger:          opts.Logger.With("component", "httpapi"),
		maxBodyBytes:    opts.HTTP.MaxBodyBytes,
		waitTimeout:     opts.WaitTimeout,
		shutdownTimeout: opts.HTTP.ShutdownTimeout,
		trustProxy:      opts.HTTP.TrustProxy,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(opts.HTTP.RelayPath, s.handleRelay)
	mux.HandleFunc("/healthz", s.handleHealth)
	if h := opts.Telemetry.Handler(); h != nil {
		mux.Handle("/metrics", answerOptions(h))
	}
	mux.HandleFunc("/", s.handleFallback)

	s.httpServer = &http.Server{
		Addr:              opts.HTTP.Addr,
		Handler:           withCORSHeaders(newCORS().Handler(mux)),
		ReadHeaderTimeout: opts.HTTP.ReadHeaderTimeout,
	}
	return s, nil
}

// Handler is the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is done and then shuts down gracefully. Requests already
// in the queue keep being processed by the queue after shutdown.
func (s *Server) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay http listening", "operation", "http.listen", "addr", s.httpServer.Addr)
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

type nopTelemetry struct{}

func (nopTelemetry) RateLimited()          {}
func (nopTelemetry) HTTPResponse(int)      {}
func (nopTelemetry) Handler() http.Handler { return nil }
