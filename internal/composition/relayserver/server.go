// Package relayserver wires configuration, the chain submitter, the relay
// queue and the HTTP transport into one runnable service.
package relayserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"game-relayer/go-backend/internal/adapters/httpapi"
	"game-relayer/go-backend/internal/chain/evm"
	"game-relayer/go-backend/internal/domains/relay"
	"game-relayer/go-backend/internal/platform/config"
	"game-relayer/go-backend/internal/platform/logging"
	"game-relayer/go-backend/internal/platform/metrics"
	"game-relayer/go-backend/internal/platform/ratelimiter"
)

type Service struct {
	cfg     config.Config
	logger  *slog.Logger
	module  *relay.Module
	metrics *metrics.Relay
	limiter *ratelimiter.MapLimiter
	http    *httpapi.Server
	closer  func()
}

// NewFromConfig loads configuration, dials the RPC endpoint and builds the service.
// A non-empty httpAddr overrides the configured listen address.
func NewFromConfig(ctx context.Context, configPath, httpAddr string, logOut io.Writer) (*Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if addr := strings.TrimSpace(httpAddr); addr != "" {
		cfg.HTTP.Addr = addr
	}
	logger := logging.New(cfg.Log, logOut)

	key, err := evm.ParsePrivateKey(cfg.Chain.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: RELAYER_PK: %v", config.ErrConfiguration, err)
	}
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	submitter, err := evm.Dial(dialCtx, cfg.Chain.RPCURL, evm.Config{
		ChainID:          cfg.Chain.ChainID,
		Contract:         cfg.Chain.Contract(),
		Key:              key,
		GasLimit:         cfg.Chain.GasLimit,
		GasMarginPercent: cfg.Chain.GasMarginPercent,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("relayer account ready",
		"component", "relayserver",
		"operation", "startup",
		"relayer_address", submitter.Address().Hex(),
		"contract_address", cfg.Chain.Contract().Hex(),
		"chain_id", cfg.Chain.ChainID,
	)

	svc, err := Build(cfg, logger, submitter)
	if err != nil {
		submitter.Close()
		return nil, err
	}
	svc.closer = submitter.Close
	return svc, nil
}

// Build assembles the service around an already constructed submitter.
func Build(cfg config.Config, logger *slog.Logger, submitter relay.ChainSubmitter) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.New()
	module, err := relay.NewModule(relay.ModuleOptions{
		Submitter:     submitter,
		Observer:      m,
		Logger:        logger,
		SubmitTimeout: cfg.Queue.SubmitTimeout,
	})
	if err != nil {
		return nil, err
	}
	var limiter *ratelimiter.MapLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimiter.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	}
	srv, err := httpapi.NewServer(httpapi.Options{
		HTTP:        cfg.HTTP,
		WaitTimeout: cfg.Queue.WaitTimeout,
		Relay:       module.Queue,
		Nonces:      module.Nonces,
		Limiter:     limiter,
		Telemetry:   m,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:     cfg,
		logger:  logger,
		module:  module,
		metrics: m,
		limiter: limiter,
		http:    srv,
	}, nil
}

func (s *Service) HTTP() *httpapi.Server {
	return s.http
}

func (s *Service) Module() *relay.Module {
	return s.module
}

// Run serves HTTP until ctx is done, then lets queued requests reach a
// terminal outcome before releasing the RPC connection.
func (s *Service) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweepLimiter(sweepCtx, s.cfg.RateLimit.IdleTTL)

	err := s.http.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout+s.cfg.Queue.SubmitTimeout)
	defer cancel()
	if waitErr := s.module.Queue.WaitIdle(drainCtx); waitErr != nil {
		s.logger.Warn("relay queue not drained before shutdown",
			"component", "relayserver",
			"operation", "shutdown",
			"queue_depth", s.module.Queue.Len(),
			"error", waitErr,
		)
	}
	if s.closer != nil {
		s.closer()
	}
	return err
}

// sweepLimiter evicts idle client buckets every interval. Allow only sweeps
// while traffic keeps arriving.
func (s *Service) sweepLimiter(ctx context.Context, every time.Duration) {
	if s.limiter == nil || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			before := s.limiter.Len()
			s.limiter.Sweep(now)
			if after := s.limiter.Len(); after != before {
				s.logger.Debug("rate limiter swept",
					"component", "relayserver",
					"operation", "ratelimit.sweep",
					"evicted", before-after,
					"tracked_clients", after,
				)
			}
		}
	}
}
