package relay

import (
	"log/slog"
	"time"

	relaynonce "game-relayer/go-backend/internal/domains/relay/nonce"
	relayports "game-relayer/go-backend/internal/domains/relay/ports"
	relayusecase "game-relayer/go-backend/internal/domains/relay/usecase"
)

type ChainSubmitter = relayports.ChainSubmitter
type Observer = relayports.Observer
type Queue = relayusecase.Queue
type Pending = relayusecase.Pending
type NonceTracker = relaynonce.Tracker

// Module owns the process-wide relay state for one signer: its nonce tracker
// and the queue that is the only consumer of it.
type Module struct {
	Nonces *NonceTracker
	Queue  *Queue
}

type ModuleOptions struct {
	Submitter     ChainSubmitter
	Observer      Observer
	Logger        *slog.Logger
	SubmitTimeout time.Duration
}

func NewModule(opts ModuleOptions) (*Module, error) {
	tracker := relaynonce.NewTracker(opts.Submitter)
	queue, err := relayusecase.NewQueue(relayusecase.Options{
		Submitter:     opts.Submitter,
		Nonces:        tracker,
		Observer:      opts.Observer,
		Logger:        opts.Logger,
		SubmitTimeout: opts.SubmitTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Module{Nonces: tracker, Queue: queue}, nil
}
