package ports

import (
	"context"
	"time"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

// ChainSubmitter signs and sends relay calls from the single relayer account.
type ChainSubmitter interface {
	// Submit sends call with the given nonce and returns the transaction hash.
	Submit(ctx context.Context, call relaymodel.Call, nonce uint64) (string, error)
	// PendingNonce returns the relayer account's pending transaction count.
	PendingNonce(ctx context.Context) (uint64, error)
	// IsStaleNonce reports whether a Submit error means the nonce was already used.
	IsStaleNonce(err error) bool
}

// NonceAllocator is the queue's view of the nonce tracker.
type NonceAllocator interface {
	Allocate(ctx context.Context) (uint64, error)
	Refresh(ctx context.Context) (uint64, error)
	Invalidate()
}

// Outcome labels used by observers.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeSubmissionError = "submission_error"
)

// Observer receives queue events. Implementations must not block.
type Observer interface {
	QueueDepth(depth int)
	SubmissionAttempt(operation relaymodel.Operation, retry bool)
	NonceConflict()
	RequestCompleted(action, outcome string, elapsed time.Duration)
}

type NopObserver struct{}

func (NopObserver) QueueDepth(int) {}
func (NopObserver) SubmissionAttempt(relaymodel.Operation, bool) {}
func (NopObserver) NonceConflict() {}
func (NopObserver) RequestCompleted(string, string, time.Duration) {}
