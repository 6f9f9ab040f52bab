package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
	relaypolicy "game-relayer/go-backend/internal/domains/relay/policy"
	"game-relayer/go-backend/internal/domains/relay/ports"
)

var ErrQueueMisconfigured = errors.New("relay queue requires a submitter and a nonce allocator")

type Options struct {
	Submitter ports.ChainSubmitter
	Nonces    ports.NonceAllocator
	Observer  ports.Observer
	Logger    *slog.Logger
	// SubmitTimeout bounds each nonce query and each submission. Zero means no bound.
	SubmitTimeout time.Duration
}

type entry struct {
	req        relaymodel.Request
	pending    *Pending
	enqueuedAt time.Time
}

// Queue serializes relay requests into a single ordered stream of submissions.
//
// Any number of goroutines may Enqueue. At most one consumer runs at a time;
// it is started by Drain and exits once the queue is empty.
type Queue struct {
	submitter     ports.ChainSubmitter
	nonces        ports.NonceAllocator
	observer      ports.Observer
	logger        *slog.Logger
	submitTimeout time.Duration

	mu       sync.Mutex
	entries  []*entry
	seq      uint64
	draining bool
	idle     *sync.Cond
}

func NewQueue(opts Options) (*Queue, error) {
	if opts.Submitter == nil || opts.Nonces == nil {
		return nil, ErrQueueMisconfigured
	}
	if opts.Observer == nil {
		opts.Observer = ports.NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	q := &Queue{
		submitter:     opts.Submitter,
		nonces:        opts.Nonces,
		observer:      opts.Observer,
		logger:        opts.Logger,
		submitTimeout: opts.SubmitTimeout,
	}
	q.idle = sync.NewCond(&q.mu)
	return q, nil
}

// Enqueue appends req to the tail of the queue and triggers a drain.
func (q *Queue) Enqueue(req relaymodel.Request) *Pending {
	q.mu.Lock()
	q.seq++
	p := newPending("relay_"+uuid.NewString(), q.seq)
	q.entries = append(q.entries, &entry{req: req, pending: p, enqueuedAt: time.Now()})
	depth := len(q.entries)
	// Depth is reported under the lock so it is ordered with pop's reports.
	q.observer.QueueDepth(depth)
	q.mu.Unlock()

	q.logInfo("enqueue", p.id, "relay request queued", "action", req.Action, "seq", p.seq, "depth", depth)
	q.Drain()
	return p
}

// Drain starts the consumer unless one is already running. Safe to call redundantly.
func (q *Queue) Drain() {
	q.mu.Lock()
	if q.draining || len(q.entries) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()
	go q.run()
}

// Len reports the number of requests waiting to be processed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// WaitIdle blocks until the queue is empty and no consumer is running, or ctx is done.
func (q *Queue) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.idle.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.draining || len(q.entries) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.idle.Wait()
	}
	return nil
}

func (q *Queue) run() {
	for {
		e, ok := q.pop()
		if !ok {
			return
		}
		result := q.process(e)
		e.pending.resolve(result)
	}
}

// pop removes the head entry. On an empty queue it clears the draining flag
// under the same lock, so a concurrent Enqueue always starts a new consumer.
func (q *Queue) pop() (*entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		q.draining = false
		q.idle.Broadcast()
		return nil, false
	}
	e := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	q.observer.QueueDepth(len(q.entries))
	return e, true
}

func (q *Queue) process(e *entry) (result relaymodel.Result) {
	id := e.pending.id
	defer func() {
		if r := recover(); r != nil {
			result = relaymodel.Result{Err: relaymodel.NewSubmissionError(e.req.Action, fmt.Errorf("submitter panic: %v", r))}
			q.nonces.Invalidate()
		}
		q.complete(e, result)
	}()

	call, err := relaypolicy.Translate(e.req)
	if err != nil {
		return relaymodel.Result{Err: err}
	}

	txHash, err := q.attempt(id, call, false)
	if err == nil {
		return relaymodel.Result{TxHash: txHash}
	}
	if !q.submitter.IsStaleNonce(err) {
		q.nonces.Invalidate()
		return relaymodel.Result{Err: relaymodel.NewSubmissionError(e.req.Action, err)}
	}

	q.observer.NonceConflict()
	q.logWarn("nonce_conflict", id, "stale nonce, refreshing and retrying once", "error", err.Error())
	if err := q.refresh(); err != nil {
		return relaymodel.Result{Err: relaymodel.NewSubmissionError(e.req.Action, fmt.Errorf("refresh nonce: %w", err))}
	}

	txHash, err = q.attempt(id, call, true)
	if err == nil {
		return relaymodel.Result{TxHash: txHash}
	}
	q.nonces.Invalidate()
	if q.submitter.IsStaleNonce(err) {
		err = fmt.Errorf("%w after refresh: %w", relaymodel.ErrNonceConflict, err)
	}
	return relaymodel.Result{Err: relaymodel.NewSubmissionError(e.req.Action, err)}
}

// attempt allocates a nonce and submits call with it.
func (q *Queue) attempt(id string, call relaymodel.Call, retry bool) (string, error) {
	ctx, cancel := q.attemptContext()
	defer cancel()

	nonce, err := q.nonces.Allocate(ctx)
	if err != nil {
		return "", fmt.Errorf("allocate nonce: %w", err)
	}
	q.observer.SubmissionAttempt(call.Operation, retry)
	q.logInfo("submit", id, "submitting relay transaction",
		"chain_operation", string(call.Operation),
		"subject", call.Subject.Hex(),
		"nonce", nonce,
		"retry", retry,
	)
	return q.submitter.Submit(ctx, call, nonce)
}

func (q *Queue) refresh() error {
	ctx, cancel := q.attemptContext()
	defer cancel()
	_, err := q.nonces.Refresh(ctx)
	return err
}

func (q *Queue) attemptContext() (context.Context, context.CancelFunc) {
	if q.submitTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), q.submitTimeout)
}

func (q *Queue) complete(e *entry, result relaymodel.Result) {
	elapsed := time.Since(e.enqueuedAt)
	id := e.pending.id
	action := actionLabel(e.req.Action)
	switch {
	case result.Err == nil:
		q.observer.RequestCompleted(action, ports.OutcomeSuccess, elapsed)
		q.logInfo("complete", id, "relay transaction submitted", "tx_hash", result.TxHash, "latency_ms", elapsed.Milliseconds())
	case relaymodel.IsValidation(result.Err):
		q.observer.RequestCompleted(action, ports.OutcomeValidationError, elapsed)
		q.logWarn("complete", id, "relay request rejected", "error", result.Err.Error())
	default:
		q.observer.RequestCompleted(action, ports.OutcomeSubmissionError, elapsed)
		q.logError("complete", id, "relay submission failed", result.Err, "latency_ms", elapsed.Milliseconds())
	}
}

// actionLabel keeps caller-controlled strings out of metric labels.
func actionLabel(raw string) string {
	if action, ok := relaymodel.ParseAction(raw); ok {
		return action.String()
	}
	return "unknown"
}
