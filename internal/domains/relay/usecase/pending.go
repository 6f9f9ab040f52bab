package usecase

import (
	"context"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

// Pending is the caller's handle on an enqueued request. Only the queue resolves it.
type Pending struct {
	id     string
	seq    uint64
	done   chan struct{}
	result relaymodel.Result
}

func newPending(id string, seq uint64) *Pending {
	return &Pending{id: id, seq: seq, done: make(chan struct{})}
}

// ID is the correlation id used in logs for this request.
func (p *Pending) ID() string {
	return p.id
}

// Seq is the arrival index; requests are submitted in increasing Seq order.
func (p *Pending) Seq() uint64 {
	return p.seq
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome if it has been resolved.
func (p *Pending) Result() (relaymodel.Result, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return relaymodel.Result{}, false
	}
}

// Wait blocks until the request is resolved or ctx is done. A cancelled ctx does
// not withdraw the request; it is still processed to a terminal outcome.
func (p *Pending) Wait(ctx context.Context) (relaymodel.Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return relaymodel.Result{}, ctx.Err()
	}
}

func (p *Pending) resolve(result relaymodel.Result) {
	p.result = result
	close(p.done)
}
