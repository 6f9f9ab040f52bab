package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// Request is a caller-submitted unit of relay work. It is never mutated after enqueue.
type Request struct {
	Subject string
	Action  string
	Score   *uint64
}

// Call is a translated request: the operation and payload that are signed and submitted.
// A retry after a nonce conflict reuses the same Call.
type Call struct {
	Action    Action
	Operation Operation
	Subject   common.Address
	Score     uint64
}

// Result is the terminal outcome of a request: a transaction hash or an error.
type Result struct {
	TxHash string
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// ScoreOf returns a pointer to v, for building requests that carry a score.
func ScoreOf(v uint64) *uint64 {
	return &v
}
