package relay

import (
	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

type Action = relaymodel.Action
type Operation = relaymodel.Operation
type Request = relaymodel.Request
type Call = relaymodel.Call
type Result = relaymodel.Result
type RelayError = relaymodel.RelayError

const (
	ActionIncrement         = relaymodel.ActionIncrement
	ActionSubmitScore       = relaymodel.ActionSubmitScore
	ActionCompositeGameOver = relaymodel.ActionCompositeGameOver
	ActionPowerupAlias      = relaymodel.ActionPowerupAlias
)

const (
	OperationIncrementCounter = relaymodel.OperationIncrementCounter
	OperationRecordScore      = relaymodel.OperationRecordScore
)

var (
	ErrValidation     = relaymodel.ErrValidation
	ErrNonceConflict  = relaymodel.ErrNonceConflict
	ErrSubmission     = relaymodel.ErrSubmission
	ErrUnknownAction  = relaymodel.ErrUnknownAction
	ErrMissingScore   = relaymodel.ErrMissingScore
	ErrInvalidSubject = relaymodel.ErrInvalidSubject
)

func ParseAction(raw string) (Action, bool) {
	return relaymodel.ParseAction(raw)
}

func ScoreOf(v uint64) *uint64 {
	return relaymodel.ScoreOf(v)
}
