package policy

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

// Translate resolves a request into the contract call it stands for.
//
// Translation is pure and never touches the nonce: a request that fails here
// must not consume a sequence number.
//
//	increment, powerupAlias -> increment-counter(subject)
//	submitScore             -> record-score(score, subject), score required
//	compositeGameOver       -> record-score(score, subject), score defaults to 0
func Translate(req relaymodel.Request) (relaymodel.Call, error) {
	action, ok := relaymodel.ParseAction(req.Action)
	if !ok {
		return relaymodel.Call{}, relaymodel.NewValidationError(req.Action,
			fmt.Errorf("%w %q", relaymodel.ErrUnknownAction, strings.TrimSpace(req.Action)))
	}
	subject, err := ParseSubject(req.Subject)
	if err != nil {
		return relaymodel.Call{}, relaymodel.NewValidationError(req.Action, err)
	}

	call := relaymodel.Call{Action: action, Subject: subject}
	switch action {
	case relaymodel.ActionIncrement, relaymodel.ActionPowerupAlias:
		call.Operation = relaymodel.OperationIncrementCounter
	case relaymodel.ActionSubmitScore:
		if req.Score == nil {
			return relaymodel.Call{}, relaymodel.NewValidationError(req.Action,
				fmt.Errorf("%w for %s", relaymodel.ErrMissingScore, action))
		}
		call.Operation = relaymodel.OperationRecordScore
		call.Score = *req.Score
	case relaymodel.ActionCompositeGameOver:
		call.Operation = relaymodel.OperationRecordScore
		if req.Score != nil {
			call.Score = *req.Score
		}
	default:
		return relaymodel.Call{}, relaymodel.NewValidationError(req.Action, relaymodel.ErrUnknownAction)
	}
	return call, nil
}

// ParseSubject validates a 0x-prefixed or bare 20-byte hex address.
func ParseSubject(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !common.IsHexAddress(trimmed) {
		return common.Address{}, relaymodel.ErrInvalidSubject
	}
	return common.HexToAddress(trimmed), nil
}
