package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

// GameContractABI covers the two entry points the relayer calls.
const GameContractABI = `[
	{"type":"function","name":"click","stateMutability":"nonpayable",
	 "inputs":[{"name":"_player","type":"address"}],"outputs":[]},
	{"type":"function","name":"submitScore","stateMutability":"nonpayable",
	 "inputs":[{"name":"_score","type":"uint256"},{"name":"_player","type":"address"}],"outputs":[]}
]`

const (
	methodClick       = "click"
	methodSubmitScore = "submitScore"
)

func parseGameABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(GameContractABI))
}

// packCall encodes the calldata for a translated relay call.
func packCall(contract abi.ABI, call relaymodel.Call) ([]byte, error) {
	switch call.Operation {
	case relaymodel.OperationIncrementCounter:
		return contract.Pack(methodClick, call.Subject)
	case relaymodel.OperationRecordScore:
		return contract.Pack(methodSubmitScore, new(big.Int).SetUint64(call.Score), call.Subject)
	default:
		return nil, fmt.Errorf("unsupported operation %q", call.Operation)
	}
}
