package evm

import (
	"errors"
	"strings"
)

var (
	ErrChainIDMismatch = errors.New("rpc chain id does not match configured chain id")
	ErrInvalidKey      = errors.New("invalid relayer private key")
)

// Node and client phrasings for "this nonce is already taken".
// "already known" is deliberately absent: it means our own transaction is
// already pending, and retrying it under a fresh nonce would duplicate it.
var staleNoncePhrases = []string{
	"nonce too low",
	"nonce is too low",
	"nonce has already been used",
	"lower than the current nonce",
	"replacement transaction underpriced",
}

// IsStaleNonce reports whether err is a node rejection caused by a used nonce.
// RPC errors arrive as plain text, so this matches on the message.
func IsStaleNonce(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range staleNoncePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
