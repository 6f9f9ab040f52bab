package evm

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsStaleNonce(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("nonce too low"), true},
		{errors.New("Nonce too low: next nonce 9, tx nonce 3"), true},
		{fmt.Errorf("send transaction: %w", errors.New("replacement transaction underpriced")), true},
		{errors.New("Nonce provided for the transaction is lower than the current nonce of the account"), true},
		{errors.New("already known"), false},
		{errors.New("insufficient funds for gas * price + value"), false},
		{errors.New("execution reverted"), false},
	}
	for _, tc := range cases {
		if got := IsStaleNonce(tc.err); got != tc.want {
			t.Fatalf("IsStaleNonce(%v): got %v, want %v", tc.err, got, tc.want)
		}
	}
}
