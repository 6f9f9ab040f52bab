package evm

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

type fakeBackend struct {
	baseFee  *big.Int
	estimate uint64
	sendErr  error
	pending  uint64

	mu        sync.Mutex
	sent      []*types.Transaction
	estimates []ethereum.CallMsg
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(10143), nil }

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.pending, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(50_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	f.estimates = append(f.estimates, msg)
	f.mu.Unlock()
	return f.estimate, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, tx)
	f.mu.Unlock()
	return nil
}

var testContract = common.HexToAddress("0x00000000000000000000000000000000000c0ffe")
var testPlayer = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func newTestSubmitter(t *testing.T, backend *fakeBackend, gasLimit uint64) *Submitter {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s, err := New(backend, Config{ChainID: 10143, Contract: testContract, Key: key, GasLimit: gasLimit, GasMarginPercent: 20})
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}
	return s
}

func TestSubmitSignsDynamicFeeClick(t *testing.T) {
	backend := &fakeBackend{baseFee: big.NewInt(1_000_000_000), estimate: 50_000}
	s := newTestSubmitter(t, backend, 0)

	hash, err := s.Submit(context.Background(), relaymodel.Call{
		Operation: relaymodel.OperationIncrementCounter,
		Subject:   testPlayer,
	}, 12)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected one sent transaction, got %d", len(backend.sent))
	}
	tx := backend.sent[0]
	if hash != tx.Hash().Hex() {
		t.Fatalf("hash mismatch: got=%s want=%s", hash, tx.Hash().Hex())
	}
	if tx.Type() != types.DynamicFeeTxType {
		t.Fatalf("expected dynamic fee tx, got type %d", tx.Type())
	}
	if tx.Nonce() != 12 {
		t.Fatalf("unexpected nonce: %d", tx.Nonce())
	}
	if tx.To() == nil || *tx.To() != testContract {
		t.Fatalf("unexpected recipient: %v", tx.To())
	}
	if tx.Gas() != 60_000 {
		t.Fatalf("expected estimate plus 20%% margin, got %d", tx.Gas())
	}
	if want := big.NewInt(4_000_000_000); tx.GasFeeCap().Cmp(want) != 0 {
		t.Fatalf("unexpected fee cap: got=%s want=%s", tx.GasFeeCap(), want)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(10143)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != s.Address() {
		t.Fatalf("unexpected signer: got=%s want=%s", sender.Hex(), s.Address().Hex())
	}

	method := s.abi.Methods[methodClick]
	if !bytes.HasPrefix(tx.Data(), method.ID) {
		t.Fatal("calldata does not target click")
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	if got := args[0].(common.Address); got != testPlayer {
		t.Fatalf("unexpected player arg: %s", got.Hex())
	}
	if len(backend.estimates) != 1 || backend.estimates[0].From != s.Address() {
		t.Fatalf("expected gas estimate from relayer account, got %+v", backend.estimates)
	}
}

func TestSubmitLegacyScoreWithFixedGas(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestSubmitter(t, backend, 90_000)

	if _, err := s.Submit(context.Background(), relaymodel.Call{
		Operation: relaymodel.OperationRecordScore,
		Subject:   testPlayer,
		Score:     1337,
	}, 0); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	tx := backend.sent[0]
	if tx.Type() != types.LegacyTxType {
		t.Fatalf("expected legacy tx, got type %d", tx.Type())
	}
	if tx.Gas() != 90_000 {
		t.Fatalf("expected fixed gas limit, got %d", tx.Gas())
	}
	if len(backend.estimates) != 0 {
		t.Fatal("fixed gas limit must skip estimation")
	}
	method := s.abi.Methods[methodSubmitScore]
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	if score := args[0].(*big.Int); score.Uint64() != 1337 {
		t.Fatalf("unexpected score arg: %s", score)
	}
	if player := args[1].(common.Address); player != testPlayer {
		t.Fatalf("unexpected player arg: %s", player.Hex())
	}
}

func TestSubmitWrapsSendError(t *testing.T) {
	rejected := errors.New("nonce too low: next nonce 4, tx nonce 2")
	s := newTestSubmitter(t, &fakeBackend{sendErr: rejected}, 21_000)
	_, err := s.Submit(context.Background(), relaymodel.Call{Operation: relaymodel.OperationIncrementCounter, Subject: testPlayer}, 2)
	if !errors.Is(err, rejected) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
	if !s.IsStaleNonce(err) {
		t.Fatal("wrapped nonce error must still classify as stale")
	}
}

func TestPendingNonceUsesRelayerAddress(t *testing.T) {
	s := newTestSubmitter(t, &fakeBackend{pending: 41}, 0)
	n, err := s.PendingNonce(context.Background())
	if err != nil || n != 41 {
		t.Fatalf("unexpected pending nonce %d err=%v", n, err)
	}
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := common.Bytes2Hex(crypto.FromECDSA(key))
	for _, in := range []string{raw, "0x" + raw, "  0x" + raw + "\n"} {
		parsed, err := ParsePrivateKey(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if crypto.PubkeyToAddress(parsed.PublicKey) != crypto.PubkeyToAddress(key.PublicKey) {
			t.Fatal("parsed key mismatch")
		}
	}
	if _, err := ParsePrivateKey("not-a-key"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNewRejectsMissingKey(t *testing.T) {
	if _, err := New(&fakeBackend{}, Config{ChainID: 1}); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
