// Package evm submits relay calls to an EVM chain through go-ethereum.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

// Backend is the subset of ethclient.Client the submitter needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type Config struct {
	ChainID  int64
	Contract common.Address
	Key      *ecdsa.PrivateKey
	// GasLimit fixes the gas limit of every transaction. Zero estimates per call.
	GasLimit uint64
	// GasMarginPercent is added on top of an estimate.
	GasMarginPercent uint64
}

// Submitter signs relay calls with the relayer key and sends them to the game contract.
type Submitter struct {
	backend  Backend
	closer   func()
	contract common.Address
	abi      abi.ABI
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	signer   types.Signer
	gasLimit uint64
	margin   uint64
}

// Dial connects to rpcURL and checks that the node serves the configured chain.
func Dial(ctx context.Context, rpcURL string, cfg Config) (*Submitter, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	remote, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	if remote.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("%w: rpc=%s configured=%d", ErrChainIDMismatch, remote, cfg.ChainID)
	}
	s, err := New(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.closer = client.Close
	return s, nil
}

func New(backend Backend, cfg Config) (*Submitter, error) {
	if backend == nil {
		return nil, errors.New("evm backend is required")
	}
	if cfg.Key == nil {
		return nil, ErrInvalidKey
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("invalid chain id %d", cfg.ChainID)
	}
	parsed, err := parseGameABI()
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	chainID := big.NewInt(cfg.ChainID)
	return &Submitter{
		backend:  backend,
		contract: cfg.Contract,
		abi:      parsed,
		key:      cfg.Key,
		from:     crypto.PubkeyToAddress(cfg.Key.PublicKey),
		chainID:  chainID,
		signer:   types.LatestSignerForChainID(chainID),
		gasLimit: cfg.GasLimit,
		margin:   cfg.GasMarginPercent,
	}, nil
}

// Address is the relayer account that signs every transaction.
func (s *Submitter) Address() common.Address {
	return s.from
}

func (s *Submitter) PendingNonce(ctx context.Context) (uint64, error) {
	n, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return 0, fmt.Errorf("query pending nonce: %w", err)
	}
	return n, nil
}

func (s *Submitter) Submit(ctx context.Context, call relaymodel.Call, nonce uint64) (string, error) {
	data, err := packCall(s.abi, call)
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", call.Operation, err)
	}
	gas, err := s.gasFor(ctx, data)
	if err != nil {
		return "", err
	}
	tx, err := s.buildTx(ctx, nonce, gas, data)
	if err != nil {
		return "", err
	}
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}

func (s *Submitter) IsStaleNonce(err error) bool {
	return IsStaleNonce(err)
}

func (s *Submitter) Close() {
	if s.closer != nil {
		s.closer()
	}
}

func (s *Submitter) gasFor(ctx context.Context, data []byte) (uint64, error) {
	if s.gasLimit > 0 {
		return s.gasLimit, nil
	}
	to := s.contract
	estimate, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: s.from, To: &to, Data: data})
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return estimate + estimate*s.margin/100, nil
}

// buildTx prices an EIP-1559 transaction when the chain reports a base fee and a legacy one otherwise.
func (s *Submitter) buildTx(ctx context.Context, nonce, gas uint64, data []byte) (*types.Transaction, error) {
	to := s.contract
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch head: %w", err)
	}
	if head.BaseFee == nil {
		price, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Data:     data,
		}), nil
	}
	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip cap: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	}), nil
}

// ParsePrivateKey accepts a hex secp256k1 key with or without a 0x prefix.
func ParsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}
