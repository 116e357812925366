// Package chaintest provides an in-memory chain.Backend with programmable
// ERC-20 tokens for exercising the invocation flow without a node.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mohsinsiddi/w3invoke/internal/chain"
)

const tokenABI = `[
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
 {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
 {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"uint256"}]},
 {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]}
]`

// ChainID is the default chain id a Backend verifies signatures against.
var ChainID = big.NewInt(31337)

// ErrReverted is what calls into unknown code fail with.
var ErrReverted = errors.New("execution reverted")

var parsedTokenABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// Token is a simulated ERC-20 contract.
type Token struct {
	Symbol     string
	Decimals   uint8
	Balances   map[common.Address]*big.Int
	Allowances map[common.Address]map[common.Address]*big.Int
	// Fail makes the named read (e.g. "symbol") return the given error.
	Fail map[string]error
}

// NewToken returns a token with empty state.
func NewToken(symbol string, decimals uint8) *Token {
	return &Token{
		Symbol:     symbol,
		Decimals:   decimals,
		Balances:   map[common.Address]*big.Int{},
		Allowances: map[common.Address]map[common.Address]*big.Int{},
		Fail:       map[string]error{},
	}
}

// SetAllowance records owner's allowance for spender.
func (t *Token) SetAllowance(owner, spender common.Address, amount *big.Int) {
	if t.Allowances[owner] == nil {
		t.Allowances[owner] = map[common.Address]*big.Int{}
	}
	t.Allowances[owner][spender] = amount
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	if a := t.Allowances[owner][spender]; a != nil {
		return a
	}
	return new(big.Int)
}

func (t *Token) balance(owner common.Address) *big.Int {
	if b := t.Balances[owner]; b != nil {
		return b
	}
	return new(big.Int)
}

// Backend is an in-memory chain.Backend. Transactions are mined as soon as
// they are sent.
type Backend struct {
	mu sync.Mutex

	Tokens         map[common.Address]*Token
	NativeBalances map[common.Address]*big.Int
	// Results holds canned eth_call return data for non-token contracts.
	Results map[common.Address][]byte

	// ChainID is what signatures are verified against.
	ChainID  *big.Int
	GasLimit uint64
	GasPrice *big.Int

	CallErr     error
	EstimateErr error
	GasPriceErr error
	BalanceErr  error
	SendErr     error
	// IgnoreApprovals leaves allowances untouched when approve is mined.
	IgnoreApprovals bool
	// RevertAll mines every transaction with a failed status.
	RevertAll bool

	Calls     []ethereum.CallMsg
	Estimates []ethereum.CallMsg
	Sent      []*types.Transaction

	receipts map[common.Hash]*chain.Receipt
	nonces   map[common.Address]uint64
	block    uint64
}

var _ chain.Backend = (*Backend)(nil)

// NewBackend returns an empty chain with a 1 gwei gas price.
func NewBackend() *Backend {
	return &Backend{
		Tokens:         map[common.Address]*Token{},
		NativeBalances: map[common.Address]*big.Int{},
		Results:        map[common.Address][]byte{},
		ChainID:        ChainID,
		GasLimit:       65_000,
		GasPrice:       big.NewInt(1_000_000_000),
		receipts:       map[common.Hash]*chain.Receipt{},
		nonces:         map[common.Address]uint64{},
		block:          100,
	}
}

// AddToken deploys tok at addr.
func (b *Backend) AddToken(addr common.Address, tok *Token) *Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Tokens[addr] = tok
	return tok
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, msg)
	if b.CallErr != nil {
		return nil, b.CallErr
	}
	if msg.To == nil {
		return nil, ErrReverted
	}
	tok, ok := b.Tokens[*msg.To]
	if !ok {
		if out, ok := b.Results[*msg.To]; ok {
			return out, nil
		}
		return nil, ErrReverted
	}
	return tok.call(msg.Data)
}

func (t *Token) call(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrReverted
	}
	method, err := parsedTokenABI.MethodById(data[:4])
	if err != nil {
		return nil, ErrReverted
	}
	if err := t.Fail[method.Name]; err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, ErrReverted
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(t.Decimals)
	case "symbol":
		return method.Outputs.Pack(t.Symbol)
	case "balanceOf":
		return method.Outputs.Pack(t.balance(args[0].(common.Address)))
	case "allowance":
		return method.Outputs.Pack(t.allowance(args[0].(common.Address), args[1].(common.Address)))
	}
	return nil, ErrReverted
}

func (b *Backend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Estimates = append(b.Estimates, msg)
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return b.GasLimit, nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	if b.GasPriceErr != nil {
		return nil, b.GasPriceErr
	}
	return new(big.Int).Set(b.GasPrice), nil
}

func (b *Backend) BalanceAt(_ context.Context, account common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.BalanceErr != nil {
		return nil, b.BalanceErr
	}
	if bal := b.NativeBalances[account]; bal != nil {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

// SendTransaction validates the signature and nonce, applies approve calls to
// token state and mines the transaction immediately.
func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return b.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(b.ChainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonces[from])
	}
	b.nonces[from]++
	b.Sent = append(b.Sent, tx)

	status := types.ReceiptStatusSuccessful
	if b.RevertAll {
		status = types.ReceiptStatusFailed
	} else if tok, ok := b.Tokens[*tx.To()]; ok && !b.IgnoreApprovals {
		if method, err := parsedTokenABI.MethodById(tx.Data()[:min(4, len(tx.Data()))]); err == nil && method.Name == "approve" {
			args, err := method.Inputs.Unpack(tx.Data()[4:])
			if err == nil {
				tok.SetAllowance(from, args[0].(common.Address), args[1].(*big.Int))
			}
		}
	}

	b.block++
	b.receipts[tx.Hash()] = &chain.Receipt{
		TxHash:      tx.Hash(),
		Status:      status,
		BlockNumber: b.block,
		GasUsed:     tx.Gas() * 8 / 10,
	}
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*chain.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receipts[hash], nil
}

// SentTo returns the transactions sent to addr, in order.
func (b *Backend) SentTo(addr common.Address) []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*types.Transaction
	for _, tx := range b.Sent {
		if tx.To() != nil && *tx.To() == addr {
			out = append(out, tx)
		}
	}
	return out
}

// Signer is a throwaway key that satisfies chain.TxSigner.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner generates a fresh key.
func NewSigner() *Signer {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Signer{key: key}
}

func (s *Signer) Address() common.Address { return crypto.PubkeyToAddress(s.key.PublicKey) }

func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
