package allowance

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3invoke/internal/chain/chaintest"
	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	"github.com/Mohsinsiddi/w3invoke/internal/contract"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
)

var (
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	spenderAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	otherAddr   = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

// deposit(address token, uint256 amount)
var depositFn = contract.ABIEntry{
	Name: "deposit", Type: "function", StateMutability: "nonpayable",
	Inputs: []contract.ABIParam{{Name: "token", Type: "address"}, {Name: "amount", Type: "uint256"}},
}

type fixture struct {
	backend *chaintest.Backend
	signer  *chaintest.Signer
	token   *chaintest.Token
	out     *bytes.Buffer
}

func newFixture(balance, allow int64) *fixture {
	b := chaintest.NewBackend()
	s := chaintest.NewSigner()
	tok := b.AddToken(tokenAddr, chaintest.NewToken("USDC", 6))
	tok.Balances[s.Address()] = big.NewInt(balance)
	tok.SetAllowance(s.Address(), spenderAddr, big.NewInt(allow))
	return &fixture{backend: b, signer: s, token: tok, out: &bytes.Buffer{}}
}

func (f *fixture) resolver(input string) *Resolver {
	return &Resolver{
		Backend:  f.backend,
		Signer:   f.signer,
		ChainID:  chaintest.ChainID,
		Prompter: ui.NewLinePrompter(strings.NewReader(input), f.out),
		Console:  ui.NewConsole(f.out, f.out, false),
	}
}

func args(addr common.Address, amount int64) []codec.Value {
	return []codec.Value{codec.StringValue(addr.Hex()), codec.IntValue{V: big.NewInt(amount)}}
}

func (f *fixture) allowance() *big.Int {
	return f.token.Allowances[f.signer.Address()][spenderAddr]
}

// ---------------------------------------------------------------------------
// Detection
// ---------------------------------------------------------------------------

func TestDetectPairsTokenWithNextInteger(t *testing.T) {
	f := newFixture(100, 0)
	fn := contract.ABIEntry{Name: "swap", Type: "function", Inputs: []contract.ABIParam{
		{Name: "recipient", Type: "address"},
		{Name: "flag", Type: "bool"},
		{Name: "token", Type: "address"},
		{Name: "memo", Type: "string"},
		{Name: "amount", Type: "uint128"},
		{Name: "minOut", Type: "uint256"},
	}}
	a := []codec.Value{
		codec.StringValue(otherAddr.Hex()),
		codec.BoolValue(true),
		codec.StringValue(tokenAddr.Hex()),
		codec.StringValue("hi"),
		codec.IntValue{V: big.NewInt(7)},
		codec.IntValue{V: big.NewInt(9)},
	}

	pairs := f.resolver("").Detect(context.Background(), fn, a)
	require.Len(t, pairs, 1)
	assert.Equal(t, tokenAddr, pairs[0].Token)
	assert.Equal(t, int64(7), pairs[0].Required.Int64())
}

func TestDetectIgnoresTokenWithoutLaterAmount(t *testing.T) {
	f := newFixture(100, 0)
	fn := contract.ABIEntry{Name: "f", Type: "function", Inputs: []contract.ABIParam{
		{Name: "amount", Type: "uint256"},
		{Name: "token", Type: "address"},
	}}
	a := []codec.Value{codec.IntValue{V: big.NewInt(5)}, codec.StringValue(tokenAddr.Hex())}
	assert.Empty(t, f.resolver("").Detect(context.Background(), fn, a))
}

func TestDetectSkipsInvalidAddress(t *testing.T) {
	f := newFixture(100, 0)
	a := []codec.Value{codec.StringValue("not-an-address"), codec.IntValue{V: big.NewInt(5)}}
	assert.Empty(t, f.resolver("").Detect(context.Background(), depositFn, a))
	assert.Empty(t, f.backend.Calls, "no probe for implausible addresses")
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolveSufficientAllowance(t *testing.T) {
	f := newFixture(100, 80)
	err := f.resolver("").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.NoError(t, err)
	assert.Empty(t, f.backend.Sent)
	assert.Contains(t, f.out.String(), "Sufficient allowance: 0.00008 USDC >= 0.00005 USDC")
}

func TestResolveInsufficientBalanceIsFatal(t *testing.T) {
	f := newFixture(40, 1000)
	err := f.resolver("").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeInsufficientBalance))
	assert.Empty(t, f.backend.Sent)
	assert.NotContains(t, f.out.String(), "Allowance options")
}

func TestResolveExactApproval(t *testing.T) {
	f := newFixture(100, 30)
	err := f.resolver("1\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.NoError(t, err)

	require.Len(t, f.backend.SentTo(tokenAddr), 1, "exactly one approval")
	assert.Equal(t, int64(50), f.allowance().Int64())

	text := f.out.String()
	assert.Contains(t, text, "Choose approval option (1-3):")
	assert.Contains(t, text, "Approval confirmed in block")
	assert.Contains(t, text, "New allowance: 0.00005 USDC")

	// approval calldata targets the spender
	data := f.backend.Sent[0].Data()
	assert.Equal(t, "095ea7b3", common.Bytes2Hex(data[:4]))
}

func TestResolveUnlimitedApproval(t *testing.T) {
	f := newFixture(100, 30)
	err := f.resolver("2\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, f.allowance().Cmp(MaxUint256))
	assert.Contains(t, f.out.String(), "New allowance: unlimited USDC")
}

func TestResolveSkipApproval(t *testing.T) {
	f := newFixture(100, 30)
	err := f.resolver("3\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.NoError(t, err)
	assert.Empty(t, f.backend.Sent)
	assert.Contains(t, f.out.String(), "Skipping approval")
}

func TestResolveReasksInvalidMenuAnswer(t *testing.T) {
	f := newFixture(100, 30)
	err := f.resolver("9\nx\n3\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(f.out.String(), "between 1 and 3"))
}

func TestResolveApprovalNotReflected(t *testing.T) {
	f := newFixture(100, 30)
	f.backend.IgnoreApprovals = true
	err := f.resolver("1\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeAllowance))
	assert.Len(t, f.backend.Sent, 1)
}

func TestResolveApprovalSendFails(t *testing.T) {
	f := newFixture(100, 30)
	f.backend.SendErr = errors.New("nonce too low")
	err := f.resolver("1\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeAllowance))
}

func TestResolveApprovalReverted(t *testing.T) {
	f := newFixture(100, 30)
	f.backend.RevertAll = true
	err := f.resolver("1\n").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeAllowance))
}

func TestResolveReadFailureOnlyWarns(t *testing.T) {
	f := newFixture(100, 30)
	f.token.Fail["symbol"] = errors.New("boom")
	err := f.resolver("").Resolve(context.Background(), depositFn, args(tokenAddr, 50), spenderAddr)
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Could not check allowance")
	assert.Empty(t, f.backend.Sent)
}

func TestResolveNonTokenAddress(t *testing.T) {
	f := newFixture(100, 30)
	err := f.resolver("").Resolve(context.Background(), depositFn, args(otherAddr, 50), spenderAddr)
	require.NoError(t, err)
	assert.Empty(t, f.out.String())
}

func TestMaxUint256(t *testing.T) {
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Equal(t, 0, MaxUint256.Cmp(want))
}
