package execution

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

	"github.com/Mohsinsiddi/w3invoke/internal/allowance"
	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	"github.com/Mohsinsiddi/w3invoke/internal/chain/chaintest"
	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	"github.com/Mohsinsiddi/w3invoke/internal/contract"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	vaultAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	plainAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

type gateFunc func(ctx context.Context, fn contract.ABIEntry, args []codec.Value, spender common.Address) error

func (f gateFunc) Resolve(ctx context.Context, fn contract.ABIEntry, args []codec.Value, spender common.Address) error {
	return f(ctx, fn, args, spender)
}

type harness struct {
	backend *chaintest.Backend
	signer  *chaintest.Signer
	token   *chaintest.Token
	out     *bytes.Buffer
	engine  *Engine
}

func newHarness(input string) *harness {
	b := chaintest.NewBackend()
	s := chaintest.NewSigner()
	tok := b.AddToken(tokenAddr, chaintest.NewToken("USDC", 6))
	tok.Balances[s.Address()] = big.NewInt(100)
	b.NativeBalances[s.Address()] = big.NewInt(2_000_000_000_000_000_000)

	out := &bytes.Buffer{}
	prompter := ui.NewLinePrompter(strings.NewReader(input), out)
	console := ui.NewConsole(out, out, false)
	network, _ := chain.NewRegistry().GetByName("base")

	h := &harness{backend: b, signer: s, token: tok, out: out}
	h.engine = &Engine{
		Backend:  b,
		Signer:   s,
		ChainID:  chaintest.ChainID,
		Network:  network,
		Prompter: prompter,
		Console:  console,
		Allowance: &allowance.Resolver{
			Backend:  b,
			Signer:   s,
			ChainID:  chaintest.ChainID,
			Prompter: prompter,
			Console:  console,
		},
	}
	return h
}

func sig(t *testing.T, s string) contract.ABIEntry {
	t.Helper()
	fn, err := contract.ParseSignature(s)
	require.NoError(t, err)
	return fn
}

func intArg(n int64) codec.Value { return codec.IntValue{V: big.NewInt(n)} }

func addrArg(a common.Address) codec.Value { return codec.StringValue(a.Hex()) }

// ---------------------------------------------------------------------------
// Read-only functions
// ---------------------------------------------------------------------------

func TestViewCall(t *testing.T) {
	h := newHarness("1\n")
	out, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "balanceOf(address owner) view returns (uint256)"),
		Args:     []codec.Value{addrArg(h.signer.Address())},
		Contract: tokenAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, Called, out.Kind)
	assert.Equal(t, []string{"100"}, out.Result)
	assert.Empty(t, h.backend.Sent)

	text := h.out.String()
	assert.Contains(t, text, "Transaction Summary")
	assert.Contains(t, text, "Base")
	assert.Contains(t, text, "balanceOf(address)")
	assert.Contains(t, text, "This is a view function")
	assert.Contains(t, text, "Call successful!")
	assert.NotContains(t, text, "Proceed with transaction?")
}

func TestViewCallWithoutOutputsShowsRawHex(t *testing.T) {
	h := newHarness("1\n")
	h.backend.Results[plainAddr] = []byte{0xde, 0xad}
	out, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "peek() view"),
		Contract: plainAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0xdead"}, out.Result)
}

func TestViewCallFailure(t *testing.T) {
	h := newHarness("1\n")
	h.backend.CallErr = errors.New("execution reverted: paused")
	_, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "peek() view"), Contract: plainAddr})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeNetwork))
	assert.Contains(t, h.out.String(), "Revert reason: paused")
}

func TestViewSentAnyway(t *testing.T) {
	h := newHarness("2\ny\n")
	out, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "peek() view"), Contract: plainAddr})
	require.NoError(t, err)
	assert.Equal(t, Submitted, out.Kind)
	require.Len(t, h.backend.Sent, 1)
	assert.Equal(t, out.TxHash, h.backend.Sent[0].Hash())
}

func TestViewMenuReasks(t *testing.T) {
	h := newHarness("3\n1\n")
	h.backend.Results[plainAddr] = []byte{}
	out, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "peek() view"), Contract: plainAddr})
	require.NoError(t, err)
	assert.Equal(t, Called, out.Kind)
	assert.Contains(t, h.out.String(), "between 1 and 2")
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func TestDeclineConfirmation(t *testing.T) {
	for _, answer := range []string{"n", "", "no", "nope"} {
		h := newHarness(answer + "\n")
		out, err := h.engine.Execute(context.Background(), Request{
			Fn:       sig(t, "poke(uint256)"),
			Args:     []codec.Value{intArg(1)},
			Contract: plainAddr,
		})
		require.NoError(t, err, answer)
		assert.Equal(t, Declined, out.Kind, answer)
		assert.Empty(t, h.backend.Sent, answer)
		assert.Empty(t, h.backend.Estimates, answer)
		assert.Contains(t, h.out.String(), "Transaction cancelled")
	}
}

func TestTransactionSubmitted(t *testing.T) {
	h := newHarness("y\n")
	out, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "poke(uint256)"),
		Args:     []codec.Value{intArg(7)},
		Contract: plainAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, Submitted, out.Kind)
	assert.Equal(t, uint64(52_000), out.GasUsed)
	assert.NotZero(t, out.BlockNumber)

	require.Len(t, h.backend.Sent, 1)
	tx := h.backend.Sent[0]
	assert.Equal(t, plainAddr, *tx.To())
	assert.Equal(t, uint64(65_000), tx.Gas())
	assert.Equal(t, int64(1_000_000_000), tx.GasPrice().Int64())

	text := h.out.String()
	assert.Contains(t, text, "Estimated gas: 65000")
	assert.Contains(t, text, "Gas price: 1 gwei")
	assert.Contains(t, text, "Transaction confirmed in block")
	assert.Contains(t, text, "basescan.org/tx/"+out.TxHash.Hex())
}

func TestApprovalBeforeTransfer(t *testing.T) {
	h := newHarness("y\n1\n")
	h.token.SetAllowance(h.signer.Address(), vaultAddr, big.NewInt(30))

	out, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "deposit(address token, uint256 amount)"),
		Args:     []codec.Value{addrArg(tokenAddr), intArg(50)},
		Contract: vaultAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, Submitted, out.Kind)

	require.Len(t, h.backend.Sent, 2)
	assert.Equal(t, tokenAddr, *h.backend.Sent[0].To(), "approval first")
	assert.Equal(t, vaultAddr, *h.backend.Sent[1].To())
	assert.Equal(t, int64(50), h.token.Allowances[h.signer.Address()][vaultAddr].Int64())
	assert.Contains(t, h.out.String(), "Token allowance check completed successfully.")
}

func TestInsufficientBalanceAborts(t *testing.T) {
	h := newHarness("y\n")
	_, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "deposit(address,uint256)"),
		Args:     []codec.Value{addrArg(tokenAddr), intArg(500)},
		Contract: vaultAddr,
	})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeInsufficientBalance))
	assert.Empty(t, h.backend.Sent)
	assert.NotContains(t, h.out.String(), "proceed anyway")
}

func TestAllowanceFailureOverride(t *testing.T) {
	failing := gateFunc(func(context.Context, contract.ABIEntry, []codec.Value, common.Address) error {
		return clierr.New(clierr.CodeAllowance, "approval failed")
	})

	h := newHarness("y\nn\n")
	h.engine.Allowance = failing
	out, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "poke()"), Contract: plainAddr})
	require.NoError(t, err)
	assert.Equal(t, Declined, out.Kind)
	assert.Empty(t, h.backend.Sent)
	assert.Contains(t, h.out.String(), "Transaction cancelled due to allowance issues.")

	h = newHarness("y\nyes\n")
	h.engine.Allowance = failing
	out, err = h.engine.Execute(context.Background(), Request{Fn: sig(t, "poke()"), Contract: plainAddr})
	require.NoError(t, err)
	assert.Equal(t, Submitted, out.Kind)
	assert.Contains(t, h.out.String(), "Proceeding without proper allowances.")
}

func TestGasEstimationFailureDiagnostics(t *testing.T) {
	h := newHarness("y\n")
	h.backend.EstimateErr = errors.New("execution reverted: Ownable: caller is not the owner")

	_, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "poke(uint256)"),
		Args:     []codec.Value{intArg(7)},
		Contract: plainAddr,
	})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeGasEstimation))
	assert.Empty(t, h.backend.Sent)

	text := h.out.String()
	assert.Contains(t, text, "Gas estimation failed")
	assert.Contains(t, text, "Transaction Debug Info")
	assert.Contains(t, text, "Ownable: caller is not the owner")
	assert.Contains(t, text, h.signer.Address().Hex())
	assert.Contains(t, text, "2 ETH")
	assert.Contains(t, text, "Common causes:")
}

func TestGasPriceFailure(t *testing.T) {
	h := newHarness("y\n")
	h.backend.GasPriceErr = errors.New("connection refused")
	_, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "poke()"), Contract: plainAddr})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeNetwork))
	assert.NotContains(t, h.out.String(), "Transaction Debug Info")
}

func TestBroadcastFailure(t *testing.T) {
	h := newHarness("y\n")
	h.backend.SendErr = errors.New("insufficient funds for gas * price + value")
	_, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "poke()"), Contract: plainAddr})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeNetwork))
}

func TestRevertedReceipt(t *testing.T) {
	h := newHarness("y\n")
	h.backend.RevertAll = true
	_, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "poke()"), Contract: plainAddr})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeNetwork))
	assert.Contains(t, err.Error(), h.backend.Sent[0].Hash().Hex())
}

func TestPayableValueAttached(t *testing.T) {
	h := newHarness("y\n")
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	out, err := h.engine.Execute(context.Background(), Request{
		Fn:       sig(t, "deposit() payable"),
		Contract: plainAddr,
		Value:    oneEther,
	})
	require.NoError(t, err)
	assert.Equal(t, Submitted, out.Kind)
	assert.Equal(t, 0, h.backend.Sent[0].Value().Cmp(oneEther))
	assert.Equal(t, 0, h.backend.Estimates[0].Value.Cmp(oneEther))
	assert.Contains(t, h.out.String(), "1 ETH")
}

func TestArgumentCountMismatch(t *testing.T) {
	h := newHarness("y\n")
	_, err := h.engine.Execute(context.Background(), Request{Fn: sig(t, "poke(uint256)"), Contract: plainAddr})
	require.Error(t, err)
	assert.True(t, clierr.Is(err, clierr.CodeInternal))
	assert.Empty(t, h.out.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "declined", (&Outcome{Kind: Declined}).String())
	assert.Equal(t, "called [1 2]", (&Outcome{Kind: Called, Result: []string{"1", "2"}}).String())
}
