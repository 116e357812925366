// Package execution runs a resolved contract function either as a read-only
// call or as a signed transaction, with operator confirmation, an allowance
// gate and diagnostics when gas estimation fails.
package execution

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	"github.com/Mohsinsiddi/w3invoke/internal/contract"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
)

// Kind says how an invocation ended.
type Kind int

const (
	Called Kind = iota + 1
	Submitted
	Declined
)

func (k Kind) String() string {
	switch k {
	case Called:
		return "called"
	case Submitted:
		return "submitted"
	case Declined:
		return "declined"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Outcome is the result of a successful invocation. Failures are errors.
type Outcome struct {
	Kind        Kind
	Result      []string
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// Request is one invocation of a resolved function.
type Request struct {
	Fn       contract.ABIEntry
	Args     []codec.Value
	Contract common.Address
	// Value is the native amount in wei attached to payable calls.
	Value *big.Int
}

// AllowanceGate is consulted before any transaction is sent.
type AllowanceGate interface {
	Resolve(ctx context.Context, fn contract.ABIEntry, args []codec.Value, spender common.Address) error
}

// Engine executes requests against one network with one signing account.
type Engine struct {
	Backend   chain.Backend
	Signer    chain.TxSigner
	ChainID   *big.Int
	Network   *chain.Network
	Codec     codec.Codec
	Allowance AllowanceGate // optional
	Prompter  ui.Prompter
	Console   *ui.Console
	Wait      chain.WaitOptions
	Log       *zap.Logger
}

// Execute shows the summary, then calls or submits according to the
// function's mutability and the operator's answers.
func (e *Engine) Execute(ctx context.Context, req Request) (*Outcome, error) {
	data, err := contract.PackWith(e.Codec, req.Fn, req.Args)
	if err != nil {
		return nil, err
	}
	e.logger().Debug("packed calldata",
		zap.String("function", req.Fn.Signature()),
		zap.String("selector", req.Fn.Selector()),
		zap.Int("bytes", len(data)))

	e.Console.Block("Transaction Summary", e.summary(req))

	if req.Fn.IsReadFunction() {
		e.Console.Println("This is a view function. Would you like to:")
		e.Console.Println("1) Call it (no gas cost, read-only)")
		e.Console.Println("2) Send as transaction anyway")
		choice, err := ui.Choose(e.Prompter, e.Console.Writer(), "Choose option", 2)
		if err != nil {
			return nil, err
		}
		if choice == 1 {
			return e.call(ctx, req, data)
		}
	}

	ok, err := ui.Confirm(e.Prompter, "Proceed with transaction?")
	if err != nil {
		return nil, err
	}
	if !ok {
		e.Console.Info("Transaction cancelled")
		return &Outcome{Kind: Declined}, nil
	}

	if proceed, err := e.checkAllowances(ctx, req); err != nil || !proceed {
		if err != nil {
			return nil, err
		}
		return &Outcome{Kind: Declined}, nil
	}

	return e.transact(ctx, req, data)
}

func (e *Engine) summary(req Request) [][2]string {
	network := "unknown"
	if e.Network != nil {
		network = e.Network.DisplayName
	}
	pairs := [][2]string{
		{"Network", network},
		{"Contract", req.Contract.Hex()},
		{"Function", req.Fn.Signature()},
		{"State Mutability", req.Fn.Mutability()},
		{"Parameters", codec.Decode(codec.SequenceValue(req.Args))},
	}
	if req.Fn.IsPayable() {
		pairs = append(pairs, [2]string{"Value", e.formatNative(req.Value)})
	}
	return pairs
}

func (e *Engine) formatNative(wei *big.Int) string {
	symbol := "ETH"
	if e.Network != nil && e.Network.NativeCurrency != "" {
		symbol = e.Network.NativeCurrency
	}
	return chain.FormatEther(wei) + " " + symbol
}

// checkAllowances runs the allowance gate. Insufficient balance aborts; any
// other failure lets the operator decide whether to continue.
func (e *Engine) checkAllowances(ctx context.Context, req Request) (bool, error) {
	if e.Allowance == nil {
		return true, nil
	}
	e.Console.Info("Checking token allowances...")
	err := e.Allowance.Resolve(ctx, req.Fn, req.Args, req.Contract)
	if err == nil {
		e.Console.Success("Token allowance check completed successfully.")
		return true, nil
	}
	if clierr.Is(err, clierr.CodeInsufficientBalance) {
		return false, err
	}

	e.Console.Error("Token allowance check failed: %v", err)
	ok, askErr := ui.Confirm(e.Prompter, "Would you like to proceed anyway?")
	if askErr != nil {
		return false, askErr
	}
	if !ok {
		e.Console.Info("Transaction cancelled due to allowance issues.")
		return false, nil
	}
	e.Console.Warning("Proceeding without proper allowances. Transaction may fail.")
	return true, nil
}

func (e *Engine) msg(req Request, data []byte) ethereum.CallMsg {
	to := req.Contract
	return ethereum.CallMsg{From: e.Signer.Address(), To: &to, Data: data, Value: req.Value}
}

func (e *Engine) call(ctx context.Context, req Request, data []byte) (*Outcome, error) {
	e.Console.Info("Calling view function...")
	out, err := e.Backend.CallContract(ctx, e.msg(req, data))
	if err != nil {
		e.Console.Error("Call failed: %v", err)
		if reason := chain.RevertReason(err); reason != "" {
			e.Console.Error("Revert reason: %s", reason)
		}
		return nil, asNetwork("call failed", err)
	}
	result, err := contract.UnpackResults(req.Fn, out)
	if err != nil {
		return nil, err
	}
	e.Console.Success("Call successful!")
	return &Outcome{Kind: Called, Result: result}, nil
}

func (e *Engine) transact(ctx context.Context, req Request, data []byte) (*Outcome, error) {
	e.Console.Info("Estimating gas...")
	quote, err := chain.QuoteGas(ctx, e.Backend, e.msg(req, data))
	if err != nil {
		if clierr.Is(err, clierr.CodeGasEstimation) {
			e.diagnose(ctx, req, err)
		}
		return nil, err
	}
	e.Console.Info("Estimated gas: %d", quote.Limit)
	e.Console.Info("Gas price: %s gwei", chain.WeiToGwei(quote.Price))
	e.logger().Debug("gas quote", zap.Uint64("limit", quote.Limit), zap.String("fee_wei", quote.Fee().String()))

	e.Console.Info("Sending transaction...")
	tx, err := (&chain.Transactor{Backend: e.Backend, Signer: e.Signer, ChainID: e.ChainID}).Send(ctx, chain.TxRequest{
		To:    req.Contract,
		Data:  data,
		Value: req.Value,
		Gas:   quote,
	})
	if err != nil {
		return nil, asNetwork("sending transaction", err)
	}
	hash := tx.Hash()
	e.Console.Success("Transaction sent: %s", hash.Hex())
	if e.Network != nil {
		if url := e.Network.TxURL(hash.Hex()); url != "" {
			e.Console.Info("Explorer: %s", url)
		}
	}

	stop := e.Console.Wait("Waiting for confirmation...")
	receipt, err := chain.WaitMined(ctx, e.Backend, hash, e.Wait)
	stop()
	if err != nil {
		return nil, err
	}
	e.Console.Success("Transaction confirmed in block: %d", receipt.BlockNumber)
	e.Console.Success("Gas used: %d", receipt.GasUsed)

	return &Outcome{
		Kind:        Submitted,
		TxHash:      hash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}, nil
}

// diagnose prints what is known about a transaction the node refused to
// estimate. Every lookup here is best effort.
func (e *Engine) diagnose(ctx context.Context, req Request, cause error) {
	e.Console.Error("Gas estimation failed. This usually means the transaction would revert.")
	e.Console.Error("Error details: %v", cause)

	from := e.Signer.Address()
	pairs := [][2]string{
		{"Function", req.Fn.Name},
		{"Parameters", codec.Decode(codec.SequenceValue(req.Args))},
		{"From", from.Hex()},
		{"To", req.Contract.Hex()},
	}
	if reason := chain.RevertReason(cause); reason != "" {
		pairs = append(pairs, [2]string{"Revert reason", reason})
	}
	if bal, err := e.Backend.BalanceAt(ctx, from); err == nil {
		pairs = append(pairs, [2]string{"Wallet balance", e.formatNative(bal)})
	} else {
		e.logger().Debug("balance lookup failed", zap.Error(err))
		pairs = append(pairs, [2]string{"Wallet balance", "could not check wallet balance"})
	}
	e.Console.Block("Transaction Debug Info", pairs)

	e.Console.Info("Common causes:")
	for i, c := range commonCauses {
		e.Console.Info("%d. %s", i+1, c)
	}
}

var commonCauses = []string{
	"Invalid parameters (check types and values)",
	"Insufficient balance or allowance",
	"Contract state doesn't allow this operation",
	"Access control - you may not have permission",
	"Contract is paused or has restrictions",
}

func asNetwork(msg string, err error) error {
	if _, ok := clierr.As(err); ok {
		return err
	}
	return clierr.Wrap(clierr.CodeNetwork, msg, err)
}

func (e *Engine) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// String renders an outcome for logs.
func (o *Outcome) String() string {
	switch o.Kind {
	case Submitted:
		return fmt.Sprintf("%s %s block=%d gas=%d", o.Kind, o.TxHash.Hex(), o.BlockNumber, o.GasUsed)
	case Called:
		return fmt.Sprintf("%s %v", o.Kind, o.Result)
	}
	return o.Kind.String()
}
