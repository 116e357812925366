// Package allowance finds ERC-20 tokens among call arguments and makes sure
// the spender is authorized to move the required amount before a
// transaction is sent.
package allowance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	"github.com/Mohsinsiddi/w3invoke/internal/contract"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
)

// MaxUint256 is the unlimited approval amount.
var MaxUint256 = new(uint256.Int).SetAllOne().ToBig()

// Check is a token position read fresh from the chain.
type Check struct {
	Token     common.Address
	Spender   common.Address
	Owner     common.Address
	Required  *big.Int
	Allowance *big.Int
	Balance   *big.Int
	Symbol    string
	Decimals  uint8
}

func (c *Check) format(amount *big.Int) string {
	return chain.FormatUnits(amount, int32(c.Decimals)) + " " + c.Symbol
}

// Pair links a detected token to the amount a call will move.
type Pair struct {
	Token    common.Address
	Required *big.Int
}

// Resolver reconciles token allowances with the call about to be made.
type Resolver struct {
	Backend  chain.Backend
	Signer   chain.TxSigner
	ChainID  *big.Int
	Prompter ui.Prompter
	Console  *ui.Console
	Wait     chain.WaitOptions
	Log      *zap.Logger
}

// Resolve checks every detected token/amount pair for fn's arguments against
// spender, owned by the signer. Insufficient balance is always returned. A
// failed or short approval is an allowance error. Read failures only warn.
func (r *Resolver) Resolve(ctx context.Context, fn contract.ABIEntry, args []codec.Value, spender common.Address) error {
	owner := r.Signer.Address()
	for _, p := range r.Detect(ctx, fn, args) {
		if err := r.reconcile(ctx, p, spender, owner); err != nil {
			return err
		}
	}
	return nil
}

// Detect scans inputs left to right. Each address argument that answers
// decimals() is a token, paired with the first later integer argument.
func (r *Resolver) Detect(ctx context.Context, fn contract.ABIEntry, args []codec.Value) []Pair {
	var pairs []Pair
	n := min(len(fn.Inputs), len(args))
	for i := 0; i < n; i++ {
		if codec.ParseTypeTag(fn.Inputs[i].Type).Kind != codec.KindAddress {
			continue
		}
		s, ok := args[i].(codec.StringValue)
		if !ok || !common.IsHexAddress(string(s)) {
			continue
		}
		token := common.HexToAddress(string(s))
		if !r.isToken(ctx, token) {
			continue
		}
		for j := i + 1; j < n; j++ {
			iv, ok := args[j].(codec.IntValue)
			if ok && codec.ParseTypeTag(fn.Inputs[j].Type).IsInteger() {
				pairs = append(pairs, Pair{Token: token, Required: iv.V})
				break
			}
		}
	}
	return pairs
}

func (r *Resolver) isToken(ctx context.Context, addr common.Address) bool {
	_, err := call(ctx, r.Backend, addr, "decimals")
	if err != nil {
		r.logger().Debug("not a token", zap.String("address", addr.Hex()), zap.Error(err))
		return false
	}
	return true
}

// Read fetches balance, allowance, decimals and symbol concurrently.
func (r *Resolver) Read(ctx context.Context, p Pair, spender, owner common.Address) (*Check, error) {
	c := &Check{Token: p.Token, Spender: spender, Owner: owner, Required: p.Required}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := call(gctx, r.Backend, p.Token, "balanceOf", owner)
		if err != nil {
			return fmt.Errorf("balanceOf: %w", err)
		}
		c.Balance = v.(*big.Int)
		return nil
	})
	g.Go(func() error {
		v, err := call(gctx, r.Backend, p.Token, "allowance", owner, spender)
		if err != nil {
			return fmt.Errorf("allowance: %w", err)
		}
		c.Allowance = v.(*big.Int)
		return nil
	})
	g.Go(func() error {
		v, err := call(gctx, r.Backend, p.Token, "decimals")
		if err != nil {
			return fmt.Errorf("decimals: %w", err)
		}
		c.Decimals = v.(uint8)
		return nil
	})
	g.Go(func() error {
		v, err := call(gctx, r.Backend, p.Token, "symbol")
		if err != nil {
			return fmt.Errorf("symbol: %w", err)
		}
		c.Symbol = v.(string)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Resolver) reconcile(ctx context.Context, p Pair, spender, owner common.Address) error {
	c, err := r.Read(ctx, p, spender, owner)
	if err != nil {
		r.Console.Warning("Could not check allowance for %s: %v", p.Token.Hex(), err)
		r.Console.Warning("This might not be an ERC20 token or there might be a network issue.")
		return nil
	}

	r.Console.Info("Token: %s (%s)", c.Symbol, c.Token.Hex())
	r.Console.Info("Your balance: %s", c.format(c.Balance))
	r.Console.Info("Required amount: %s", c.format(c.Required))
	r.Console.Info("Current allowance: %s", c.format(c.Allowance))

	if c.Balance.Cmp(c.Required) < 0 {
		r.Console.Error("Insufficient %s balance. You need %s but only have %s", c.Symbol, c.format(c.Required), c.format(c.Balance))
		return clierr.Newf(clierr.CodeInsufficientBalance, "insufficient %s balance", c.Symbol)
	}

	if c.Allowance.Cmp(c.Required) >= 0 {
		r.Console.Success("Sufficient allowance: %s >= %s", c.format(c.Allowance), c.format(c.Required))
		return nil
	}

	r.Console.Warning("Insufficient allowance for %s. Need to approve %s for contract %s", c.Symbol, c.format(c.Required), spender.Hex())
	r.Console.Println("Allowance options:")
	r.Console.Println(fmt.Sprintf("1) Approve exact amount (%s)", c.format(c.Required)))
	r.Console.Println("2) Approve unlimited amount (saves gas on future transactions)")
	r.Console.Println("3) Skip approval (transaction will likely fail)")

	choice, err := ui.Choose(r.Prompter, r.Console.Writer(), "Choose approval option", 3)
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return r.approve(ctx, c, c.Required)
	case 2:
		return r.approve(ctx, c, MaxUint256)
	default:
		r.Console.Warning("Skipping approval. Transaction may fail due to insufficient allowance.")
		return nil
	}
}

func (r *Resolver) approve(ctx context.Context, c *Check, amount *big.Int) error {
	label := c.format(amount)
	if amount.Cmp(MaxUint256) == 0 {
		label = "unlimited " + c.Symbol
	}
	r.Console.Info("Approving %s for %s...", label, c.Spender.Hex())

	data, err := erc20ABI.Pack("approve", c.Spender, amount)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "pack approval calldata", err)
	}
	quote, err := chain.QuoteGas(ctx, r.Backend, ethereum.CallMsg{From: c.Owner, To: &c.Token, Data: data})
	if err != nil {
		return clierr.Wrap(clierr.CodeAllowance, "approval failed", err)
	}
	r.logger().Debug("approval gas quote", zap.Uint64("limit", quote.Limit), zap.String("price", quote.Price.String()))

	tx, err := (&chain.Transactor{Backend: r.Backend, Signer: r.Signer, ChainID: r.ChainID}).Send(ctx, chain.TxRequest{
		To:   c.Token,
		Data: data,
		Gas:  quote,
	})
	if err != nil {
		return clierr.Wrap(clierr.CodeAllowance, "approval failed", err)
	}
	r.Console.Info("Approval transaction sent: %s", tx.Hash().Hex())

	stop := r.Console.Wait("Waiting for approval confirmation...")
	receipt, err := chain.WaitMined(ctx, r.Backend, tx.Hash(), r.Wait)
	stop()
	if err != nil {
		return clierr.Wrap(clierr.CodeAllowance, "approval failed", err)
	}
	r.Console.Success("Approval confirmed in block: %d", receipt.BlockNumber)

	v, err := call(ctx, r.Backend, c.Token, "allowance", c.Owner, c.Spender)
	if err != nil {
		return clierr.Wrap(clierr.CodeAllowance, "re-reading allowance", err)
	}
	updated := v.(*big.Int)
	if updated.Cmp(MaxUint256) == 0 {
		r.Console.Success("New allowance: unlimited %s", c.Symbol)
	} else {
		r.Console.Success("New allowance: %s", c.format(updated))
	}
	if updated.Cmp(c.Required) < 0 {
		return clierr.Newf(clierr.CodeAllowance, "allowance for %s is still %s after approval, need %s",
			c.Symbol, c.format(updated), c.format(c.Required))
	}
	return nil
}

func (r *Resolver) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
