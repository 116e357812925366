package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// DefaultPollInterval matches typical block times on the supported networks.
const DefaultPollInterval = 2 * time.Second

// WaitOptions control receipt polling. A zero Timeout waits without limit.
type WaitOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// WaitMined polls until the transaction has one confirmation. A reverted
// receipt is returned together with a network error.
func WaitMined(ctx context.Context, b Backend, hash common.Hash, opts WaitOptions) (*Receipt, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if !receipt.Succeeded() {
				return receipt, clierr.Newf(clierr.CodeNetwork, "transaction reverted (hash: %s)", hash.Hex())
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, clierr.Wrap(clierr.CodeNetwork, "transaction "+hash.Hex()+" not mined", ctx.Err())
		case <-ticker.C:
		}
	}
}
