package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"golang.org/x/sync/errgroup"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// GasQuote is the gas limit and price a transaction is submitted with.
type GasQuote struct {
	Limit uint64
	Price *big.Int
}

// Fee returns limit * price in wei.
func (q *GasQuote) Fee() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(q.Limit), q.Price)
}

// QuoteGas estimates gas for msg and fetches the current gas price
// concurrently. An estimation failure is reported as a gas estimation error,
// since it almost always means the call would revert.
func QuoteGas(ctx context.Context, b Backend, msg ethereum.CallMsg) (*GasQuote, error) {
	var q GasQuote
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limit, err := b.EstimateGas(gctx, msg)
		if err != nil {
			return clierr.Wrap(clierr.CodeGasEstimation, "gas estimation failed", err)
		}
		q.Limit = limit
		return nil
	})
	g.Go(func() error {
		price, err := b.SuggestGasPrice(gctx)
		if err != nil {
			return clierr.Wrap(clierr.CodeNetwork, "fetching gas price", err)
		}
		q.Price = price
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &q, nil
}
