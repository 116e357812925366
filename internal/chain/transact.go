package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// TxSigner signs transactions for a single account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// TxRequest describes a contract transaction ready for submission.
type TxRequest struct {
	To    common.Address
	Data  []byte
	Value *big.Int
	Gas   *GasQuote
}

// Transactor signs and broadcasts transactions. It never retries or bumps fees.
type Transactor struct {
	Backend Backend
	Signer  TxSigner
	ChainID *big.Int
}

// Send signs req as an EIP-155 legacy transaction at the pending nonce and
// broadcasts it.
func (t *Transactor) Send(ctx context.Context, req TxRequest) (*types.Transaction, error) {
	if req.Gas == nil || req.Gas.Price == nil {
		return nil, clierr.New(clierr.CodeInternal, "transaction submitted without a gas quote")
	}
	nonce, err := t.Backend.PendingNonceAt(ctx, t.Signer.Address())
	if err != nil {
		return nil, err
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: req.Gas.Price,
		Gas:      req.Gas.Limit,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})
	signed, err := t.Signer.SignTx(tx, t.ChainID)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "signing transaction", err)
	}
	if err := t.Backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}
