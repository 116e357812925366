package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// Client talks to one EVM JSON-RPC endpoint.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

// Dial connects to url. HTTP endpoints are not contacted until the first call.
func Dial(ctx context.Context, url string) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "connecting to RPC endpoint", err)
	}
	return &Client{rpc: rc, eth: ethclient.NewClient(rc)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "eth_chainId", err)
	}
	return id, nil
}

// VerifyChainID fails when the endpoint serves a different chain than want.
func (c *Client) VerifyChainID(ctx context.Context, want int64) error {
	got, err := c.ChainID(ctx)
	if err != nil {
		return err
	}
	if !got.IsInt64() || got.Int64() != want {
		return clierr.Newf(clierr.CodeNetwork, "RPC endpoint serves chain id %s, expected %d", got, want)
	}
	return nil
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "eth_call", err)
	}
	return out, nil
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gas, err := c.eth.EstimateGas(ctx, msg)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeNetwork, "eth_estimateGas", err)
	}
	return gas, nil
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "eth_gasPrice", err)
	}
	return price, nil
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "eth_getBalance", err)
	}
	return bal, nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeNetwork, "eth_getTransactionCount", err)
	}
	return nonce, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return clierr.Wrap(clierr.CodeNetwork, "eth_sendRawTransaction", err)
	}
	return nil
}

type rpcReceipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	Status      hexutil.Uint64 `json:"status"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
}

// TransactionReceipt fetches only the receipt fields that are reported, so
// nodes returning partial receipts still work.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var raw *rpcReceipt
	if err := c.rpc.CallContext(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "eth_getTransactionReceipt", err)
	}
	if raw == nil {
		return nil, nil
	}
	return &Receipt{
		TxHash:      raw.TxHash,
		Status:      uint64(raw.Status),
		BlockNumber: uint64(raw.BlockNumber),
		GasUsed:     uint64(raw.GasUsed),
	}, nil
}
