package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Client wraps go-ethereum RPC and provides the node reads the decorator
// pipeline needs.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// Dial connects to the primary endpoint and probes it with eth_blockNumber;
// on failure it falls back to the secondary endpoint.
func Dial(ctx context.Context, primary, fallback string, logger *zap.Logger) (*Client, error) {
	client, err := dialOne(ctx, primary)
	if err == nil {
		if _, probeErr := client.ethClient.BlockNumber(ctx); probeErr == nil {
			return client, nil
		} else {
			err = probeErr
			client.Close()
		}
	}

	if fallback == "" {
		return nil, fmt.Errorf("dial %s: %w", primary, err)
	}

	if logger != nil {
		logger.Warn("primary rpc failed, switching to fallback",
			zap.String("primary", primary),
			zap.String("fallback", fallback),
			zap.Error(err))
	}

	client, err = dialOne(ctx, fallback)
	if err != nil {
		return nil, fmt.Errorf("dial fallback %s: %w", fallback, err)
	}
	return client, nil
}

func dialOne(ctx context.Context, url string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// TransactionByHash returns the raw transaction, or nil when the node does
// not know the hash.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var tx *Transaction
	if err := c.rpcClient.CallContext(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionByHash: %w", err)
	}
	return tx, nil
}

// TransactionReceipt returns the raw receipt, or nil while the transaction
// is unmined.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var receipt *Receipt
	if err := c.rpcClient.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
	}
	return receipt, nil
}

// BlockHeaderByNumber fetches a block without transaction bodies.
func (c *Client) BlockHeaderByNumber(ctx context.Context, number *big.Int) (*BlockHeader, error) {
	var header *BlockHeader
	if err := c.rpcClient.CallContext(ctx, &header, "eth_getBlockByNumber", toBlockArg(number), false); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber: %w", err)
	}
	return header, nil
}

// BlockWithTxs fetches a block with full transaction bodies.
func (c *Client) BlockWithTxs(ctx context.Context, number *big.Int) (*Block, error) {
	var block *Block
	if err := c.rpcClient.CallContext(ctx, &block, "eth_getBlockByNumber", toBlockArg(number), true); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber: %w", err)
	}
	return block, nil
}

// CallContract performs an eth_call against the given block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// TraceTransaction runs debug_traceTransaction with the call tracer.
// Nodes without the debug namespace return an error the caller is expected
// to swallow.
func (c *Client) TraceTransaction(ctx context.Context, hash common.Hash) (*CallFrame, error) {
	var frame *CallFrame
	params := map[string]string{"tracer": "callTracer"}
	if err := c.rpcClient.CallContext(ctx, &frame, "debug_traceTransaction", hash, params); err != nil {
		return nil, fmt.Errorf("debug_traceTransaction: %w", err)
	}
	return frame, nil
}

func toBlockArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}
