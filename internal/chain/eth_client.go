package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// receiptBackoff implements §4.5's retry schedule for getTransactionReceipt:
// an initial attempt plus up to 3 retries, waiting 250ms/500ms/1s before
// them, with the overall deadline enforced by the caller's context.
var receiptBackoff = []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second}

// EthClient is the real Client, backed by go-ethereum's ethclient.
type EthClient struct {
	rpc *ethclient.Client
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*EthClient, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	return &EthClient{rpc: c}, nil
}

func (c *EthClient) Close() { c.rpc.Close() }

// TransactionReceipt fetches a receipt with the retry/backoff schedule
// §4.5 requires. A "not found" condition (go-ethereum returns
// ethereum.NotFound) is not retried and yields (nil, nil) immediately.
func (c *EthClient) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	hash := common.HexToHash(txHash)

	var lastErr error
	for attempt := 0; attempt < len(receiptBackoff)+1; attempt++ {
		r, err := c.rpc.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return &Receipt{
				Status:      r.Status,
				BlockNumber: r.BlockNumber.Uint64(),
				Logs:        r.Logs,
			}, nil
		case err == ethereum.NotFound:
			return nil, nil
		default:
			lastErr = err
		}

		if attempt < len(receiptBackoff) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(receiptBackoff[attempt]):
			}
		}
	}
	return nil, fmt.Errorf("chain: receipt fetch exhausted retries: %w", lastErr)
}

func (c *EthClient) BlockNumber(ctx context.Context) (uint64, error) {
	return c.rpc.BlockNumber(ctx)
}

func (c *EthClient) PendingNonceAt(ctx context.Context, addr string) (uint64, error) {
	return c.rpc.PendingNonceAt(ctx, common.HexToAddress(addr))
}

func (c *EthClient) SuggestFees(ctx context.Context) (*big.Int, *big.Int, error) {
	header, err := c.rpc.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("chain: latest header: %w", err)
	}
	tip := big.NewInt(1e9) // 1 gwei priority fee, same as the local facilitator's default
	feeCap := new(big.Int).Add(header.BaseFee, tip)
	return tip, feeCap, nil
}

func (c *EthClient) EstimateGas(ctx context.Context, from, to string, data []byte) (uint64, error) {
	toAddr := common.HexToAddress(to)
	gas, err := c.rpc.EstimateGas(ctx, ethereum.CallMsg{
		From: common.HexToAddress(from),
		To:   &toAddr,
		Data: data,
	})
	if err != nil {
		return 0, err
	}
	return gas * 12 / 10, nil // 20% buffer, matching the local facilitator's estimate
}

func (c *EthClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.rpc.ChainID(ctx)
}

func (c *EthClient) SendRawTransaction(ctx context.Context, signed *types.Transaction) error {
	return c.rpc.SendTransaction(ctx, signed)
}
