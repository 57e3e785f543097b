// Package chain wraps the Ethereum JSON-RPC calls the gateway needs: fetching
// a transaction receipt to verify a payment, and the read/write calls the
// crawl logger uses to submit a signed logCrawl transaction.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// Receipt is the subset of an Ethereum transaction receipt the verifier
// needs: whether the transaction succeeded, and the logs it emitted.
type Receipt struct {
	Status      uint64
	BlockNumber uint64
	Logs        []*types.Log
}

// Client is the capability abstraction for blockchain I/O. It has a
// {Real, InMemoryFake} split: Real dials an RPC endpoint, Fake is used in
// verifier and handler tests.
type Client interface {
	// TransactionReceipt returns nil, nil if the receipt does not exist yet.
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)

	BlockNumber(ctx context.Context) (uint64, error)

	// PendingNonceAt returns the next nonce to use for a transaction sent
	// from addr, reflecting any transactions still pending in the mempool.
	PendingNonceAt(ctx context.Context, addr string) (uint64, error)

	// SuggestFees returns the priority tip and fee cap to use for an
	// EIP-1559 transaction.
	SuggestFees(ctx context.Context) (tip, feeCap *big.Int, err error)

	EstimateGas(ctx context.Context, from, to string, data []byte) (uint64, error)

	ChainID(ctx context.Context) (*big.Int, error)

	SendRawTransaction(ctx context.Context, signed *types.Transaction) error
}
