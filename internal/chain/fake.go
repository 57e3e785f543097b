package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// Fake is an in-memory Client used by verifier and handler tests. Receipts
// are registered ahead of time by the test; TransactionReceipt simply looks
// them up.
type Fake struct {
	Receipts map[string]*Receipt
	Nonce    uint64
	Block    uint64
	Sent     []*types.Transaction

	// FailReceipt, when set, is returned as an error from every
	// TransactionReceipt call regardless of Receipts, to exercise the
	// retry/UpstreamUnavailable path.
	FailReceipt error
}

// NewFake returns an empty Fake chain client.
func NewFake() *Fake {
	return &Fake{Receipts: make(map[string]*Receipt)}
}

func (f *Fake) TransactionReceipt(_ context.Context, txHash string) (*Receipt, error) {
	if f.FailReceipt != nil {
		return nil, f.FailReceipt
	}
	return f.Receipts[txHash], nil
}

func (f *Fake) BlockNumber(context.Context) (uint64, error) { return f.Block, nil }

func (f *Fake) PendingNonceAt(context.Context, string) (uint64, error) { return f.Nonce, nil }

func (f *Fake) SuggestFees(context.Context) (*big.Int, *big.Int, error) {
	return big.NewInt(1e9), big.NewInt(2e9), nil
}

func (f *Fake) EstimateGas(context.Context, string, string, []byte) (uint64, error) {
	return 100_000, nil
}

func (f *Fake) ChainID(context.Context) (*big.Int, error) { return big.NewInt(8453), nil }

func (f *Fake) SendRawTransaction(_ context.Context, tx *types.Transaction) error {
	f.Sent = append(f.Sent, tx)
	f.Nonce++
	return nil
}
