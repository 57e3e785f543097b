// Package verify implements the on-chain payment verification algorithm:
// given a parsed payment proof, fetch its transaction receipt and scan its
// logs for a qualifying USDC Transfer to the configured recipient.
package verify

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/justin-graham/Tachi-sub009/internal/chain"
	"github.com/justin-graham/Tachi-sub009/internal/gatewayerr"
	"github.com/justin-graham/Tachi-sub009/internal/kvs"
)

// transferTopic is the Keccak256 of Transfer(address,address,uint256),
// precomputed once like the teacher's EIP-712 type hashes — a topic match
// is a byte comparison, never a runtime hash recomputation.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Requirements is the subset of GatewayConfig the verifier needs.
type Requirements struct {
	USDCAddress             string
	PaymentProcessorAddress string
	PriceBaseUnits          *big.Int
}

// VerifiedPayment is the result of a successful verification: the payer,
// amount, and block it was confirmed in.
type VerifiedPayment struct {
	TxHash          string
	PayerAddress    string
	AmountBaseUnits *big.Int
	BlockNumber     uint64
}

// replayTTL is how long a consumed transaction hash is remembered.
const replayTTL = 24 * time.Hour

// verifyDeadline bounds the whole verification attempt, including retries,
// per §5's 5s verification sub-budget.
const verifyDeadline = 5 * time.Second

// Verify runs steps 2-7 of the algorithm of §4.5 against proof; step 1, the
// txHash shape check, has already been done by ParseProof. It does not
// perform replay-guard insertion itself (see internal/replay) — the
// pre-check in step 2 here is read-only, a fast-path rejection before the
// more expensive chain call.
func Verify(ctx context.Context, store kvs.KVS, client chain.Client, req Requirements, proof *Proof) (*VerifiedPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, verifyDeadline)
	defer cancel()

	// Step 2: replay pre-check (cheap, avoids an RPC round trip for a hash
	// we already know is spent). The authoritative replay rejection still
	// happens via the atomic insert in internal/replay after this returns.
	exists, err := store.Exists(ctx, "tx:"+proof.TxHash)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.KindUpstreamUnavailable, "replay pre-check failed", err)
	}
	if exists {
		return nil, gatewayerr.New(gatewayerr.KindReplay, "transaction hash already consumed")
	}

	// Step 3: receipt fetch (retry/backoff handled inside chain.Client).
	receipt, err := client.TransactionReceipt(ctx, proof.TxHash)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.KindUpstreamUnavailable, "receipt fetch failed", err)
	}
	if receipt == nil {
		return nil, gatewayerr.New(gatewayerr.KindNotFound, "no receipt for transaction hash")
	}
	if receipt.Status != 1 {
		return nil, gatewayerr.New(gatewayerr.KindTxFailed, "transaction reverted")
	}

	// Steps 4-6: log scan.
	payment := scanForTransfer(receipt, req)
	if payment == nil {
		return nil, gatewayerr.New(gatewayerr.KindInsufficientOrWrongRecipient, "no qualifying Transfer log found")
	}
	payment.TxHash = proof.TxHash
	payment.BlockNumber = receipt.BlockNumber

	// Step 7: declared amount is advisory-only; it may only be checked for
	// equality against the authoritative on-chain value, never used to
	// widen what counts as sufficient payment.
	if proof.DeclaredAmount != "" {
		declared, ok := new(big.Int).SetString(proof.DeclaredAmount, 10)
		if !ok || declared.Cmp(payment.AmountBaseUnits) != 0 {
			return nil, gatewayerr.New(gatewayerr.KindMalformedProof, "declared amount does not match on-chain transfer value")
		}
	}

	return payment, nil
}

// scanForTransfer iterates receipt.Logs looking for the first log that
// satisfies all four conditions of §4.5 step 4. Address comparisons are
// case-insensitive per §9 — chain addresses are never compared with EIP-55
// mixed-case equality.
func scanForTransfer(receipt *chain.Receipt, req Requirements) *VerifiedPayment {
	usdc := strings.ToLower(req.USDCAddress)
	recipient := strings.ToLower(req.PaymentProcessorAddress)

	for _, log := range receipt.Logs {
		if !strings.EqualFold(log.Address.Hex(), usdc) {
			continue
		}
		if len(log.Topics) < 3 || log.Topics[0] != transferTopic {
			continue
		}

		to := common.HexToAddress(log.Topics[2].Hex())
		if !strings.EqualFold(to.Hex(), recipient) {
			continue
		}

		value := new(big.Int).SetBytes(log.Data)
		if value.Cmp(req.PriceBaseUnits) < 0 {
			continue
		}

		from := common.HexToAddress(log.Topics[1].Hex())
		return &VerifiedPayment{
			PayerAddress:    strings.ToLower(from.Hex()),
			AmountBaseUnits: value,
		}
	}
	return nil
}
