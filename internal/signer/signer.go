// Package signer holds the gateway's private key and builds/signs the
// logCrawl transactions the crawl logger submits. The nonce is the only
// mutable shared state in the gateway; access is serialized with a short-
// held lock, the pattern §5 calls for.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/justin-graham/Tachi-sub009/internal/chain"
)

// logCrawlSig is the 4-byte selector for
// logCrawl(uint256,address,string,uint256).
var logCrawlSig = crypto.Keccak256([]byte("logCrawl(uint256,address,string,uint256)"))[:4]

// Signer signs and submits logCrawl transactions against the configured
// ProofOfCrawlLedger contract.
type Signer struct {
	key        *ecdsa.PrivateKey
	address    common.Address
	ledgerAddr common.Address
	chainID    *big.Int

	mu sync.Mutex // serializes nonce acquisition across concurrent crawl-log submissions
}

// New builds a Signer from a hex-encoded private key.
func New(privateKeyHex, ledgerAddress string, chainID *big.Int) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer: invalid private key: %w", err)
	}
	return &Signer{
		key:        key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		ledgerAddr: common.HexToAddress(ledgerAddress),
		chainID:    chainID,
	}, nil
}

// Address returns the gateway's signing address.
func (s *Signer) Address() common.Address { return s.address }

// SubmitLogCrawl builds, signs, and sends a logCrawl(tokenId, crawler,
// userAgent, timestamp) transaction. The nonce is refreshed from the chain
// immediately before each call (under the lock) so concurrent submissions
// or a retried attempt never reuse a stale nonce.
func (s *Signer) SubmitLogCrawl(ctx context.Context, c chain.Client, tokenID *big.Int, crawler common.Address, userAgent string, timestamp int64) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := c.PendingNonceAt(ctx, s.address.Hex())
	if err != nil {
		return common.Hash{}, fmt.Errorf("signer: pending nonce: %w", err)
	}

	data := packLogCrawl(tokenID, crawler, userAgent, big.NewInt(timestamp))

	gas, err := c.EstimateGas(ctx, s.address.Hex(), s.ledgerAddr.Hex(), data)
	if err != nil {
		gas = 150_000 // conservative fallback, mirrors the settlement path's estimate-with-fallback pattern
	}

	tip, feeCap, err := c.SuggestFees(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signer: suggest fees: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &s.ledgerAddr,
		Value:     new(big.Int),
		Data:      data,
	})

	signed, err := types.SignTx(tx, types.NewLondonSigner(s.chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signer: sign tx: %w", err)
	}

	if err := c.SendRawTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("signer: send tx: %w", err)
	}
	return signed.Hash(), nil
}

// packLogCrawl manually ABI-encodes logCrawl(uint256,address,string,uint256).
// The string argument makes this a dynamic-layout call: the head holds the
// three static words plus the offset to the tail, the tail holds the
// string's length-prefixed, right-padded bytes.
func packLogCrawl(tokenID *big.Int, crawler common.Address, userAgent string, timestamp *big.Int) []byte {
	uaBytes := []byte(userAgent)
	uaWords := (len(uaBytes) + 31) / 32

	head := make([]byte, 4*32) // selector slot is separate; 4 head words follow it
	copy(head[0:32], pad32(tokenID))
	copy(head[44:64], crawler.Bytes())
	copy(head[64:96], pad32(big.NewInt(int64(4*32)))) // byte offset of the string tail from the start of the head
	copy(head[96:128], pad32(timestamp))

	tail := make([]byte, 32+uaWords*32)
	copy(tail[0:32], pad32(big.NewInt(int64(len(uaBytes)))))
	copy(tail[32:32+len(uaBytes)], uaBytes)

	out := make([]byte, 0, 4+len(head)+len(tail))
	out = append(out, logCrawlSig...)
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

func pad32(n *big.Int) []byte {
	b := n.Bytes()
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}
