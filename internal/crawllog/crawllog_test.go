package crawllog

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/justin-graham/Tachi-sub009/internal/chain"
	"github.com/justin-graham/Tachi-sub009/internal/signer"
)

func testSigner(t *testing.T) *signer.Signer {
	t.Helper()
	s, err := signer.New("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB", big.NewInt(8453))
	if err != nil {
		t.Fatalf("signer.New: %v", err)
	}
	return s
}

func TestEnqueueSubmitsSuccessfully(t *testing.T) {
	sg := testSigner(t)
	f := chain.NewFake()
	l := New(sg, f, nil, 10)

	l.Enqueue(Job{
		RequestID: "r1",
		TokenID:   big.NewInt(7),
		Crawler:   common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
		UserAgent: "GPTBot/1.0",
		Timestamp: time.Now().Unix(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	l.Drain(ctx)

	if len(f.Sent) != 1 {
		t.Fatalf("expected 1 submitted transaction, got %d", len(f.Sent))
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	sg := testSigner(t)
	f := chain.NewFake()
	l := &Logger{jobs: make(chan Job), signer: sg, client: f, done: make(chan struct{})}
	// No worker goroutine consuming, and an unbuffered channel: Enqueue
	// must not block even though nothing will ever receive.
	l.Enqueue(Job{RequestID: "dropped"})
}
