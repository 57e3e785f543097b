package replay

import (
	"context"
	"sync"
	"testing"

	"github.com/justin-graham/Tachi-sub009/internal/kvs"
)

func TestClaimFirstWinsSecondLoses(t *testing.T) {
	g := New(kvs.NewMemory())
	ctx := context.Background()

	ok, err := g.Claim(ctx, "0xabc")
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = g.Claim(ctx, "0xabc")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Fatal("second claim on the same hash should have failed")
	}
}

func TestClaimConcurrentExactlyOneWinner(t *testing.T) {
	g := New(kvs.NewMemory())
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	wins := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, _ := g.Claim(ctx, "0xshared")
			wins[i] = ok
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly 1 winner, got %d", count)
	}
}
