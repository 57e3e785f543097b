// Package replay guards against a transaction hash authorizing more than
// one protected response over the gateway's lifetime.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/justin-graham/Tachi-sub009/internal/kvs"
)

// ttl is how long a consumed hash is remembered; §6.4 fixes this at 24h.
const ttl = 24 * time.Hour

// Guard wraps the KVS with the single operation the pipeline needs:
// atomically claim a transaction hash, or learn that it was already
// claimed.
type Guard struct {
	store kvs.KVS
}

// New builds a Guard over store.
func New(store kvs.KVS) *Guard {
	return &Guard{store: store}
}

// Claim attempts to atomically insert tx:<txHash>. It returns true if this
// call is the one that claimed it (the caller may proceed to write a 2xx
// response), or false if another request already claimed it first — the
// race the KVS's SetNX resolves, never two readers both winning.
func (g *Guard) Claim(ctx context.Context, txHash string) (bool, error) {
	claimed, err := g.store.SetNX(ctx, "tx:"+txHash, fmt.Sprintf("%d", time.Now().Unix()), ttl)
	if err != nil {
		return false, fmt.Errorf("replay: claim failed: %w", err)
	}
	return claimed, nil
}
