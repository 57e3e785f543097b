package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     g.version,
		Environment: g.cfg.Environment,
	})
}

type detailedHealthResponse struct {
	healthResponse
	ChainBlockNumber uint64 `json:"chainBlockNumber,omitempty"`
	ChainError       string `json:"chainError,omitempty"`
	KVSOK            bool   `json:"kvsOk"`
	KVSError         string `json:"kvsError,omitempty"`
}

// handleHealthDetailed runs the chain and KVS probes concurrently, via
// errgroup, so a slow RPC endpoint does not multiply a slow KVS ping into
// the endpoint's total latency.
func (g *Gateway) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 3*time.Second)
	defer cancel()

	resp := detailedHealthResponse{
		healthResponse: healthResponse{Status: "ok", Version: g.version, Environment: g.cfg.Environment},
	}

	var eg errgroup.Group
	eg.Go(func() error {
		n, err := g.chainClnt.BlockNumber(ctx)
		if err != nil {
			resp.ChainError = err.Error()
			return err
		}
		resp.ChainBlockNumber = n
		return nil
	})
	eg.Go(func() error {
		err := g.store.Ping(ctx)
		resp.KVSOK = err == nil
		if err != nil {
			resp.KVSError = err.Error()
		}
		return err
	})

	status := http.StatusOK
	if err := eg.Wait(); err != nil {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
