package gateway

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/justin-graham/Tachi-sub009/internal/crawllog"
	"github.com/justin-graham/Tachi-sub009/internal/gatewayerr"
	"github.com/justin-graham/Tachi-sub009/internal/reqid"
	"github.com/justin-graham/Tachi-sub009/internal/verify"
)

// handlePipeline implements the request state machine of §4.9 for every
// path other than /health, /health/detailed, and /metrics.
func (g *Gateway) handlePipeline(w http.ResponseWriter, r *http.Request) {
	requestID := reqid.FromRequest(r)
	ctx := reqid.WithID(r.Context(), requestID)
	r = r.WithContext(ctx)
	log := slog.With("request_id", requestID, "path", r.URL.Path)

	ip := clientIP(r)
	rl := g.limiter.Allow(ctx, ip)
	if !rl.OK {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(g.cfg.RateLimitRequests))
		w.Header().Set("X-RateLimit-Remaining", "0")
		retryAfter := int(time.Until(rl.ResetAt).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		return
	}

	ua := r.Header.Get("User-Agent")
	isCrawler := g.classifier.IsAICrawler(ua)
	if g.metrics != nil {
		if isCrawler {
			g.metrics.ClassifierHits.WithLabelValues("crawler").Inc()
		} else {
			g.metrics.ClassifierHits.WithLabelValues("passthrough").Inc()
		}
	}

	if !isCrawler {
		g.origin.ServeHTTP(w, r)
		return
	}

	proof, err := verify.ParseProof(r.Header.Get("Authorization"), r.Header.Get("X-402-Payment"))
	if err != nil {
		g.recordVerifyOutcome(err)
		g.writePipelineError(w, err)
		return
	}
	if proof == nil {
		g.recordVerifyOutcome(gatewayerr.New(gatewayerr.KindMissingProof, "no payment proof presented"))
		if g.metrics != nil {
			g.metrics.ChallengeIssued.Inc()
		}
		g.chlg.Write(w)
		return
	}

	start := time.Now()
	payment, err := verify.Verify(ctx, g.store, g.chainClnt, g.verifyReq, proof)
	if g.metrics != nil {
		g.metrics.VerifyLatency.Observe(time.Since(start).Seconds())
	}
	g.recordVerifyOutcome(err)
	if err != nil {
		log.Warn("verification failed", "err", err)
		g.writePipelineError(w, err)
		return
	}

	claimed, err := g.replayGrd.Claim(ctx, payment.TxHash)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "replay guard unavailable")
		return
	}
	if !claimed {
		if g.metrics != nil {
			g.metrics.ReplayRejected.Inc()
		}
		g.writePipelineError(w, gatewayerr.New(gatewayerr.KindReplay, "transaction hash already consumed"))
		return
	}

	g.origin.ServeHTTP(w, r)

	g.logger.Enqueue(crawllog.Job{
		RequestID: requestID,
		TokenID:   g.tokenID,
		Crawler:   common.HexToAddress(payment.PayerAddress),
		UserAgent: ua,
		Timestamp: time.Now().Unix(),
	})
}

func (g *Gateway) recordVerifyOutcome(err error) {
	if g.metrics == nil {
		return
	}
	if err == nil {
		g.metrics.VerifyOutcome.WithLabelValues("ok").Inc()
		return
	}
	if ge, ok := gatewayerr.As(err); ok {
		g.metrics.VerifyOutcome.WithLabelValues(string(ge.Kind)).Inc()
	} else {
		g.metrics.VerifyOutcome.WithLabelValues("internal").Inc()
	}
}

func (g *Gateway) writePipelineError(w http.ResponseWriter, err error) {
	ge, ok := gatewayerr.As(err)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}
	writeJSONError(w, ge.Kind.Status(), string(ge.Kind), ge.Message)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if host, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(host)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, ok := strings.Cut(r.RemoteAddr, ":")
	if !ok {
		return r.RemoteAddr
	}
	return host
}
