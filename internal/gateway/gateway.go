// Package gateway wires every pipeline component into a single Gateway
// value and exposes the HTTP handler that implements the per-request state
// machine of §4.9: Admitted → Classified → {Passthrough | ChallengeOrVerify}
// → Verified → LoggedProxy → Done.
package gateway

import (
	"context"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/justin-graham/Tachi-sub009/internal/chain"
	"github.com/justin-graham/Tachi-sub009/internal/challenge"
	"github.com/justin-graham/Tachi-sub009/internal/classifier"
	"github.com/justin-graham/Tachi-sub009/internal/config"
	"github.com/justin-graham/Tachi-sub009/internal/crawllog"
	"github.com/justin-graham/Tachi-sub009/internal/kvs"
	"github.com/justin-graham/Tachi-sub009/internal/metrics"
	"github.com/justin-graham/Tachi-sub009/internal/proxy"
	"github.com/justin-graham/Tachi-sub009/internal/ratelimit"
	"github.com/justin-graham/Tachi-sub009/internal/replay"
	"github.com/justin-graham/Tachi-sub009/internal/signer"
	"github.com/justin-graham/Tachi-sub009/internal/verify"
)

// Gateway holds the single instance of every collaborator the request
// pipeline needs. It is constructed once at startup and never mutated,
// replacing the runtime-bound closures the original handler used.
type Gateway struct {
	cfg *config.GatewayConfig

	store      kvs.KVS
	chainClnt  chain.Client
	classifier *classifier.Classifier
	limiter    *ratelimit.Limiter
	chlg       *challenge.Challenge
	replayGrd  *replay.Guard
	logger     *crawllog.Logger
	origin     *proxy.Origin
	metrics    *metrics.Metrics

	verifyReq verify.Requirements
	tokenID   *big.Int

	version string
}

// Deps bundles the constructed collaborators New needs. Each one is
// already wired to its own backend (Redis vs in-memory KVS, real vs fake
// chain client) by main.go before this point.
type Deps struct {
	Config     *config.GatewayConfig
	Store      kvs.KVS
	ChainClnt  chain.Client
	Classifier *classifier.Classifier
	Metrics    *metrics.Metrics
	Signer     *signer.Signer
	Version    string
}

// New assembles a Gateway from deps.
func New(deps Deps) (*Gateway, error) {
	cfg := deps.Config

	tokenID, ok := new(big.Int).SetString(cfg.CrawlTokenID, 10)
	if !ok {
		tokenID = big.NewInt(0)
	}

	chlg := challenge.New(challenge.Params{
		PriceDecimal:            cfg.PriceDecimal,
		PriceBaseUnits:          cfg.PriceBaseUnits.String(),
		ChainID:                 cfg.ChainID,
		PaymentProcessorAddress: cfg.PaymentProcessorAddress,
		USDCAddress:             cfg.USDCAddress,
		CrawlNFTAddress:         cfg.CrawlNFTAddress,
		TokenID:                 cfg.CrawlTokenID,
	})

	origin, err := proxy.New(cfg.OriginURL, deps.Metrics)
	if err != nil {
		return nil, err
	}

	logger := crawllog.New(deps.Signer, deps.ChainClnt, deps.Metrics, 256)

	return &Gateway{
		cfg:        cfg,
		store:      deps.Store,
		chainClnt:  deps.ChainClnt,
		classifier: deps.Classifier,
		limiter:    ratelimit.New(deps.Store, cfg.RateLimitRequests, deps.Metrics),
		chlg:       chlg,
		replayGrd:  replay.New(deps.Store),
		logger:     logger,
		origin:     origin,
		metrics:    deps.Metrics,
		verifyReq: verify.Requirements{
			USDCAddress:             cfg.USDCAddress,
			PaymentProcessorAddress: cfg.PaymentProcessorAddress,
			PriceBaseUnits:          cfg.PriceBaseUnits,
		},
		tokenID: tokenID,
		version: deps.Version,
	}, nil
}

// Router builds the chi router exposing /health, /health/detailed,
// /metrics, and the catch-all protected-content route.
func (g *Gateway) Router(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "User-Agent", "X-402-Payment"},
		MaxAge:         86400,
	}))
	r.Use(g.admissionMiddleware)

	r.Get("/health", g.handleHealth)
	r.Get("/health/detailed", g.handleHealthDetailed)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.NotFound(g.handlePipeline)
	r.MethodNotAllowed(g.handlePipeline)
	r.HandleFunc("/*", g.handlePipeline)

	return r
}

// Drain flushes the crawl-log queue, for graceful shutdown.
func (g *Gateway) Drain(ctx context.Context) {
	g.logger.Drain(ctx)
}
