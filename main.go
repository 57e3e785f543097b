package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justin-graham/Tachi-sub009/internal/chain"
	"github.com/justin-graham/Tachi-sub009/internal/classifier"
	"github.com/justin-graham/Tachi-sub009/internal/config"
	"github.com/justin-graham/Tachi-sub009/internal/gateway"
	"github.com/justin-graham/Tachi-sub009/internal/kvs"
	"github.com/justin-graham/Tachi-sub009/internal/metrics"
	"github.com/justin-graham/Tachi-sub009/internal/signer"
)

// version is set at build time via -ldflags; "dev" is the fallback for
// local builds.
var version = "dev"

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildKVS(cfg)
	if err != nil {
		slog.Error("failed to build KVS", "err", err)
		os.Exit(1)
	}

	chainClient, err := chain.Dial(ctx, cfg.BaseRPCURL)
	if err != nil {
		slog.Error("failed to dial chain RPC", "err", err)
		os.Exit(1)
	}

	cl, err := classifier.New(cfg.CrawlerUAPatterns)
	if err != nil {
		slog.Error("invalid crawler UA pattern", "err", err)
		os.Exit(1)
	}

	sg, err := signer.New(cfg.WorkerPrivateKey, cfg.ProofOfCrawlLedgerAddress, big.NewInt(cfg.ChainID))
	if err != nil {
		slog.Error("failed to init signer", "err", err)
		os.Exit(1)
	}
	slog.Info("gateway signer ready", "address", sg.Address().Hex())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	gw, err := gateway.New(gateway.Deps{
		Config:     cfg,
		Store:      store,
		ChainClnt:  chainClient,
		Classifier: cl,
		Metrics:    m,
		Signer:     sg,
		Version:    version,
	})
	if err != nil {
		slog.Error("failed to build gateway", "err", err)
		os.Exit(1)
	}

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	handler := gw.Router(metricsHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second, // origin proxy budget per §5
	}

	go func() {
		slog.Info("gateway starting", "addr", srv.Addr, "upstream", cfg.BaseRPCURL, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
	gw.Drain(shutdownCtx)
	slog.Info("gateway stopped")
}

func buildKVS(cfg *config.GatewayConfig) (kvs.KVS, error) {
	if cfg.RedisURL == "" {
		slog.Info("kvs backend: in-memory (set REDIS_URL to share state across instances)")
		return kvs.NewMemory(), nil
	}
	slog.Info("kvs backend: redis", "url", cfg.RedisURL)
	return kvs.NewRedisFromURL(cfg.RedisURL)
}
