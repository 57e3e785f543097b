// Package config loads the gateway's immutable runtime configuration from
// environment variables, exactly as the reference gateway does it: an
// optional .env file for local development, plain os.Getenv for production.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// usdcDecimals is the fixed number of fractional digits USDC uses on-chain.
const usdcDecimals = 6

// GatewayConfig is the immutable bundle built once at startup and frozen for
// the process lifetime. Every field here is read-only after Load returns.
type GatewayConfig struct {
	BaseRPCURL                string
	PaymentProcessorAddress   string
	ProofOfCrawlLedgerAddress string
	USDCAddress               string
	CrawlNFTAddress           string
	PublisherAddress          string
	CrawlTokenID              string

	// PriceDecimal is the human-entered PRICE_USDC string (up to 6 fractional
	// digits); PriceBaseUnits is the same value converted once at load time
	// into an integer count of USDC base units (1 USDC = 1_000_000 units).
	// Comparisons against on-chain log values use PriceBaseUnits only.
	PriceDecimal   string
	PriceBaseUnits *big.Int

	ChainID int64

	// WorkerPrivateKey is the hex-encoded key the gateway signs logCrawl
	// transactions with. Never logged.
	WorkerPrivateKey string

	RateLimitRequests int
	MaxRequestSize    int64
	Environment       string
	EnableLogging     bool
	OriginURL         string
	SentryDSN         string
	HeartbeatURL      string

	// RedisURL selects the KVS backend: empty uses the in-memory store
	// (fine for a single instance), set uses Redis so rate-limit counters
	// and replay entries are shared across multiple gateway instances.
	RedisURL string

	// Port is the HTTP listen port.
	Port int

	// CrawlerUAPatterns overrides the classifier's default pattern set when
	// non-empty; each entry is a case-insensitive regular expression.
	CrawlerUAPatterns []string
}

// Load builds a GatewayConfig from the environment, loading a .env file
// first if one is present (a no-op in production). All validation errors
// are collected and returned together rather than failing on the first.
func Load() (*GatewayConfig, error) {
	_ = godotenv.Load()

	cfg := &GatewayConfig{
		BaseRPCURL:                getEnv("BASE_RPC_URL", ""),
		PaymentProcessorAddress:   strings.ToLower(getEnv("PAYMENT_PROCESSOR_ADDRESS", "")),
		ProofOfCrawlLedgerAddress: strings.ToLower(getEnv("PROOF_OF_CRAWL_LEDGER_ADDRESS", "")),
		USDCAddress:               strings.ToLower(getEnv("USDC_ADDRESS", "")),
		CrawlNFTAddress:           strings.ToLower(getEnv("CRAWL_NFT_ADDRESS", "")),
		PublisherAddress:          strings.ToLower(getEnv("PUBLISHER_ADDRESS", "")),
		CrawlTokenID:              getEnv("CRAWL_TOKEN_ID", ""),
		PriceDecimal:              getEnv("PRICE_USDC", ""),
		WorkerPrivateKey:          getEnv("WORKER_PRIVATE_KEY", ""),
		RateLimitRequests:         getEnvInt("RATE_LIMIT_REQUESTS", 100),
		MaxRequestSize:            int64(getEnvInt("MAX_REQUEST_SIZE", 1048576)),
		Environment:               getEnv("ENVIRONMENT", "development"),
		EnableLogging:             getEnvBool("ENABLE_LOGGING", false),
		OriginURL:                 getEnv("ORIGIN_URL", "http://localhost:3000"),
		SentryDSN:                 getEnv("SENTRY_DSN", ""),
		HeartbeatURL:              getEnv("BETTER_UPTIME_HEARTBEAT_URL", ""),
		RedisURL:                  getEnv("REDIS_URL", ""),
		Port:                      getEnvInt("PORT", 8080),
	}

	if raw := getEnv("CRAWLER_UA_PATTERNS", ""); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CrawlerUAPatterns = append(cfg.CrawlerUAPatterns, p)
			}
		}
	}

	var errs []string

	required := map[string]string{
		"BASE_RPC_URL":                  cfg.BaseRPCURL,
		"PAYMENT_PROCESSOR_ADDRESS":     cfg.PaymentProcessorAddress,
		"PROOF_OF_CRAWL_LEDGER_ADDRESS": cfg.ProofOfCrawlLedgerAddress,
		"USDC_ADDRESS":                  cfg.USDCAddress,
		"CRAWL_NFT_ADDRESS":             cfg.CrawlNFTAddress,
		"PUBLISHER_ADDRESS":             cfg.PublisherAddress,
		"CRAWL_TOKEN_ID":                cfg.CrawlTokenID,
		"PRICE_USDC":                    cfg.PriceDecimal,
		"WORKER_PRIVATE_KEY":            cfg.WorkerPrivateKey,
	}
	for name, v := range required {
		if v == "" {
			errs = append(errs, fmt.Sprintf("%s is required", name))
		}
	}

	chainIDStr := getEnv("CHAIN_ID", "8453")
	chainID, err := strconv.ParseInt(chainIDStr, 10, 64)
	if err != nil {
		errs = append(errs, fmt.Sprintf("CHAIN_ID must be an integer, got %q", chainIDStr))
	}
	cfg.ChainID = chainID

	if cfg.PriceDecimal != "" {
		base, err := decimalToBaseUnits(cfg.PriceDecimal, usdcDecimals)
		if err != nil {
			errs = append(errs, fmt.Sprintf("PRICE_USDC invalid: %v", err))
		} else {
			cfg.PriceBaseUnits = base
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// decimalToBaseUnits converts a human decimal string with up to `decimals`
// fractional digits into an integer base-units value, performed once at
// startup so every later comparison is plain integer arithmetic.
func decimalToBaseUnits(s string, decimals int) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		return nil, fmt.Errorf("negative price %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("more than %d fractional digits in %q", decimals, s)
	}
	frac = frac + strings.Repeat("0", decimals-len(frac))

	combined := whole + frac
	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal number: %q", s)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
