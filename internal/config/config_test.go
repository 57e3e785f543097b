package config

import (
	"testing"
)

func TestDecimalToBaseUnits(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0.001", "1000", false},
		{"1", "1000000", false},
		{"1.5", "1500000", false},
		{"0.000001", "1", false},
		{"0.0000001", "", true},
		{"-1", "", true},
		{"abc", "", true},
	}
	for _, c := range cases {
		got, err := decimalToBaseUnits(c.in, usdcDecimals)
		if c.wantErr {
			if err == nil {
				t.Errorf("decimalToBaseUnits(%q): expected error, got none", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("decimalToBaseUnits(%q): unexpected error: %v", c.in, err)
		}
		if got.String() != c.want {
			t.Errorf("decimalToBaseUnits(%q) = %s, want %s", c.in, got.String(), c.want)
		}
	}
}

func TestLoadRequiresAllFields(t *testing.T) {
	for _, k := range []string{
		"BASE_RPC_URL", "PAYMENT_PROCESSOR_ADDRESS", "PROOF_OF_CRAWL_LEDGER_ADDRESS",
		"USDC_ADDRESS", "CRAWL_NFT_ADDRESS", "PUBLISHER_ADDRESS", "CRAWL_TOKEN_ID",
		"PRICE_USDC", "WORKER_PRIVATE_KEY", "CHAIN_ID", "CRAWLER_UA_PATTERNS",
	} {
		t.Setenv(k, "")
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing required config, got nil")
	}
}

func TestLoadSucceedsWithFullEnv(t *testing.T) {
	env := map[string]string{
		"BASE_RPC_URL":                  "https://mainnet.base.org",
		"PAYMENT_PROCESSOR_ADDRESS":     "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"PROOF_OF_CRAWL_LEDGER_ADDRESS": "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB",
		"USDC_ADDRESS":                  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"CRAWL_NFT_ADDRESS":             "0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC",
		"PUBLISHER_ADDRESS":             "0xDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDD",
		"CRAWL_TOKEN_ID":                "7",
		"PRICE_USDC":                    "0.001",
		"WORKER_PRIVATE_KEY":            "0x" + "11" + "22" + "33" + "44" + "55" + "66" + "77" + "88" + "99" + "aa" + "bb" + "cc" + "dd" + "ee" + "ff" + "00" + "11" + "22" + "33" + "44" + "55" + "66" + "77" + "88" + "99" + "aa" + "bb" + "cc" + "dd" + "ee" + "ff" + "00",
		"CHAIN_ID":                      "8453",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PriceBaseUnits.String() != "1000" {
		t.Errorf("PriceBaseUnits = %s, want 1000", cfg.PriceBaseUnits.String())
	}
	if cfg.ChainID != 8453 {
		t.Errorf("ChainID = %d, want 8453", cfg.ChainID)
	}
}
