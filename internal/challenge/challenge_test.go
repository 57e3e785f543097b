package challenge

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func testParams() Params {
	return Params{
		PriceDecimal:            "0.001",
		PriceBaseUnits:          "1000",
		ChainID:                 8453,
		PaymentProcessorAddress: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		USDCAddress:             "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		CrawlNFTAddress:         "0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC",
		TokenID:                 "7",
	}
}

func TestWriteSetsHeadersAndBody(t *testing.T) {
	c := New(testParams())
	w := httptest.NewRecorder()
	c.Write(w)

	if w.Code != 402 {
		t.Fatalf("status = %d, want 402", w.Code)
	}
	if got := w.Header().Get("x402-price"); got != "1000" {
		t.Errorf("x402-price = %q, want 1000", got)
	}
	if got := w.Header().Get("x402-recipient"); got != testParams().PaymentProcessorAddress {
		t.Errorf("x402-recipient = %q", got)
	}

	var decoded body
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if decoded.Payment.Recipient != testParams().PaymentProcessorAddress {
		t.Errorf("payment.recipient = %q", decoded.Payment.Recipient)
	}
	if decoded.Payment.TokenID != "7" {
		t.Errorf("payment.tokenId = %q, want 7", decoded.Payment.TokenID)
	}
}
