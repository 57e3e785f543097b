// Package challenge builds the HTTP 402 payment-required response the
// gateway sends to an identified crawler with no payment proof.
package challenge

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// payment mirrors the "payment" object in the 402 JSON body.
type payment struct {
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Network         string `json:"network"`
	ChainID         int64  `json:"chainId"`
	Recipient       string `json:"recipient"`
	TokenAddress    string `json:"tokenAddress"`
	CrawlNFTAddress string `json:"crawlNFTAddress"`
	TokenID         string `json:"tokenId"`
}

type body struct {
	Error        string   `json:"error"`
	Message      string   `json:"message"`
	Payment      payment  `json:"payment"`
	Instructions []string `json:"instructions"`
}

// Params is the fixed set of values every 402 response on this gateway
// carries; it is built once from GatewayConfig at startup and reused for
// every challenge, mirroring the teacher's marshal-once-at-construction
// pattern for its 402 body.
type Params struct {
	PriceDecimal            string
	PriceBaseUnits          string
	ChainID                 int64
	PaymentProcessorAddress string
	USDCAddress             string
	CrawlNFTAddress         string
	TokenID                 string
}

// Challenge holds a pre-marshaled 402 body and the header values to send
// alongside it, so a hot-path challenge costs one write, not one marshal.
type Challenge struct {
	bodyJSON []byte
	params   Params
}

// New pre-builds the 402 body and header set from params.
func New(params Params) *Challenge {
	b := body{
		Error:   "payment_required",
		Message: "This content requires payment. See the payment field for instructions.",
		Payment: payment{
			Amount:          params.PriceDecimal,
			Currency:        "USDC",
			Network:         "eip155",
			ChainID:         params.ChainID,
			Recipient:       params.PaymentProcessorAddress,
			TokenAddress:    params.USDCAddress,
			CrawlNFTAddress: params.CrawlNFTAddress,
			TokenID:         params.TokenID,
		},
		Instructions: []string{
			"Pay the amount in USDC to the recipient address on the specified chain.",
			"Submit the transaction hash via the Authorization: Bearer <txHash> header, or X-402-Payment: <txHash>,<amount>.",
			"Retry the original request with the payment proof header attached.",
		},
	}
	raw, err := json.Marshal(b)
	if err != nil {
		// params are fixed, well-formed Go values; Marshal cannot fail on them.
		panic(err)
	}
	return &Challenge{bodyJSON: raw, params: params}
}

// Write sends the 402 response: JSON body, x402-* headers, and the
// Content-Type header, bit-exact per §6.1.
func (c *Challenge) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("x402-price", c.params.PriceBaseUnits)
	h.Set("x402-currency", "USDC")
	h.Set("x402-chain-id", strconv.FormatInt(c.params.ChainID, 10))
	h.Set("x402-recipient", c.params.PaymentProcessorAddress)
	h.Set("x402-contract", c.params.USDCAddress)
	h.Set("x402-crawl-nft", c.params.CrawlNFTAddress)
	h.Set("x402-token-id", c.params.TokenID)
	w.WriteHeader(http.StatusPaymentRequired)
	_, _ = w.Write(c.bodyJSON)
}
