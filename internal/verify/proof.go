package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/justin-graham/Tachi-sub009/internal/gatewayerr"
)

var txHashShape = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Proof is the payment proof parsed from a request's headers, before any
// verification against the chain has occurred.
type Proof struct {
	TxHash         string
	DeclaredAmount string // empty if not supplied
}

// ParseProof reads the Authorization and X-402-Payment headers per §4.5's
// two accepted forms. It returns a tagged MalformedProof error for any
// other shape, and a nil Proof with no error when neither header is
// present (the caller distinguishes "no proof" from "bad proof").
func ParseProof(authorization, x402Payment string) (*Proof, error) {
	if authorization != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(authorization, prefix) {
			return nil, gatewayerr.New(gatewayerr.KindMalformedProof, "Authorization header is not a Bearer token")
		}
		hash := strings.TrimPrefix(authorization, prefix)
		if !txHashShape.MatchString(hash) {
			return nil, gatewayerr.New(gatewayerr.KindMalformedProof, fmt.Sprintf("txHash %q is not a 32-byte hex value", hash))
		}
		return &Proof{TxHash: hash}, nil
	}

	if x402Payment != "" {
		parts := strings.SplitN(x402Payment, ",", 2)
		if len(parts) != 2 {
			return nil, gatewayerr.New(gatewayerr.KindMalformedProof, "X-402-Payment must be <txHash>,<amount>")
		}
		hash := strings.TrimSpace(parts[0])
		amount := strings.TrimSpace(parts[1])
		if !txHashShape.MatchString(hash) {
			return nil, gatewayerr.New(gatewayerr.KindMalformedProof, fmt.Sprintf("txHash %q is not a 32-byte hex value", hash))
		}
		return &Proof{TxHash: hash, DeclaredAmount: amount}, nil
	}

	return nil, nil
}
