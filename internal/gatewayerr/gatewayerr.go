// Package gatewayerr defines the tagged error taxonomy used across the
// gateway's request pipeline. Every fallible stage returns a *Error instead
// of panicking or relying on sentinel string matching; the HTTP handler is
// the only place that maps a Kind to a status code and response body.
package gatewayerr

import "fmt"

// Kind identifies the category of a pipeline failure.
type Kind string

const (
	KindBadRequest                   Kind = "BadRequest"
	KindRateLimited                  Kind = "RateLimited"
	KindMissingProof                 Kind = "MissingProof"
	KindMalformedProof               Kind = "MalformedProof"
	KindReplay                       Kind = "Replay"
	KindNotFound                     Kind = "NotFound"
	KindTxFailed                     Kind = "TxFailed"
	KindInsufficientOrWrongRecipient Kind = "InsufficientOrWrongRecipient"
	KindUpstreamUnavailable          Kind = "UpstreamUnavailable"
	KindProxyError                   Kind = "ProxyError"
	KindInternalError                Kind = "InternalError"
)

// Status returns the default HTTP status for a Kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return 400
	case KindRateLimited:
		return 429
	case KindMissingProof, KindMalformedProof, KindReplay, KindNotFound,
		KindTxFailed, KindInsufficientOrWrongRecipient:
		return 402
	case KindUpstreamUnavailable:
		return 503
	case KindProxyError:
		return 502
	default:
		return 500
	}
}

// Error is a tagged pipeline error: a Kind plus a human-readable message
// and an optional wrapped cause for logging (the cause is never serialized
// to the client).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a tagged error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a tagged error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As extracts a *Error from err, returning (nil, false) if err is not one.
func As(err error) (*Error, bool) {
	ge, ok := err.(*Error)
	return ge, ok
}
