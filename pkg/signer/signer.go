package signer

import (
	"context"
	"net/http"
	"time"
)

// KeyPair is a signing key with a published key id. *keystore.Identity
// satisfies it.
type KeyPair interface {
	// KeyID is the URL peers fetch to obtain the public key
	KeyID() string

	// Sign signs data with RSASSA-PKCS1-v1_5 over SHA-256
	Sign(data []byte) ([]byte, error)
}

// RequestSigner adds a draft-cavage Signature header to outgoing requests
type RequestSigner interface {
	// SignRequest signs req with the default header set
	SignRequest(ctx context.Context, req *http.Request, key KeyPair) error

	// SignRequestWithOptions signs req with custom options
	SignRequestWithOptions(ctx context.Context, req *http.Request, key KeyPair, opts *SigningOptions) error
}

// SigningOptions contains options for signing HTTP requests
type SigningOptions struct {
	// Headers are the covered headers in order, e.g. "(request-target)", "host".
	// If empty, "(request-target) host date" is used, followed by
	// "digest content-type" when the request has a body.
	Headers []string

	// Date is written to the Date header when the request has none.
	// If zero, the current time is used
	Date time.Time

	// Algorithm is advertised in the header; defaults to "rsa-sha256"
	Algorithm string
}
