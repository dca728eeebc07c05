// Package transport defines the outbound contract to the recipient's
// intake endpoint. The pipeline only distinguishes success (a receipt
// identifier) from failure; it never interprets recipient-specific
// error codes.
package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/verdigris-botanica/egress/internal/crypto"
	"github.com/verdigris-botanica/egress/internal/types"
)

// Transport delivers an encrypted package to a destination and returns
// an opaque receipt identifier as proof of acceptance.
type Transport interface {
	Send(ctx context.Context, pkg *crypto.EncryptedPackage, destination string) (receiptID string, err error)
}

// Simulated is a deterministic stand-in for the real intake endpoint.
// The receipt identifier is derived from the ciphertext so repeated
// runs against the same payload are reproducible in tests.
type Simulated struct {
	// FailWith, when non-nil, causes every Send to fail with this
	// error. Used to exercise the failure path.
	FailWith error
}

// NewSimulated creates a simulated transport that always succeeds.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Send simulates delivery. It honors context cancellation and returns a
// 16-character receipt identifier on success.
func (s *Simulated) Send(ctx context.Context, pkg *crypto.EncryptedPackage, destination string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", types.WrapRetryableError(types.TRANSPORT_FAILED, "transmission cancelled", err)
	}
	if s.FailWith != nil {
		return "", types.WrapRetryableError(types.TRANSPORT_FAILED,
			fmt.Sprintf("simulated delivery to %s failed", destination), s.FailWith)
	}
	if pkg == nil || len(pkg.Ciphertext) == 0 {
		return "", types.NewError(types.TRANSPORT_FAILED, "nothing to transmit: empty encrypted package")
	}

	sum := sha256.Sum256(pkg.Ciphertext)
	return hex.EncodeToString(sum[:])[:16], nil
}
