// Package canonical provides the stable digest used by the snapshot ack
// protocol: RFC 8785 JSON Canonicalization followed by SHA-256, so two
// semantically-identical payloads always hash identically regardless of Go
// map iteration order.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Digest returns the hex-encoded SHA-256 digest of v's RFC 8785 canonical
// JSON form.
func Digest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical: marshal: %w", err)
	}

	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonical: transform: %w", err)
	}

	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Bytes returns v's RFC 8785 canonical JSON encoding, for callers that need
// the canonical payload itself rather than its digest (e.g. to ship the
// bytes over a slot).
func Bytes(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: transform: %w", err)
	}
	return canon, nil
}
