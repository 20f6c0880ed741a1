// Package token generates and decodes password-reset verification strings.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
)

const rawLen = 32

// New returns a fresh high-entropy verification string. The base64url
// alphabet keeps it safe to embed in a query parameter.
func New() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification string: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DecodeWire converts a verification string as received over the wire into
// its canonical form. The wire format is percent-encoding, applied exactly
// once; anything that fails to decode is rejected.
func DecodeWire(s string) (string, error) {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return "", fmt.Errorf("undecodable verification string: %w", err)
	}
	return decoded, nil
}
