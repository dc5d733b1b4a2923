// Package pkce implements the Proof Key for Code Exchange helpers (RFC 7636) used by the Spotify login.
//
// A [Verifier] is a high-entropy random string kept by the client; its [Challenge] (S256) is sent with the
// authorization request and the verifier itself is sent with the token request.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/desertthunder/spotshuffle/internal/shared"
)

// Alphabet is the 62-character set verifiers are drawn from. It is a subset of the RFC 7636 unreserved characters.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Method is the only challenge method we send.
const Method = "S256"

// largest multiple of len(Alphabet) that fits in a byte; bytes at or above it are rejected
const rejectAbove = 256 - 256%len(Alphabet)

// RandomString returns n characters drawn uniformly, with replacement, from [Alphabet] using crypto/rand.
func RandomString(n int) (string, error) {
	return randomString(rand.Reader, n)
}

func randomString(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: length must be positive, got %d", shared.ErrInvalidArgument, n)
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

// Verifier returns a new code verifier of the given length, which must be within 43..128.
func Verifier(length int) (string, error) {
	if length < shared.MinVerifierLength || length > shared.MaxVerifierLength {
		return "", fmt.Errorf("%w: verifier length must be between %d and %d, got %d",
			shared.ErrInvalidArgument, shared.MinVerifierLength, shared.MaxVerifierLength, length)
	}
	return RandomString(length)
}

// Challenge derives the S256 code challenge: base64url(sha256(verifier)) without padding.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
