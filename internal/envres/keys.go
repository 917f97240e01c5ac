package envres

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// GeneratePrivateKey creates a fresh private key for the named curve,
// base64-encoded. Ed25519 keys are the 64-byte seed+public form, x25519
// keys the raw 32-byte scalar, so the curve can be recovered from the
// decoded length when deriving the public half.
func GeneratePrivateKey(curve string) (string, error) {
	switch curve {
	case "ed25519":
		_, private, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return "", fmt.Errorf("failed to generate ed25519 key: %w", err)
		}
		return base64.StdEncoding.EncodeToString(private), nil
	case "x25519":
		scalar := make([]byte, curve25519.ScalarSize)
		if _, err := rand.Read(scalar); err != nil {
			return "", fmt.Errorf("failed to generate x25519 key: %w", err)
		}
		return base64.StdEncoding.EncodeToString(scalar), nil
	default:
		return "", fmt.Errorf("unsupported curve %q", curve)
	}
}

// DerivePublicKey derives the base64-encoded public key from a previously
// resolved private key.
func DerivePublicKey(private string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(private)
	if err != nil {
		return "", fmt.Errorf("failed to decode private key: %w", err)
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		public := ed25519.PrivateKey(raw).Public().(ed25519.PublicKey)
		return base64.StdEncoding.EncodeToString(public), nil
	case curve25519.ScalarSize:
		public, err := curve25519.X25519(raw, curve25519.Basepoint)
		if err != nil {
			return "", fmt.Errorf("failed to derive x25519 public key: %w", err)
		}
		return base64.StdEncoding.EncodeToString(public), nil
	default:
		return "", fmt.Errorf("private key has unexpected length %d", len(raw))
	}
}

// RandomHex produces a cryptographically random hex string of the given
// bit length, rounded up to whole bytes.
func RandomHex(bits int) (string, error) {
	if bits <= 0 {
		return "", fmt.Errorf("random bit length must be positive, got %d", bits)
	}
	raw := make([]byte, (bits+7)/8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
