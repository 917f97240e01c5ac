package envres

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePrivateKey(t *testing.T) {
	tests := []struct {
		curve   string
		wantLen int
	}{
		{"ed25519", ed25519.PrivateKeySize},
		{"x25519", 32},
	}

	for _, tt := range tests {
		t.Run(tt.curve, func(t *testing.T) {
			encoded, err := GeneratePrivateKey(tt.curve)
			require.NoError(t, err)

			raw, err := base64.StdEncoding.DecodeString(encoded)
			require.NoError(t, err)
			assert.Len(t, raw, tt.wantLen)
		})
	}

	_, err := GeneratePrivateKey("p256")
	assert.Error(t, err)
}

func TestDerivePublicKey(t *testing.T) {
	for _, curve := range []string{"ed25519", "x25519"} {
		t.Run(curve, func(t *testing.T) {
			private, err := GeneratePrivateKey(curve)
			require.NoError(t, err)

			first, err := DerivePublicKey(private)
			require.NoError(t, err)
			second, err := DerivePublicKey(private)
			require.NoError(t, err)

			assert.Equal(t, first, second, "derivation must be deterministic")
			assert.NotEqual(t, private, first)

			raw, err := base64.StdEncoding.DecodeString(first)
			require.NoError(t, err)
			assert.Len(t, raw, 32)
		})
	}
}

func TestDerivePublicKeyRejectsGarbage(t *testing.T) {
	_, err := DerivePublicKey("not base64!!!")
	assert.Error(t, err)

	_, err = DerivePublicKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestRandomHex(t *testing.T) {
	tests := []struct {
		bits    int
		wantLen int
	}{
		{128, 32},
		{256, 64},
		{12, 4}, // rounded up to two bytes
	}

	for _, tt := range tests {
		value, err := RandomHex(tt.bits)
		require.NoError(t, err)
		assert.Len(t, value, tt.wantLen)
		assert.Regexp(t, "^[0-9a-f]+$", value)
	}

	_, err := RandomHex(0)
	assert.Error(t, err)
}
