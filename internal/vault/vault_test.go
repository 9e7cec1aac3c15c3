package vault

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	for _, plaintext := range []string{"0.00", "1000000.00", "", "coffee ☕ with émile", "Transfer to bob"} {
		token, err := Encrypt(key, plaintext)
		require.NoError(t, err)

		got, err := Decrypt(key, token)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestDecryptRejectsTamperedToken(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	token, err := Encrypt(key, "42.50")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	// Flipping any single byte must fail authentication.
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01
		_, err := Decrypt(key, base64.RawURLEncoding.EncodeToString(tampered))
		assert.ErrorIs(t, err, ErrAuthentication, "byte %d", i)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	otherKey, err := GenerateKey()
	require.NoError(t, err)

	token, err := Encrypt(key, "12.00")
	require.NoError(t, err)

	_, err = Decrypt(otherKey, token)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	for _, input := range []string{"", "not base64 !!!", base64.RawURLEncoding.EncodeToString([]byte("short"))} {
		_, err := Decrypt(key, input)
		assert.ErrorIs(t, err, ErrAuthentication)
	}
}

func TestKeyEncoding(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	decoded, err := DecodeKey(EncodeKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = DecodeKey("dG9vc2hvcnQ")
	assert.Error(t, err)
}

func TestTokenCarriesTimestamp(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	before := time.Now().Add(-time.Second)
	token, err := Encrypt(key, "1.00")
	require.NoError(t, err)
	after := time.Now().Add(time.Second)

	issued, ok := IssuedAt(token)
	require.True(t, ok)
	assert.True(t, issued.After(before) && issued.Before(after))
}
