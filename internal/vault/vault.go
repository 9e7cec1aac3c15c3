// Package vault provides authenticated encryption for wallet balances,
// transaction amounts and descriptions at rest. Tokens are versioned
// envelopes so the format can evolve without breaking stored records.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// Envelope layout: version (1) || unix timestamp (8, big endian) || nonce (24)
// || ciphertext+tag, the whole thing base64 url-encoded. The version and
// timestamp are bound as AAD, so tampering with either fails the tag check.
const (
	KeySize = chacha20poly1305.KeySize

	tokenVersion  = byte(0x01)
	headerSize    = 1 + 8
	minTokenBytes = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
)

// ErrAuthentication is returned when a token is malformed or fails its
// integrity check. Callers must treat it as data corruption, never as a
// recoverable business error.
var ErrAuthentication = errors.New("vault: token authentication failed")

// GenerateKey returns a fresh random wallet key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncodeKey renders a key for keystore storage.
func EncodeKey(key []byte) string {
	return base64.RawStdEncoding.EncodeToString(key)
}

// DecodeKey parses a keystore-encoded key.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(key) != KeySize {
		return nil, errors.New("vault: wrong key length")
	}
	return key, nil
}

// Encrypt seals plaintext under key into a portable token.
func Encrypt(key []byte, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	header := make([]byte, headerSize)
	header[0] = tokenVersion
	binary.BigEndian.PutUint64(header[1:], uint64(time.Now().Unix()))

	out := make([]byte, 0, headerSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), header)...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt opens a token. Any malformed or tampered input, including an
// unknown version, yields ErrAuthentication; there is no partial result.
func Decrypt(key []byte, token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrAuthentication
	}
	if len(raw) < minTokenBytes {
		return "", ErrAuthentication
	}
	header := raw[:headerSize]
	if header[0] != tokenVersion {
		return "", ErrAuthentication
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce := raw[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := raw[headerSize+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

// IssuedAt extracts the embedded creation timestamp without decrypting. The
// value is unauthenticated until Decrypt succeeds.
func IssuedAt(token string) (time.Time, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < minTokenBytes {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint64(raw[1:headerSize])), 0), true
}
