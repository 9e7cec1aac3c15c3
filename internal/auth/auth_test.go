package auth

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass", 4)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, CheckPassword(hash, "Str0ng!Pass"))
	assert.False(t, CheckPassword(hash, "str0ng!pass"))
	assert.False(t, CheckPassword(hash, ""))
	assert.False(t, CheckPassword("not-a-hash", "Str0ng!Pass"))
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	first, err := HashPassword("Str0ng!Pass", 4)
	require.NoError(t, err)
	second, err := HashPassword("Str0ng!Pass", 4)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass", 99)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Str0ng!Pass"))
}

func TestBurnCompareDoesNotPanic(t *testing.T) {
	BurnCompare("anything")
	BurnCompare("")
}

func TestNewSessionToken(t *testing.T) {
	token, err := NewSessionToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	other, err := NewSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
