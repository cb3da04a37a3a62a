package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeyPair(t *testing.T) (*Generator, *Verifier) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	gen := NewGenerator(key, "aquaflow", "staff-api", "", time.Minute)
	ver := NewVerifier(&key.PublicKey, "aquaflow", "staff-api")
	return gen, ver
}

func TestVerify_RoundTrip(t *testing.T) {
	gen, ver := newTestKeyPair(t)

	token, jti, err := gen.GenerateAccessToken(42, []string{"service_staff"}, "web")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.StaffID)
	assert.True(t, claims.HasRole("service_staff"))
	assert.Equal(t, jti, claims.ID)
}

func TestVerify_PurposeEnforced(t *testing.T) {
	gen, ver := newTestKeyPair(t)

	access, _, err := gen.GenerateAccessToken(42, nil, "web")
	require.NoError(t, err)
	refresh, _, err := gen.GenerateRefreshToken(42, "web")
	require.NoError(t, err)

	// An access token cannot be exchanged on the refresh endpoint and a
	// refresh token cannot authenticate a request.
	_, err = ver.VerifyRefreshToken(access)
	require.Error(t, err)
	_, err = ver.VerifyAccessToken(refresh)
	require.Error(t, err)

	claims, err := ver.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Empty(t, claims.Roles)
}

func TestVerify_WrongKeyRejected(t *testing.T) {
	gen, _ := newTestKeyPair(t)
	_, ver := newTestKeyPair(t)

	token, _, err := gen.GenerateAccessToken(1, nil, "web")
	require.NoError(t, err)

	_, err = ver.Verify(token)
	require.Error(t, err)
}
