package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landregistry/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key-at-least-32-bytes!!", "test-issuer")

const (
	identity    = "asha@example.com"
	displayName = "Asha"
	issuedFor   = "citizen"
)

func Test_SignAndValidate(t *testing.T) {
	now := time.Now()
	issued, err := jwtService.Sign(identity, displayName, issuedFor, now, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.JTI)

	claims, err := jwtService.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, identity, claims.Identity)
	assert.Equal(t, displayName, claims.DisplayName)
	assert.Equal(t, issuedFor, claims.IssuedFor)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.WithinDuration(t, now.Add(24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func Test_SignProducesUniqueTokens(t *testing.T) {
	now := time.Now()
	a, err := jwtService.Sign(identity, displayName, issuedFor, now, time.Hour)
	require.NoError(t, err)
	b, err := jwtService.Sign(identity, displayName, issuedFor, now, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	issued, err := jwtService.Sign(identity, displayName, issuedFor, time.Now().Add(-48*time.Hour), 24*time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(issued.Token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-signing-key-at-least-32-bytes", "test-issuer")
	issued, err := other.Sign(identity, displayName, issuedFor, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(issued.Token)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_UsesInjectedClock(t *testing.T) {
	signedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewJWTService("test-signing-key-at-least-32-bytes!!", "test-issuer",
		WithClock(func() time.Time { return signedAt.Add(23 * time.Hour) }))

	issued, err := svc.Sign(identity, displayName, issuedFor, signedAt, 24*time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(issued.Token)
	require.NoError(t, err)

	late := NewJWTService("test-signing-key-at-least-32-bytes!!", "test-issuer",
		WithClock(func() time.Time { return signedAt.Add(25 * time.Hour) }))
	_, err = late.ValidateToken(issued.Token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}
