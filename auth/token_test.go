package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("super-secret-signing-key", 7*24*time.Hour)
	userID := uuid.New()

	tok, err := issuer.GenerateToken(userID)
	require.NoError(t, err)

	got, err := issuer.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestValidateToken_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("super-secret-signing-key", 7*24*time.Hour)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	tok, err := issuer.GenerateToken(uuid.New())
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(7*24*time.Hour - time.Minute) }
	_, err = issuer.ValidateToken(tok)
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(7*24*time.Hour + time.Minute) }
	_, err = issuer.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenIssuer("right-secret-right-secret", time.Hour).GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenIssuer("wrong-secret-wrong-secret", time.Hour).ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("k", time.Hour).ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNonUUIDSubject(t *testing.T) {
	t.Parallel()

	secret := "super-secret-signing-key"
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewTokenIssuer(secret, time.Hour).ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
