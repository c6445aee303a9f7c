package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{SecretKey: "test-secret"})
}

func TestGenerateAndValidateTokenRoundTrips(t *testing.T) {
	m := testManager()
	token, err := m.GenerateToken("u1", "a@example.com", "admin", "sess1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "sess1", claims.ID)
	assert.Equal(t, "raphael", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := testManager()
	token, err := m.GenerateToken("u1", "a@example.com", "member", "sess1")
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{SecretKey: "different-secret"})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsNonHMACAlgorithm(t *testing.T) {
	m := testManager()

	claims := &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer: m.config.Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager(JWTConfig{SecretKey: "test-secret", TokenDuration: -time.Hour})
	token, err := m.GenerateToken("u1", "a@example.com", "member", "sess1")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	issuerA := NewJWTManager(JWTConfig{SecretKey: "shared-secret", Issuer: "issuer-a"})
	issuerB := NewJWTManager(JWTConfig{SecretKey: "shared-secret", Issuer: "issuer-b"})

	token, err := issuerA.GenerateToken("u1", "a@example.com", "member", "sess1")
	require.NoError(t, err)

	_, err = issuerB.ValidateToken(token)
	assert.Error(t, err)
}
