package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345"

func TestPinHasher_Hash(t *testing.T) {
	hasher := NewPinHasher(bcrypt.MinCost)

	t.Run("Successfully hash pin", func(t *testing.T) {
		pin := "1234"
		hashed, err := hasher.Hash(pin)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, pin, hashed)
	})

	t.Run("Different hashes for same pin", func(t *testing.T) {
		pin := "1234"
		hash1, _ := hasher.Hash(pin)
		hash2, _ := hasher.Hash(pin)

		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("Out of range cost falls back to default", func(t *testing.T) {
		h := NewPinHasher(99)
		assert.Equal(t, bcrypt.DefaultCost, h.cost)
	})
}

func TestPinHasher_Verify(t *testing.T) {
	hasher := NewPinHasher(bcrypt.MinCost)
	pin := "1234"
	hashed, _ := hasher.Hash(pin)

	t.Run("Correct pin", func(t *testing.T) {
		assert.True(t, hasher.Verify(hashed, pin))
	})

	t.Run("Incorrect pin", func(t *testing.T) {
		assert.False(t, hasher.Verify(hashed, "0000"))
	})

	t.Run("Empty pin", func(t *testing.T) {
		assert.False(t, hasher.Verify(hashed, ""))
	})
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken("abc123", testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Empty secret fails", func(t *testing.T) {
		_, err := GenerateAccessToken("abc123", "")
		assert.ErrorIs(t, err, ErrEmptyJWTSecret)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Valid token round-trips claims", func(t *testing.T) {
		token, err := GenerateAccessToken("abc123", testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "abc123", claims.IDHash)
		assert.Equal(t, "access", claims.TokenType)
	})

	t.Run("Wrong secret rejected", func(t *testing.T) {
		token, _ := GenerateAccessToken("abc123", testSecret)
		_, err := ValidateToken(token, "another-secret")
		assert.Error(t, err)
	})

	t.Run("Expired token rejected", func(t *testing.T) {
		now := time.Now()
		claims := &JWTClaims{
			IDHash:    "abc123",
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(signed, testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("Refresh token yields new access token", func(t *testing.T) {
		_, refresh, err := GenerateTokens("abc123", testSecret)
		require.NoError(t, err)

		access, claims, err := RefreshAccessToken(refresh, testSecret)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.Equal(t, "abc123", claims.IDHash)
	})

	t.Run("Access token cannot be used as refresh", func(t *testing.T) {
		access, err := GenerateAccessToken("abc123", testSecret)
		require.NoError(t, err)

		_, _, err = RefreshAccessToken(access, testSecret)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}
