package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtIssuer   = "africoin-api"
	jwtAudience = "africoin-wallets"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

type JWTClaims struct {
	IDHash    string `json:"id_hash"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// PinHasher wraps the slow-hash primitive so the wallet engine can be tested
// without paying the bcrypt cost.
type PinHasher struct {
	cost int
}

func NewPinHasher(cost int) *PinHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PinHasher{cost: cost}
}

// Hash produces a fresh salted hash on every call; two accounts with the same
// PIN never share a credential.
func (p *PinHasher) Hash(pin string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(pin), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify recomputes and compares without leaking prefix-match timing.
func (p *PinHasher) Verify(pinHash, pin string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin))
	return err == nil
}

func generateToken(idHash, tokenType, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}

	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &JWTClaims{
		IDHash:    idHash,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func GenerateAccessToken(idHash, secret string) (string, error) {
	return generateToken(idHash, "access", secret, AccessTokenTTL)
}

func GenerateRefreshToken(idHash, secret string) (string, error) {
	return generateToken(idHash, "refresh", secret, RefreshTokenTTL)
}

func GenerateTokens(idHash, secret string) (accessToken, refreshToken string, err error) {
	accessToken, err = GenerateAccessToken(idHash, secret)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = GenerateRefreshToken(idHash, secret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func RefreshAccessToken(refreshToken, secret string) (string, *JWTClaims, error) {
	claims, err := ValidateToken(refreshToken, secret)
	if err != nil {
		return "", nil, err
	}

	if claims.TokenType != "refresh" {
		return "", nil, ErrInvalidTokenType
	}

	newAccessToken, err := GenerateAccessToken(claims.IDHash, secret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, claims, nil
}
