package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is the request-context key the authentication middleware stores
// verified claims under.
const ClaimsKey ctxKey = 1

const (
	RoleUser  = "customer"
	RoleAdmin = "admin"
)

// Claims carried inside access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Keys signs and verifies tokens with an HMAC secret pair: one for
// short-lived access tokens, one for refresh tokens.
type Keys struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewKeys(accessSecret, refreshSecret string) (*Keys, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token secrets must not be empty")
	}
	return &Keys{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     15 * time.Minute,
		refreshTTL:    7 * 24 * time.Hour,
	}, nil
}

// GenerateAccessToken issues a short-lived token carrying the user's role.
func (k *Keys) GenerateAccessToken(userID, role string) (string, error) {
	return k.sign(userID, role, k.accessSecret, k.accessTTL)
}

// GenerateRefreshToken issues a long-lived token; the caller persists it on
// the user row so it can be rotated out at logout.
func (k *Keys) GenerateRefreshToken(userID, role string) (string, error) {
	return k.sign(userID, role, k.refreshSecret, k.refreshTTL)
}

func (k *Keys) sign(userID, role string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "restaurant-backend",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies the signature and expiry of an access token.
func (k *Keys) ParseAccessToken(tokenStr string) (Claims, error) {
	return parse(tokenStr, k.accessSecret)
}

// ParseRefreshToken verifies a refresh token.
func (k *Keys) ParseRefreshToken(tokenStr string) (Claims, error) {
	return parse(tokenStr, k.refreshSecret)
}

func parse(tokenStr string, secret []byte) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	return claims, nil
}
