// Package auth authenticates callers of the HTTP and gRPC surfaces. A
// request is accepted with either a Bearer JWT signed with the shared secret
// or the static API key.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIKeyHeader carries the static API key on HTTP requests and, lower-cased,
// in gRPC metadata.
const APIKeyHeader = "ApiKey"

const issuer = "shopper-auth"

type contextKey string

const (
	userContextKey contextKey = "user"
)

// Credentials are the accepted secrets. An empty APIKey disables key
// authentication; an empty JWTSecret disables tokens.
type Credentials struct {
	JWTSecret string
	APIKey    string
}

// GenerateToken issues a token for userID valid for ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"iss": issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateToken checks the token signature and returns parsed claims if valid.
func validateToken(tokenString, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("token authentication disabled")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims")
}

func (c Credentials) validAPIKey(key string) bool {
	return c.APIKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(c.APIKey)) == 1
}

// Subject returns the authenticated principal stored by the middleware or
// interceptor: the token subject, or "api-key".
func Subject(ctx context.Context) (string, bool) {
	switch v := ctx.Value(userContextKey).(type) {
	case jwt.MapClaims:
		sub, err := v.GetSubject()
		return sub, err == nil && sub != ""
	case string:
		return v, true
	default:
		return "", false
	}
}

const apiKeySubject = "api-key"
