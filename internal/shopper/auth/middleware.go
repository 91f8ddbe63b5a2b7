package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// publicPaths are served without credentials.
var publicPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// HTTPMiddleware rejects requests to protected routes that carry neither a
// valid API key nor a valid Bearer token.
func HTTPMiddleware(next http.Handler, creds Credentials) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtectedRequest(r) {
			next.ServeHTTP(w, r)
			return
		}

		if key := r.Header.Get(APIKeyHeader); key != "" {
			if !creds.validAPIKey(key) {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, apiKeySubject)))
			return
		}

		tokenString, err := extractTokenFromHeader(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := validateToken(tokenString, creds.JWTSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header or api key required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format")
	}
	return tokenString, nil
}

func isProtectedRequest(r *http.Request) bool {
	return !publicPaths[r.URL.Path]
}
