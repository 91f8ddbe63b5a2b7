// This is a **mock authentication service**, designed to provide JWT tokens
// for the shopper service, simulating user authentication.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/shopper/internal/shopper/auth"
	"go.uber.org/zap"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
	tokenTTL      = 24 * time.Hour
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenHandler struct {
	secret string
	logger *zap.Logger
}

// ServeHTTP issues a token for the user named in the "user" query
// parameter, or a fixed demo user.
func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = "12345"
	}

	token, err := auth.GenerateToken(userID, h.secret, tokenTTL)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token, ExpiresAt: time.Now().Add(tokenTTL).UTC()}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode token", zap.Error(err))
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	secret := envOr("JWT_SECRET", defaultSecret)
	port := envOr("AUTH_PORT", defaultPort)

	mux := http.NewServeMux()
	mux.Handle("/token", &tokenHandler{secret: secret, logger: logger.Named("auth_service")})

	server := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	logger.Info("Authentication service running", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Authentication service failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
