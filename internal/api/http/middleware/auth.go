package middleware

import (
	"net/http"
	"strings"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
)

// Auth guards admin endpoints with bearer token validation.
type Auth struct {
	tokenManager model.TokenManager
	logger       *logger.Logger
}

// NewAuth creates a new Auth middleware.
func NewAuth(tokenManager model.TokenManager, logger *logger.Logger) *Auth {
	return &Auth{
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// Handle rejects requests without a valid admin bearer token.
func (a *Auth) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}

		if err := a.tokenManager.ParseAdminToken(token); err != nil {
			a.logger.Debug("rejected admin token", "error", err.Error())
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
