package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/civicvoice/civicvoice-server/internal/model"
)

// Claims represents JWT claims for admin API tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) model.TokenManager {
	return &JWT{secretKey: secretKey}
}

const (
	adminTTL  = 12 * time.Hour
	roleAdmin = "admin"
)

// GenerateAdminToken creates a token granting access to the admin API.
func (j *JWT) GenerateAdminToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTTL)),
		},
		Role: roleAdmin,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}

	return tokenString, nil
}

// ParseAdminToken validates an admin token.
func (j *JWT) ParseAdminToken(tokenString string) error {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse admin token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("admin token is invalid")
	}
	if claims.Role != roleAdmin {
		return fmt.Errorf("role mismatch: %s", claims.Role)
	}
	return nil
}
