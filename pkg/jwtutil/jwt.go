package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskboard-service/pkg/config"
)

var (
	secret     = []byte("jwt-secret-key-change-in-production")
	expiration = time.Hour
)

// UserClaims represents the JWT claims for an authenticated tenant user
type UserClaims struct {
	Email           string `json:"email"`
	UserID          uint   `json:"user_id"`
	Role            string `json:"role"`
	TenantSubdomain string `json:"tenant_subdomain"`
	jwt.RegisteredClaims
}

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
	if cfg.ExpirationHours > 0 {
		expiration = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// GenerateToken creates a JWT token bound to a user within a tenant.
// The tenant subdomain claim is informational; tenant routing is always
// re-resolved per request, never trusted from the token.
func GenerateToken(email string, userID uint, role string, tenantSubdomain string) (string, error) {
	claims := UserClaims{
		Email:           email,
		UserID:          userID,
		Role:            role,
		TenantSubdomain: tenantSubdomain,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
