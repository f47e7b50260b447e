// Package auth issues bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the authenticated user in a token
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenService signs and verifies HS256 bearer tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service from auth settings
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			"JWT secret is required", nil)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a token for the user
func (s *TokenService) Issue(userID uuid.UUID, username string) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", resumeforgeErrors.NewInternalError(resumeforgeErrors.ErrCodeInvalidToken,
			"failed to sign token", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Any failure is ErrCodeInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, resumeforgeErrors.NewAuthError(resumeforgeErrors.ErrCodeUnauthorized,
			"token is empty", nil)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		message := "invalid token"
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			message = "token expired"
		case errors.Is(err, jwt.ErrTokenMalformed):
			message = "malformed token"
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			message = "invalid token signature"
		}
		return nil, resumeforgeErrors.NewAuthError(resumeforgeErrors.ErrCodeInvalidToken, message, err)
	}
	if !token.Valid {
		return nil, resumeforgeErrors.NewAuthError(resumeforgeErrors.ErrCodeInvalidToken, "invalid token", nil)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, resumeforgeErrors.NewAuthError(resumeforgeErrors.ErrCodeInvalidToken,
			"token subject is not a user id", err)
	}
	return claims, nil
}
