// Package auth issues and validates access credentials: bcrypt password
// hashes, HS256 bearer tokens, and single-use password reset tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

const issuer = "aipulse"

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service signs tokens and hashes passwords.
type Service struct {
	secret     []byte
	tokenTTL   time.Duration
	resetTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewService builds an auth service. The secret must be non-empty; config
// validation enforces that before this point.
func NewService(secret string, tokenTTL, resetTTL time.Duration, bcryptCost int) *Service {
	return &Service{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		resetTTL:   resetTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// IssueToken signs a bearer token for the user.
func (s *Service) IssueToken(user *domain.User) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a bearer token and returns the user id it was issued
// for. Every validation failure maps to ErrUnauthorized; callers never learn
// whether the token was malformed, expired, or forged.
func (s *Service) ParseToken(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}

		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", coreerrors.ErrUnauthorized
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return "", coreerrors.ErrUnauthorized
	}

	return c.Subject, nil
}

// HashPassword derives a bcrypt hash for storage.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// CheckPassword compares a candidate password against the stored hash.
// A mismatch fails with ErrInvalidCredentials.
func (s *Service) CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return coreerrors.ErrInvalidCredentials
		}

		return fmt.Errorf("check password: %w", err)
	}

	return nil
}

// NewResetToken mints a fresh reset token for the user.
func (s *Service) NewResetToken(userID string) domain.PasswordResetToken {
	return domain.PasswordResetToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
}
