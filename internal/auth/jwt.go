// internal/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a valid session token proves about its bearer.
type Identity struct {
	ID    int64
	Email string
}

type claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// TTL is the lifetime of issued tokens; the session cookie uses the same value.
func (s *TokenService) TTL() time.Duration {
	return s.expiresIn
}

func (s *TokenService) GenerateToken(userID int64, email string) (string, error) {
	issuedAt := s.now()
	expTime := issuedAt.Add(s.expiresIn)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:    userID,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expTime),
		},
	})

	tokenStr, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	slog.Debug("JWT generated", "user_id", userID, "expires_at", expTime.Format(time.DateTime))
	return tokenStr, nil
}

func (s *TokenService) ParseToken(tokenStr string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid || c.ID <= 0 {
		return Identity{}, errors.New("invalid token claims")
	}
	return Identity{ID: c.ID, Email: c.Email}, nil
}
