package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session lifetime used when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the signed payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenService issues and verifies HS256 session tokens. Verification only
// depends on the token, the secret and the clock.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService returns a TokenService signing with secret. ttl <= 0 uses
// DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for id that expires TTL from now.
func (s *TokenService) Issue(id models.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   id.ID,
		Email:    id.Email,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of token and returns the identity
// it carries. Failures are apperr.TokenExpired or apperr.TokenInvalid.
func (s *TokenService) Verify(token string) (models.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	switch {
	case err == nil && parsed.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.Identity{}, apperr.Wrap(apperr.TokenExpired, "token expired", err)
	case err != nil:
		return models.Identity{}, apperr.Wrap(apperr.TokenInvalid, "token invalid", err)
	default:
		return models.Identity{}, apperr.New(apperr.TokenInvalid, "token invalid")
	}

	if claims.UserID == "" {
		return models.Identity{}, apperr.New(apperr.TokenInvalid, "token has no subject")
	}
	return models.Identity{ID: claims.UserID, Email: claims.Email, Username: claims.Username}, nil
}
