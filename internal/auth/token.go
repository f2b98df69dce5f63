package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/koustreak/s3gate/internal/errs"
)

// Token is a signed access token and the moment it stops being accepted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and validates HS256 tokens. The signing key is fixed
// for the lifetime of the service; building a service with another key
// invalidates every token issued before.
type TokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now. Used by tests to issue already-expired tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService builds a TokenService from cfg.Secret and cfg.TokenTTL.
// A zero TTL means DefaultTokenTTL.
func NewTokenService(cfg Config, opts ...TokenOption) (*TokenService, error) {
	if err := cfg.validateSigning(); err != nil {
		return nil, err
	}

	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		key:    []byte(cfg.Secret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime given to issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject that expires TTL from now.
func (s *TokenService) Issue(subject string) (Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return Token{}, errs.Wrap(errs.ErrKindUnknown, "failed to sign token", err)
	}
	return Token{Value: signed, ExpiresAt: jwt.NewNumericDate(exp).Time}, nil
}

// Validate reports whether token carries a valid signature from this
// service and has not expired. It returns the subject on success and never
// fails loudly: malformed, forged, expired and empty tokens all yield false.
func (s *TokenService) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", false
	}
	return claims.Subject, true
}

// GenerateSecret returns a random 256-bit signing secret, base64 encoded.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errs.Wrap(errs.ErrKindUnknown, "failed to generate secret", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
