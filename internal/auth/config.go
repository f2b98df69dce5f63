// Package auth implements the single-principal credential check and the
// stateless bearer tokens that gate the gateway API.
package auth

import (
	"time"

	"github.com/koustreak/s3gate/internal/errs"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Config describes the static principal and the token signing policy.
// Exactly one of Password and PasswordHash is normally set; when both are,
// PasswordHash wins.
type Config struct {
	Username     string        `mapstructure:"username" yaml:"username" validate:"required"`
	Password     string        `mapstructure:"password" yaml:"password,omitempty"`
	PasswordHash string        `mapstructure:"password_hash" yaml:"password_hash,omitempty"`
	Secret       string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" yaml:"token_ttl" validate:"gte=0"`
	Issuer       string        `mapstructure:"issuer" yaml:"issuer"`

	// HashCost is the bcrypt cost used when hashing a plaintext Password.
	// Zero means bcrypt.DefaultCost.
	HashCost int `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns the admin/admin principal with a 24h token TTL.
// Secret is left empty and must be supplied before building a TokenService.
func DefaultConfig() Config {
	return Config{
		Username: "admin",
		Password: "admin",
		TokenTTL: DefaultTokenTTL,
		Issuer:   "s3gate",
	}
}

func (c Config) validateCredentials() error {
	if c.Username == "" {
		return errs.Configuration("username", "username is required")
	}
	if c.Password == "" && c.PasswordHash == "" {
		return errs.Configuration("password", "password or password_hash is required")
	}
	return nil
}

func (c Config) validateSigning() error {
	if c.Secret == "" {
		return errs.Configuration("jwt_secret", "token signing secret is required")
	}
	if c.TokenTTL < 0 {
		return errs.Configuration("token_ttl", "token ttl cannot be negative")
	}
	return nil
}
