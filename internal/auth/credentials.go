package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/koustreak/s3gate/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore validates login attempts against the configured principal.
type CredentialStore struct {
	username [sha256.Size]byte
	hash     []byte
	name     string
}

// NewCredentialStore hashes a plaintext password once at construction so
// that every later comparison costs one bcrypt verification.
func NewCredentialStore(cfg Config) (*CredentialStore, error) {
	if err := cfg.validateCredentials(); err != nil {
		return nil, err
	}

	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		cost := cfg.HashCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), cost)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to hash password", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "password_hash is not a bcrypt hash", err)
	}

	return &CredentialStore{
		username: sha256.Sum256([]byte(cfg.Username)),
		hash:     hash,
		name:     cfg.Username,
	}, nil
}

// Username returns the configured principal name.
func (s *CredentialStore) Username() string {
	return s.name
}

// Authenticate checks username and password. The password hash is always
// verified, even when the username is wrong, and the error never says which
// of the two failed.
func (s *CredentialStore) Authenticate(username, password string) error {
	given := sha256.Sum256([]byte(username))
	userOK := subtle.ConstantTimeCompare(given[:], s.username[:]) == 1
	passOK := bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil

	if !userOK || !passOK {
		return errs.New(errs.ErrKindAuthentication, "invalid username or password")
	}
	return nil
}

// HashPassword returns the bcrypt hash of password for use as password_hash.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "failed to hash password", err)
	}
	return string(hash), nil
}
