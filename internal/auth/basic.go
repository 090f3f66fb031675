package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/pliu/attention-tracker/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Credentials holds the single basic-auth identity the server accepts.
type Credentials struct {
	username     []byte
	passwordHash []byte
}

// NewCredentials hashes password so the plaintext is not kept in memory.
func NewCredentials(username, password string) (*Credentials, error) {
	if username == "" || password == "" {
		return nil, errors.New("auth: username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing basic auth password: %w", err)
	}
	return &Credentials{username: []byte(username), passwordHash: hash}, nil
}

// FromConfig returns nil when basic auth is not configured.
func FromConfig(cfg *config.Config) (*Credentials, error) {
	if !cfg.BasicAuthEnabled() {
		return nil, nil
	}
	return NewCredentials(cfg.BasicAuthUser, cfg.BasicAuthPassword)
}

// Check verifies a username/password pair.
func (c *Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), c.username) == 1
	passOK := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return userOK && passOK
}
