// Package auth validates bearer credentials for the processInput endpoint.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/fyrsmithlabs/voicetask/internal/config"
)

var (
	// ErrMissingToken is returned when a request carries no bearer credential.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned when a credential matches no user.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (userID string, err error)
}

// StaticTokens validates against a fixed user → token table.
type StaticTokens struct {
	// Keyed by sha256(token) so lookups do not depend on token length.
	users map[[sha256.Size]byte]string
}

// NewStaticTokens builds a validator from configured secrets. Empty
// secrets are skipped.
func NewStaticTokens(tokens map[string]config.Secret) *StaticTokens {
	s := &StaticTokens{users: make(map[[sha256.Size]byte]string, len(tokens))}
	for user, tok := range tokens {
		if !tok.IsSet() {
			continue
		}
		s.users[sha256.Sum256([]byte(tok.Value()))] = user
	}
	return s
}

// Validate implements TokenValidator.
func (s *StaticTokens) Validate(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	sum := sha256.Sum256([]byte(token))
	for digest, user := range s.users {
		if subtle.ConstantTimeCompare(digest[:], sum[:]) == 1 {
			return user, nil
		}
	}
	return "", ErrInvalidToken
}

// Len returns the number of configured users.
func (s *StaticTokens) Len() int {
	return len(s.users)
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme is case-insensitive.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
