// Package sanitize validates task input text and sanitizes identifiers and
// paths that come from users or configuration.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// MaxIdentifierLength bounds a single subject token.
	MaxIdentifierLength = 64

	// HashSuffixLength is the length of "_<8-char-hash>" on truncated identifiers.
	HashSuffixLength = 9

	// DefaultIdentifier is used when sanitization produces an empty result.
	DefaultIdentifier = "default"
)

// Identifier reduces s to a token usable inside a NATS subject:
// lowercase alphanumerics and underscores, at most MaxIdentifierLength long.
//
//	"alice@example.com" -> "alice_example_com"
//	"My User!"          -> "my_user"
//	"" or "***"         -> "default"
func Identifier(s string) string {
	if s == "" {
		return DefaultIdentifier
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	sanitized := b.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return DefaultIdentifier
	}
	if len(sanitized) > MaxIdentifierLength {
		sanitized = truncateWithHash(sanitized)
	}
	return sanitized
}

// truncateWithHash keeps distinct long inputs distinct after truncation.
func truncateWithHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	suffix := "_" + hex.EncodeToString(hash[:])[:8]
	truncated := strings.TrimRight(s[:MaxIdentifierLength-HashSuffixLength], "_")
	return truncated + suffix
}

// Subject appends sanitized tokens to a base subject:
//
//	Subject("tasks.create", "alice@example.com") -> "tasks.create.alice_example_com"
func Subject(base string, tokens ...string) string {
	parts := make([]string, 0, len(tokens)+1)
	if base = strings.Trim(base, "."); base != "" {
		parts = append(parts, base)
	}
	for _, t := range tokens {
		parts = append(parts, Identifier(t))
	}
	return strings.Join(parts, ".")
}
