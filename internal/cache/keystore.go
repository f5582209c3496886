package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by stores that cannot reach their backend.
var ErrUnavailable = errors.New("cache store unavailable")

// KeyStore is a string-keyed byte store with per-entry expiry. Patterns use
// Redis glob syntax: * and ? match, a backslash escapes the next character.
type KeyStore interface {
	// Get reports ok=false on a miss. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteMatching removes every key matching pattern and returns how many
	// were removed. Keys written concurrently may survive.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
}

// EscapePattern quotes the glob metacharacters in s so it matches literally.
func EscapePattern(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
