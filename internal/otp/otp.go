package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeTTL is how long a stored code stays valid.
const CodeTTL = 30 * time.Minute

// Generate returns a 6-digit numeric code, uniform in [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// Store keeps one-time codes in redis, keyed by the user's email.
// A new code overwrites any previous one; codes expire passively and
// are never deleted on read.
type Store struct {
	redis *redis.Client
}

// NewStore initializes a new code store
func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

// Save writes a code for the email with the standard TTL
func (s *Store) Save(ctx context.Context, email, code string) error {
	if err := s.redis.Set(ctx, email, code, CodeTTL).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Get returns the stored code for the email, or "" when none exists
func (s *Store) Get(ctx context.Context, email string) (string, error) {
	code, err := s.redis.Get(ctx, email).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return code, nil
}
