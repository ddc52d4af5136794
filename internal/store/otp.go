package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps hashed one-time codes keyed by Aadhaar number until they
// expire or are consumed.
type OTPStore interface {
	Save(ctx context.Context, aadhaar, codeHash string, ttl time.Duration) error
	Get(ctx context.Context, aadhaar string) (string, error)
	// Consume removes the code only if it still holds codeHash. It reports
	// false when another caller consumed or replaced it first.
	Consume(ctx context.Context, aadhaar, codeHash string) (bool, error)
	Ping(ctx context.Context) error
}

type otpEntry struct {
	hash      string
	expiresAt time.Time
}

type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		entries: make(map[string]otpEntry),
		now:     time.Now,
	}
}

func (s *MemoryOTPStore) Save(_ context.Context, aadhaar, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[aadhaar] = otpEntry{hash: codeHash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, aadhaar string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[aadhaar]
	if !ok {
		return "", ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, aadhaar)
		return "", ErrNotFound
	}
	return e.hash, nil
}

func (s *MemoryOTPStore) Consume(_ context.Context, aadhaar, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[aadhaar]
	if !ok || e.hash != codeHash || !s.now().Before(e.expiresAt) {
		return false, nil
	}
	delete(s.entries, aadhaar)
	return true, nil
}

func (s *MemoryOTPStore) Ping(context.Context) error {
	return nil
}

const otpKeyPrefix = "udyam:otp:"

var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOTPStore relies on key expiry for the TTL.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, aadhaar, codeHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKeyPrefix+aadhaar, codeHash, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Get(ctx context.Context, aadhaar string) (string, error) {
	val, err := s.client.Get(ctx, otpKeyPrefix+aadhaar).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return val, nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, aadhaar, codeHash string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{otpKeyPrefix + aadhaar}, codeHash).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}
	return n == 1, nil
}

func (s *RedisOTPStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
