package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baseuac/uac-api/internal/core/ports"
)

const defaultReplayTTL = time.Hour

// RegistrationReplayStore remembers which registration an Idempotency-Key created.
// Key format: register:idem:<key>
type RegistrationReplayStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRegistrationReplayStore wraps client; ttl <= 0 uses one hour.
func NewRegistrationReplayStore(client *redis.Client, ttl time.Duration) *RegistrationReplayStore {
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	return &RegistrationReplayStore{client: client, ttl: ttl}
}

// Lookup returns nil, nil when key has not been used.
func (s *RegistrationReplayStore) Lookup(ctx context.Context, key string) (*ports.RegistrationReplay, error) {
	val, err := s.client.Get(ctx, replayKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("replay lookup: %w", err)
	}
	rec, err := decodeReplay(val)
	if err != nil {
		return nil, fmt.Errorf("replay lookup: %w", err)
	}
	return rec, nil
}

// Remember keeps the first registration stored for key.
func (s *RegistrationReplayStore) Remember(ctx context.Context, key string, r ports.RegistrationReplay) error {
	if err := s.client.SetNX(ctx, replayKey(key), encodeReplay(r), s.ttl).Err(); err != nil {
		return fmt.Errorf("replay remember: %w", err)
	}
	return nil
}

// Value format: <user id>:<fingerprint>
func encodeReplay(r ports.RegistrationReplay) string {
	return strconv.FormatInt(r.UserID, 10) + ":" + r.Fingerprint
}

func decodeReplay(val string) (*ports.RegistrationReplay, error) {
	idPart, fingerprint, ok := strings.Cut(val, ":")
	if !ok || fingerprint == "" {
		return nil, fmt.Errorf("corrupt value %q", val)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt value %q: %w", val, err)
	}
	return &ports.RegistrationReplay{UserID: id, Fingerprint: fingerprint}, nil
}

func replayKey(key string) string {
	return "register:idem:" + key
}

// Ping reports whether the backing redis is reachable.
func (s *RegistrationReplayStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
