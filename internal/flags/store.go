package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// switchesKey is the Redis hash holding every switch, field = switch key.
	switchesKey = "ensogw:switches"

	// EndpointPrefix namespaces the switches that gate gateway endpoints.
	EndpointPrefix = "gateway."

	maxKeyLen = 128
)

// EndpointKey is the switch key of a gateway endpoint, e.g. "gateway.bundle".
func EndpointKey(endpoint string) string {
	return EndpointPrefix + endpoint
}

// Store keeps endpoint switches in a single Redis hash so one HGETALL lists
// them and one HDEL removes a switch.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

// ValidateKey accepts 1-128 characters from [a-zA-Z0-9._-].
func ValidateKey(key string) error {
	if key == "" || len(key) > maxKeyLen {
		return fmt.Errorf("invalid switch key: length must be 1-%d", maxKeyLen)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("invalid switch key: unexpected %q", r)
		}
	}
	return nil
}

// Set creates or replaces a switch.
func (s *Store) Set(ctx context.Context, key string, enabled bool, reason string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	flag := &Flag{Key: key, Enabled: enabled, Reason: reason, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(flag)
	if err != nil {
		return nil, fmt.Errorf("encode switch %s: %w", key, err)
	}
	if err := s.client.HSet(ctx, switchesKey, key, b).Err(); err != nil {
		return nil, fmt.Errorf("store switch %s: %w", key, err)
	}
	return flag, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	raw, err := s.client.HGet(ctx, switchesKey, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("read switch %s: %w", key, err)
	}
	return decodeFlag(key, raw)
}

// Enabled reports whether key is switched on. A missing switch is on.
func (s *Store) Enabled(ctx context.Context, key string) (bool, error) {
	f, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return f.Enabled, nil
}

// List returns every stored switch ordered by key. Undecodable entries are
// skipped.
func (s *Store) List(ctx context.Context) ([]*Flag, error) {
	all, err := s.client.HGetAll(ctx, switchesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list switches: %w", err)
	}

	out := make([]*Flag, 0, len(all))
	for key, raw := range all {
		f, err := decodeFlag(key, []byte(raw))
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes a switch; deleting a missing one is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, switchesKey, key).Err(); err != nil {
		return fmt.Errorf("delete switch %s: %w", key, err)
	}
	return nil
}

func decodeFlag(key string, raw []byte) (*Flag, error) {
	var f Flag
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode switch %s: %w", key, err)
	}
	f.Key = key
	return &f, nil
}
