package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aman-zulfiqar/enso-go/internal/storage"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const pricePrefix = "enso:price:"

// RedisCache stores Enso price lookups with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

var _ storage.PriceCache = (*RedisCache)(nil)

func NewRedisCache(addr string, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	}), ttl, logger)
}

// NewRedisCacheFromClient shares an existing client, e.g. with the flags store.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (r *RedisCache) GetPrice(ctx context.Context, chainID uint64, address common.Address) (*enso.PriceData, error) {
	val, err := r.client.Get(ctx, priceKey(chainID, address)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}

	var p enso.PriceData
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next set.
		r.logger.WithError(err).WithField("key", priceKey(chainID, address)).Warn("dropping unreadable cached price")
		return nil, storage.ErrCacheMiss
	}
	return &p, nil
}

func (r *RedisCache) SetPrice(ctx context.Context, chainID uint64, price *enso.PriceData) error {
	if price == nil {
		return fmt.Errorf("price is nil")
	}
	b, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("marshal price: %w", err)
	}
	if err := r.client.Set(ctx, priceKey(chainID, price.Address), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func priceKey(chainID uint64, address common.Address) string {
	return fmt.Sprintf("%s%d:%s", pricePrefix, chainID, strings.ToLower(address.Hex()))
}
