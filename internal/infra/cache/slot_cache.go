package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BruksfildServices01/agenda-scheduler/internal/config"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

const keyPrefix = "slots:"

// NewClient connects to Redis and pings it. An empty address disables the
// cache and returns nil.
func NewClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// ======================================================
// SLOT CACHE
// ======================================================

// RedisSlotCache keeps slot lists under keys that embed the current company
// and professional versions. Invalidation bumps a version; stale entries are
// never read again and expire with the TTL.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisSlotCache{client: client, ttl: ttl}
}

func companyVersionKey(companyID uint) string {
	return fmt.Sprintf("%sver:company:%d", keyPrefix, companyID)
}

func professionalVersionKey(professionalID uint) string {
	return fmt.Sprintf("%sver:prof:%d", keyPrefix, professionalID)
}

func entryKey(key scheduling.SlotKey, companyVer, profVer string) string {
	return fmt.Sprintf("%s%d.%s:%d.%s:%d:%s",
		keyPrefix,
		key.CompanyID, companyVer,
		key.ProfessionalID, profVer,
		key.ServiceID,
		key.Date.Format(schedule.DateLayout),
	)
}

func (c *RedisSlotCache) versions(ctx context.Context, key scheduling.SlotKey) (string, string, error) {
	vals, err := c.client.MGet(ctx,
		companyVersionKey(key.CompanyID),
		professionalVersionKey(key.ProfessionalID),
	).Result()
	if err != nil {
		return "", "", err
	}
	return versionOf(vals, 0), versionOf(vals, 1), nil
}

func versionOf(vals []interface{}, i int) string {
	if i < len(vals) {
		if s, ok := vals[i].(string); ok && s != "" {
			return s
		}
	}
	return "0"
}

// Get reads both versions once; the returned stamp pins them for Set.
func (c *RedisSlotCache) Get(
	ctx context.Context,
	key scheduling.SlotKey,
) ([]schedule.Slot, scheduling.SlotStamp, bool, error) {
	cv, pv, err := c.versions(ctx, key)
	if err != nil {
		return nil, "", false, err
	}
	stamp := scheduling.SlotStamp(entryKey(key, cv, pv))

	raw, err := c.client.Get(ctx, string(stamp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, stamp, false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	var slots []schedule.Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, stamp, false, fmt.Errorf("decode cached slots: %w", err)
	}
	return slots, stamp, true, nil
}

func (c *RedisSlotCache) Set(ctx context.Context, stamp scheduling.SlotStamp, slots []schedule.Slot) error {
	if stamp == "" {
		return nil
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, string(stamp), data, c.ttl).Err()
}

func (c *RedisSlotCache) InvalidateProfessional(ctx context.Context, professionalID uint) error {
	return c.client.Incr(ctx, professionalVersionKey(professionalID)).Err()
}

func (c *RedisSlotCache) InvalidateCompany(ctx context.Context, companyID uint) error {
	return c.client.Incr(ctx, companyVersionKey(companyID)).Err()
}

var _ scheduling.SlotCache = (*RedisSlotCache)(nil)
