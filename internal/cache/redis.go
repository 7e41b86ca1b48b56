package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    redis.Cmdable
	routesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, routesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		routesTTL: routesTTL,
	}
}

// NewRedisCacheWithClient wraps an existing client, e.g. a cluster or ring client.
func NewRedisCacheWithClient(client redis.Cmdable, routesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, routesTTL: routesTTL}
}

// routesGenTTL outlives any routes entry so a generation is never reset under a live entry.
const routesGenTTL = 7 * 24 * time.Hour

type routesEntry struct {
	Gen    int64          `json:"gen"`
	Routes []domain.Route `json:"routes"`
}

// GetRoutes returns the cached routes and the generation the caller must pass
// back to SetRoutes. Routes are nil on a miss or when the entry predates the
// last invalidation.
func (c *RedisCache) GetRoutes(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, int64, error) {
	key := RoutesKey(source, destination, date)
	vals, err := c.client.MGet(ctx, key, routesGenKey(key)).Result()
	if err != nil {
		return nil, 0, err
	}
	return decodeRoutesEntry(vals[0], vals[1])
}

// SetRoutes stores routes tagged with gen, the generation observed before the
// storage read. Entries written after a newer invalidation are never served.
func (c *RedisCache) SetRoutes(ctx context.Context, source, destination string, date time.Time, gen int64, routes []domain.Route) error {
	if routes == nil {
		routes = []domain.Route{}
	}
	payload, err := json.Marshal(routesEntry{Gen: gen, Routes: routes})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, RoutesKey(source, destination, date), payload, c.routesTTL).Err()
}

// InvalidateRoutes bumps the generation before dropping the entry.
func (c *RedisCache) InvalidateRoutes(ctx context.Context, source, destination string, date time.Time) error {
	key := RoutesKey(source, destination, date)
	genKey := routesGenKey(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, routesGenTTL)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func decodeRoutesEntry(data, gen any) ([]domain.Route, int64, error) {
	var current int64
	if s, ok := gen.(string); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("routes generation: %w", err)
		}
		current = n
	}

	s, ok := data.(string)
	if !ok {
		return nil, current, nil
	}
	var entry routesEntry
	if err := json.Unmarshal([]byte(s), &entry); err != nil {
		return nil, current, err
	}
	if entry.Gen != current {
		return nil, current, nil
	}
	if entry.Routes == nil {
		entry.Routes = []domain.Route{}
	}
	return entry.Routes, current, nil
}

// DenyToken keeps a token id on the deny-list until ttl elapses.
func (c *RedisCache) DenyToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, deniedTokenKey(jti), "1", ttl).Err()
}

func (c *RedisCache) IsTokenDenied(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, deniedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func RoutesKey(source, destination string, date time.Time) string {
	return fmt.Sprintf("cache:routes:%s:%s:%s",
		strings.ToLower(strings.TrimSpace(source)),
		strings.ToLower(strings.TrimSpace(destination)),
		domain.NormalizeDate(date).Format(domain.DateLayout))
}

func routesGenKey(key string) string {
	return key + ":gen"
}

func deniedTokenKey(jti string) string {
	return "auth:denied:" + jti
}
