package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog"
)

// RedisStore keeps payloads in Redis. Expiry is delegated to Redis, so Sweep has nothing to do.
type RedisStore struct {
	pool   *redis.Pool
	prefix string
	ttls   TTLTable
	logger zerolog.Logger
}

// NewRedisStore creates a store backed by the Redis server at rawURL
func NewRedisStore(rawURL, prefix string, ttls TTLTable, logger zerolog.Logger) *RedisStore {
	return newRedisStore(func(ctx context.Context) (redis.Conn, error) {
		return redis.DialURLContext(ctx, rawURL,
			redis.DialConnectTimeout(2*time.Second),
			redis.DialReadTimeout(2*time.Second),
			redis.DialWriteTimeout(2*time.Second),
		)
	}, prefix, ttls, logger)
}

func newRedisStore(dial func(context.Context) (redis.Conn, error), prefix string, ttls TTLTable, logger zerolog.Logger) *RedisStore {
	if ttls == nil {
		ttls = DefaultTTLs()
	}

	pool := &redis.Pool{
		MaxIdle:     16,
		IdleTimeout: 4 * time.Minute,
		DialContext: dial,
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	return &RedisStore{
		pool:   pool,
		prefix: prefix,
		ttls:   ttls,
		logger: logger.With().Str("component", "cache-redis").Logger(),
	}
}

func (rs *RedisStore) key(key string, category Category) string {
	return rs.prefix + string(category) + ":" + key
}

// Ping checks connectivity
func (rs *RedisStore) Ping(ctx context.Context) error {
	conn, err := rs.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("PING")
	return err
}

// Get retrieves a payload from Redis
func (rs *RedisStore) Get(ctx context.Context, key string, category Category) ([]byte, bool) {
	if !rs.ttls.Cacheable(category) {
		return nil, false
	}

	conn, err := rs.pool.GetContext(ctx)
	if err != nil {
		rs.logger.Warn().Err(err).Msg("redis connection failed")
		return nil, false
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", rs.key(key, category)))
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			rs.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}
	return data, true
}

// Put stores a payload with the category TTL
func (rs *RedisStore) Put(ctx context.Context, key string, value []byte, category Category) {
	ttl := rs.ttls.TTL(category)
	if ttl <= 0 {
		return
	}

	conn, err := rs.pool.GetContext(ctx)
	if err != nil {
		rs.logger.Warn().Err(err).Msg("redis connection failed")
		return
	}
	defer conn.Close()

	if _, err := conn.Do("SET", rs.key(key, category), value, "PX", ttl.Milliseconds()); err != nil {
		rs.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Sweep is a no-op; Redis expires keys itself
func (rs *RedisStore) Sweep() int { return 0 }

// Close closes the connection pool
func (rs *RedisStore) Close() {
	if err := rs.pool.Close(); err != nil {
		rs.logger.Debug().Err(err).Msg("redis pool close")
	}
}

var _ Store = (*RedisStore)(nil)
