package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"MomentumPull/internal/domain/models"
	applogger "MomentumPull/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisRatingCache shares fetched analyses across processes and restarts.
// Redis failures degrade to cache misses.
type RedisRatingCache struct {
	cli    *redis.Client
	prefix string
	ttl    time.Duration
	log    *applogger.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisRatingCache(cfg RedisConfig, log *applogger.Logger, opts ...Option) *RedisRatingCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return newRedisRatingCache(rdb, cfg.Prefix, log, opts...)
}

func newRedisRatingCache(cli *redis.Client, prefix string, log *applogger.Logger, opts ...Option) *RedisRatingCache {
	o := buildOptions(opts)
	if prefix == "" {
		prefix = "momentum:rating"
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &RedisRatingCache{cli: cli, prefix: prefix, ttl: o.ttl, log: log}
}

func (r *RedisRatingCache) redisKey(key models.SignalKey) string {
	return r.prefix + ":" + key.String()
}

func (r *RedisRatingCache) Get(key models.SignalKey) (*models.Analysis, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	b, err := r.cli.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis rating cache get failed", applogger.String("key", key.String()), applogger.Error(err))
		}
		return nil, false
	}
	var a models.Analysis
	if err := json.Unmarshal(b, &a); err != nil {
		r.log.Warn("redis rating cache decode failed", applogger.String("key", key.String()), applogger.Error(err))
		return nil, false
	}
	return &a, true
}

func (r *RedisRatingCache) Put(key models.SignalKey, a *models.Analysis) {
	if a == nil {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		r.log.Warn("redis rating cache encode failed", applogger.String("key", key.String()), applogger.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.cli.Set(ctx, r.redisKey(key), b, r.ttl).Err(); err != nil {
		r.log.Warn("redis rating cache set failed", applogger.String("key", key.String()), applogger.Error(err))
	}
}

func (r *RedisRatingCache) Close() error {
	return r.cli.Close()
}
