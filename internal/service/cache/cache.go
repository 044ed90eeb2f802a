package cache

import (
	"time"

	"MomentumPull/internal/domain/repository"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 1000
)

var (
	_ repository.RatingCache = (*RatingCache)(nil)
	_ repository.RatingCache = (*RedisRatingCache)(nil)
)

type Option func(*options)

type options struct {
	ttl     time.Duration
	maxSize int
	clock   repository.Clock
}

func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func WithMaxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

func WithClock(c repository.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, maxSize: DefaultMaxSize, clock: repository.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
