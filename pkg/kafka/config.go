package kafka

import (
	"errors"
	"fmt"
	"time"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds writer settings. Zero values are replaced by
// DefaultProducerConfig before validation.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int // -1 all, 0 none, 1 leader
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	Linger       time.Duration
	HashByKey    bool
}

func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1 << 20,
		Linger:       time.Second,
	}
}

// Validate rejects settings kafka-go would silently misinterpret.
func (c ProducerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	switch c.RequiredAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("kafka: required acks must be -1, 0 or 1, got %d", c.RequiredAcks)
	}
	if _, err := parseCompression(c.Compression); err != nil {
		return err
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("kafka: max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression accepts none, gzip, snappy, lz4 or zstd.
func WithCompression(codec string) ProducerOption {
	return func(c *ProducerConfig) {
		if codec != "" {
			c.Compression = codec
		}
	}
}

func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBatching bounds how long and how much the writer buffers per partition.
// Non-positive arguments keep the defaults.
func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if size > 0 {
			c.BatchSize = size
		}
		if bytes > 0 {
			c.BatchBytes = bytes
		}
		if linger > 0 {
			c.Linger = linger
		}
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if write > 0 {
			c.WriteTimeout = write
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithHashByKey routes equal keys to the same partition, which keeps
// per-symbol ordering.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}
