package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Message is one record to publish. Value is sent as-is for []byte and
// string, and JSON-encoded otherwise.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON messages through a synchronous kafka-go writer.
type Producer struct {
	w     messageWriter
	codec string
	now   func() time.Time
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := DefaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, _ := parseCompression(cfg.Compression)

	var bal kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  codec,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.Linger,
	}
	return newProducer(w, cfg.Compression), nil
}

func newProducer(w messageWriter, codec string) *Producer {
	registerMetrics()
	return &Producer{w: w, codec: codec, now: time.Now}
}

// PublishMessage sends one unkeyed payload. The log collector ships its
// digests through it.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Value: payload}})
}

// PublishBatch writes all messages in a single call; either the whole batch
// is acknowledged or an error is returned.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := p.now()
	out := make([]kafka.Message, len(messages))
	var size int
	for i, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return fmt.Errorf("kafka %s message %d: %w", topic, i, err)
		}
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: start, Headers: toHeaders(m.Headers)}
		size += len(v)
	}

	err := p.w.WriteMessages(ctx, out...)
	observe(topic, p.codec, len(out), size, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka write %s (%d messages): %w", topic, len(out), err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return b, nil
}

func toHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(h))
	for k, v := range h {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func parseCompression(codec string) (kafka.Compression, error) {
	switch codec {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("kafka: unknown compression %q", codec)
}

var (
	metricsOnce     sync.Once
	publishedTotal  *prometheus.CounterVec
	publishedBytes  *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
)

func registerMetrics() {
	metricsOnce.Do(func() {
		publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_kafka_producer_messages_total",
			Help: "Messages handed to Kafka, by outcome.",
		}, []string{"topic", "result"})
		publishedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_kafka_producer_bytes_total",
			Help: "Encoded payload bytes handed to Kafka.",
		}, []string{"topic", "compression"})
		publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "momentum_kafka_producer_publish_seconds",
			Help:    "Latency of one WriteMessages call.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"topic"})
	})
}

func observe(topic, codec string, count, size int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedTotal.WithLabelValues(topic, result).Add(float64(count))
	if err == nil {
		publishedBytes.WithLabelValues(topic, codec).Add(float64(size))
	}
	publishDuration.WithLabelValues(topic).Observe(took.Seconds())
}
