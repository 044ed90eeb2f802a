package repository

import (
	"context"
	"time"

	"MomentumPull/internal/domain/models"
	domrepo "MomentumPull/internal/domain/repository"
	pkgkafka "MomentumPull/pkg/kafka"
)

const DefaultSnapshotTopic = "momentum.snapshots"

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaSnapshotPublisher emits one message per record, keyed by symbol.
type KafkaSnapshotPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)

// SnapshotMessage is the JSON value published for each record.
type SnapshotMessage struct {
	CycleID         string    `json:"cycle_id"`
	Symbol          string    `json:"symbol"`
	MomentumScore   float64   `json:"momentum_score"`
	Timestamp       time.Time `json:"timestamp"`
	AverageMomentum float64   `json:"average_momentum"`
}

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return newKafkaSnapshotPublisher(producer, topic)
}

func newKafkaSnapshotPublisher(producer batchProducer, topic string) *KafkaSnapshotPublisher {
	if topic == "" {
		topic = DefaultSnapshotTopic
	}
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, cycleID string, batch []models.SnapshotRecord) error {
	if len(batch) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(batch))
	for i, r := range batch {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(r.Symbol),
			Headers: map[string]string{"cycle_id": cycleID},
			Value: SnapshotMessage{
				CycleID:         cycleID,
				Symbol:          r.Symbol,
				MomentumScore:   r.MomentumScore,
				Timestamp:       r.Timestamp.UTC(),
				AverageMomentum: r.AverageMomentum,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
