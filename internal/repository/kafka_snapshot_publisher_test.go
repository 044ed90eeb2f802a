package repository

import (
	"context"
	"testing"
	"time"

	"MomentumPull/internal/domain/models"
	pkgkafka "MomentumPull/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic  string
	msgs   []pkgkafka.Message
	closed bool
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, messages...)
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSnapshotPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := newKafkaSnapshotPublisher(fp, "")
	ts := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	err := p.PublishBatch(context.Background(), "cycle-1", []models.SnapshotRecord{
		{Symbol: "A", MomentumScore: 1, Timestamp: ts, AverageMomentum: 0.5},
		{Symbol: "B", MomentumScore: 0, Timestamp: ts, AverageMomentum: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultSnapshotTopic, fp.topic)
	require.Len(t, fp.msgs, 2)
	assert.Equal(t, []byte("B"), fp.msgs[1].Key)
	msg, ok := fp.msgs[0].Value.(SnapshotMessage)
	require.True(t, ok)
	assert.Equal(t, "cycle-1", msg.CycleID)
	assert.Equal(t, "cycle-1", fp.msgs[0].Headers["cycle_id"])

	require.NoError(t, p.PublishBatch(context.Background(), "cycle-2", nil))
	assert.Len(t, fp.msgs, 2)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}
