//go:build integration

package stream_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"govportal/internal/audit"
	"govportal/internal/audit/stream"
	"govportal/internal/platform/kafka"
	"govportal/pkg/domain"
	"govportal/pkg/testutil/containers"
)

func TestForwarderPublishesToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("integration")
	}
	broker := containers.NewRedpanda(t)
	const topic = "govportal.audit.it"
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := kafka.NewProducer([]string{broker}, topic)
	require.NoError(t, err)
	t.Cleanup(func() { _ = producer.Close(context.Background()) })
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1))
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1), "existing topic is not an error")
	require.NoError(t, producer.Ping(ctx))

	actor := domain.AccountID(42)
	sector := domain.SectorID(3)
	fwd := stream.NewKafkaForwarder(producer, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	fwd.Forward(ctx, audit.Record{
		ID:        7,
		ActorID:   &actor,
		SectorID:  &sector,
		Action:    audit.ActionRegistrationApproved,
		Timestamp: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		Detail:    map[string]any{"request_id": 11},
	})

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err(), "no audit record consumed")
		fetches.EachRecord(func(r *kgo.Record) {
			if got == nil {
				got = r
			}
		})
	}

	assert.Equal(t, "42", string(got.Key))
	var msg map[string]any
	require.NoError(t, json.Unmarshal(got.Value, &msg))
	assert.Equal(t, "registration_approved", msg["action"])
	assert.EqualValues(t, 7, msg["id"])
	assert.EqualValues(t, 3, msg["sector_id"])
	assert.Equal(t, "2026-05-04T09:00:00.000000Z", msg["timestamp"])
}
