// Package kafka wraps the franz-go client used to stream audit records.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes keyed messages to one topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

const defaultMaxBuffered = 10_000

type producerConfig struct {
	maxBuffered int
}

type ProducerOption func(*producerConfig)

// WithMaxBuffered caps records awaiting delivery. Publish fails fast with
// kgo.ErrMaxBuffered once the cap is reached.
func WithMaxBuffered(n int) ProducerOption {
	return func(c *producerConfig) { c.maxBuffered = n }
}

// NewProducer connects to brokers and produces to topic.
func NewProducer(brokers []string, topic string, opts ...ProducerOption) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	cfg := producerConfig{maxBuffered: defaultMaxBuffered}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.MaxBufferedRecords(cfg.maxBuffered),
		kgo.RecordDeliveryTimeout(10*time.Second),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Producer{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicas, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

// Publish enqueues one message without blocking; done is called once delivery
// succeeds or fails. A full buffer fails the record immediately.
func (p *Producer) Publish(ctx context.Context, key, value []byte, done func(error)) {
	p.client.TryProduce(ctx, &kgo.Record{Key: key, Value: value}, func(_ *kgo.Record, err error) {
		if done != nil {
			done(err)
		}
	})
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}

// Topic reports the destination topic.
func (p *Producer) Topic() string {
	return p.topic
}
