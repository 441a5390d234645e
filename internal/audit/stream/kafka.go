// Package stream forwards stored audit records to Kafka for downstream SIEM
// consumers. The database remains the system of record; the stream is a copy.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"govportal/internal/audit"
	"govportal/internal/platform/metrics"
	"govportal/pkg/platform/circuit"
)

// Publisher is the producer surface the forwarder needs.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, done func(error))
}

// KafkaForwarder implements audit.Forwarder. Publishing is asynchronous and
// failures are logged, never surfaced to the operation being audited. While
// the breaker is open records are not published and count as failures; the
// database copy is unaffected.
type KafkaForwarder struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	breaker   *circuit.Breaker
}

type ForwarderOption func(*KafkaForwarder)

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) ForwarderOption {
	return func(f *KafkaForwarder) {
		if b != nil {
			f.breaker = b
		}
	}
}

func NewKafkaForwarder(p Publisher, logger *slog.Logger, m *metrics.Metrics, opts ...ForwarderOption) *KafkaForwarder {
	f := &KafkaForwarder{
		publisher: p,
		logger:    logger,
		metrics:   m,
		breaker:   circuit.New("audit-stream"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// message is the wire format on the audit topic.
type message struct {
	ID        int64          `json:"id"`
	ActorID   *int64         `json:"actor_id"`
	Action    string         `json:"action"`
	SectorID  *int64         `json:"sector_id"`
	Timestamp string         `json:"timestamp"`
	Detail    map[string]any `json:"detail"`
}

func encode(rec audit.Record) ([]byte, []byte, error) {
	msg := message{
		ID:        int64(rec.ID),
		Action:    string(rec.Action),
		Timestamp: rec.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
		Detail:    rec.Detail,
	}
	key := []byte("system")
	if rec.ActorID != nil {
		v := int64(*rec.ActorID)
		msg.ActorID = &v
		key = []byte(strconv.FormatInt(v, 10))
	}
	if rec.SectorID != nil {
		v := int64(*rec.SectorID)
		msg.SectorID = &v
	}
	value, err := json.Marshal(msg)
	return key, value, err
}

func (f *KafkaForwarder) Forward(ctx context.Context, rec audit.Record) {
	key, value, err := encode(rec)
	if err != nil {
		f.fail(ctx, rec, err)
		return
	}
	if !f.breaker.Allow() {
		f.metrics.IncAuditForwardFailure()
		return
	}
	f.publisher.Publish(ctx, key, value, func(err error) {
		if err != nil {
			f.fail(ctx, rec, err)
			if _, change := f.breaker.RecordFailure(); change.Opened {
				f.logger.WarnContext(ctx, "audit stream paused", "breaker", f.breaker.Name())
			}
			return
		}
		if _, change := f.breaker.RecordSuccess(); change.Closed {
			f.logger.InfoContext(ctx, "audit stream resumed", "breaker", f.breaker.Name())
		}
	})
}

func (f *KafkaForwarder) fail(ctx context.Context, rec audit.Record, err error) {
	f.metrics.IncAuditForwardFailure()
	f.logger.WarnContext(ctx, "failed to forward audit record",
		"error", err,
		"record_id", int64(rec.ID),
		"action", string(rec.Action),
	)
}
