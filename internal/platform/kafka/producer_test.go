package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestNewProducerNeedsBrokers(t *testing.T) {
	_, err := NewProducer(nil, "audit")
	assert.Error(t, err)
}

func TestPublishFailsFastWhenBufferIsFull(t *testing.T) {
	// Nothing listens on this port, so the first record stays buffered.
	p, err := NewProducer([]string{"127.0.0.1:1"}, "audit", WithMaxBuffered(1))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_ = p.Close(ctx)
	})

	p.Publish(context.Background(), []byte("k"), []byte("first"), nil)

	done := make(chan error, 1)
	start := time.Now()
	p.Publish(context.Background(), []byte("k"), []byte("second"), func(err error) { done <- err })

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, kgo.ErrMaxBuffered), "got %v", err)
		assert.Less(t, time.Since(start), time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}
