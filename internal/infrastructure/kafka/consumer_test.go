package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestConsumer_DeliversMessagesUntilCancelled(t *testing.T) {
	reader := &fakeReader{
		messages: []kafka.Message{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
		},
		errs: []error{errors.New("transient")},
	}
	consumer := NewConsumerWithReader(reader, "test")

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var keys []string
	done := make(chan error, 1)

	go func() {
		done <- consumer.Consume(ctx, func(_ context.Context, key, _ []byte) error {
			mu.Lock()
			defer mu.Unlock()
			keys = append(keys, string(key))
			if len(keys) == 1 {
				return errors.New("handler failure is skipped")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(keys) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}
