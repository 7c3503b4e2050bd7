package kafka

import (
	"context"

	"github.com/example/retail-pos/internal/logging"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

// MessageReader is the subset of *kafka.Reader the consumer loop needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader MessageReader
	log    *logrus.Entry
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(reader, groupID)
}

func NewConsumerWithReader(reader MessageReader, groupID string) *Consumer {
	return &Consumer{
		reader: reader,
		log:    logging.New("kafka-consumer").WithField("group", groupID),
	}
}

// Consume blocks until ctx is cancelled. Handler errors are logged and the message is skipped.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WithError(err).Warn("read message failed")
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Error("handle message failed")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
