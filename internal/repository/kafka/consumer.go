package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	topic  string
	log    *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			StartOffset: kafka.FirstOffset,
			Topic:       topic,
			GroupID:     groupID,
			MaxWait:     10 * time.Second,
		}),
		topic: topic,
		log:   log.With("component", "kafka.consumer", "topic", topic),
	}
}

func (c *Consumer) CheckConnection(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", c.reader.Config().Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer conn.Close()

	// Проверить топик
	partitions, err := conn.ReadPartitions(c.topic)
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	c.log.Info("kafka connection ok", "partitions", len(partitions))
	return nil
}

// ReadEvent fetches the next message and decodes its JSON value into v.
// The message is returned even when decoding fails so it can be committed.
func (c *Consumer) ReadEvent(ctx context.Context, v interface{}) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return msg, err
	}

	c.log.Debug("received message",
		"key", string(msg.Key),
		"partition", msg.Partition,
		"offset", msg.Offset,
		"value_length", len(msg.Value))

	if err := json.Unmarshal(msg.Value, v); err != nil {
		return msg, fmt.Errorf("decode message at offset %d: %w", msg.Offset, err)
	}

	return msg, nil
}

func (c *Consumer) CommitMessage(ctx context.Context, msg kafka.Message) error {
	return c.reader.CommitMessages(ctx, msg)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) Topic() string {
	return c.topic
}
