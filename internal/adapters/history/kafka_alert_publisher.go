package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/obs"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAlertPublisher emits each alert log as a JSON event keyed by user id,
// so one user's alerts stay ordered within a partition.
type KafkaAlertPublisher struct {
	writer messageWriter
}

func NewKafkaAlertPublisher(brokers []string, topic string) (*KafkaAlertPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("new kafka alert publisher: no brokers")
	}
	if topic == "" {
		return nil, errors.New("new kafka alert publisher: topic is empty")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaAlertPublisher{writer: w}, nil
}

func (k *KafkaAlertPublisher) RecordAlert(ctx context.Context, l domain.AlertLog) (err error) {
	defer obs.Time(ctx, "history.kafka.RecordAlert")(&err)

	b, err := json.Marshal(toRecord(l))
	if err != nil {
		return fmt.Errorf("publish alert: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(l.UserID),
		Value: b,
		Time:  l.CreatedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert id=%s: %w", l.ID, err)
	}
	return nil
}

func (k *KafkaAlertPublisher) Close() error {
	return k.writer.Close()
}
