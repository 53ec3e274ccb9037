package repository

import (
	"context"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/pkg/kafka"
)

// KafkaPublisher streams trading events to a Kafka topic, keyed by symbol so
// per-symbol ordering holds within a partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.TradingEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
