package repository

import (
	"context"

	"BrandPulse/internal/domain/models"
	domrepo "BrandPulse/internal/domain/repository"
	pkgkafka "BrandPulse/pkg/kafka"
)

// KafkaDecisionPublisher emits finished decisions to Kafka, keyed by brand so
// per-brand ordering holds for downstream consumers.
type KafkaDecisionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaDecisionPublisher(producer *pkgkafka.Producer, topic string) domrepo.DecisionPublisher {
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

func (p *KafkaDecisionPublisher) Publish(ctx context.Context, d *models.Decision) error {
	return p.producer.Publish(ctx, p.topic, []byte(d.Brand), d)
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
