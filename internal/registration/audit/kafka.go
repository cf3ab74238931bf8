package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher writes audit events to a Kafka (or Redpanda) topic, keyed by
// registration id so events for one registration stay ordered.
type KafkaPublisher struct {
	client *kgo.Client
	log    *slog.Logger
}

// NewKafkaPublisher connects to the given brokers and produces to topic.
func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaPublisher{client: client, log: log}, nil
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.RegistrationID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}

	p.log.DebugContext(ctx, "audit event published",
		"action", event.Action,
		"registration_id", event.RegistrationID,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
