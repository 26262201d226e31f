package event_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/model"
)

const (
	publishInterval = 3 * time.Second
	batchSize       = 100
)

// Outbox is the journal the publisher drains.
type Outbox interface {
	GetUnsentEventsForProcessing(limit int) ([]model.OutboxEvent, error)
	MarkEventAsSent(digest, eventType string) error
	MarkEventAsFailed(digest, eventType string) error
}

type EventPublisher struct {
	logger        *zap.Logger
	kafkaProducer *kafka.Producer
	kafkaTopic    string
	outbox        Outbox
	mu            sync.Mutex // one publishing pass at a time
}

func NewEventPublisher(kafkaBroker, kafkaTopic string, logger *zap.Logger, outbox Outbox) (*EventPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaBroker,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &EventPublisher{
		logger:        logger,
		kafkaProducer: producer,
		kafkaTopic:    kafkaTopic,
		outbox:        outbox,
	}, nil
}

// StartPublishing drains the outbox until ctx is done.
func (ep *EventPublisher) StartPublishing(ctx context.Context) {
	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info("Stopping event publisher")
			return
		case <-ticker.C:
			if err := ep.publishUnsentEvents(); err != nil {
				ep.logger.Error("Error publishing events to Kafka", zap.Error(err))
			}
		}
	}
}

func (ep *EventPublisher) publishUnsentEvents() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	outboxEvents, err := ep.outbox.GetUnsentEventsForProcessing(batchSize)
	if err != nil {
		return err
	}

	successCount := 0
	for _, event := range outboxEvents {
		if err := ep.publishEventToKafka(event); err != nil {
			ep.logger.Error("Failed to publish event to Kafka", zap.String("digest", event.Digest), zap.String("event_type", event.EventType), zap.Error(err))
			// back to 'unsent' for retry
			if markErr := ep.outbox.MarkEventAsFailed(event.Digest, event.EventType); markErr != nil {
				ep.logger.Error("Failed to mark event as failed", zap.String("digest", event.Digest), zap.String("event_type", event.EventType), zap.Error(markErr))
			}
			continue
		}

		if err := ep.outbox.MarkEventAsSent(event.Digest, event.EventType); err != nil {
			// published but still 'processing'; the materializer tolerates the duplicate
			ep.logger.Error("Failed to mark event as sent", zap.String("digest", event.Digest), zap.String("event_type", event.EventType), zap.Error(err))
		} else {
			successCount++
		}
	}

	if successCount > 0 {
		ep.logger.Info("Published events to Kafka", zap.Int("success_count", successCount), zap.Int("attempted", len(outboxEvents)))
	}

	return nil
}

func (ep *EventPublisher) publishEventToKafka(event model.OutboxEvent) error {
	msg, err := buildMessage(ep.kafkaTopic, event, time.Now().UTC())
	if err != nil {
		return err
	}

	deliveryChan := make(chan kafka.Event)
	defer close(deliveryChan)

	if err := ep.kafkaProducer.Produce(msg, deliveryChan); err != nil {
		return err
	}

	// Wait for delivery confirmation
	e := <-deliveryChan
	switch ev := e.(type) {
	case *kafka.Message:
		if ev.TopicPartition.Error != nil {
			return ev.TopicPartition.Error
		}
		return nil
	default:
		return fmt.Errorf("unexpected kafka event type: %T", e)
	}
}

// buildMessage keys messages by wallet address so an address's history
// stays on one partition, in order.
func buildMessage(topic string, event model.OutboxEvent, now time.Time) (*kafka.Message, error) {
	payload := events.ActivityEvent{
		EventType:  event.EventType,
		Digest:     event.Digest,
		Address:    event.Address,
		AssetID:    event.AssetID,
		Amount:     event.Amount,
		Quantity:   event.Quantity,
		EventData:  event.EventBlob,
		OccurredAt: event.OccurredAt,
		Timestamp:  now,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity event %s: %w", event.Digest, err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Address),
		Value:          value,
	}, nil
}

func (ep *EventPublisher) Close() error {
	if ep.kafkaProducer != nil {
		ep.kafkaProducer.Flush(5000)
		ep.kafkaProducer.Close()
	}
	return nil
}
