package activity_materializer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/model"
)

// ActivityStore persists the materialized activity history.
type ActivityStore interface {
	UpsertActivity(activity model.Activity) error
	UpdateActivityStatus(activityID, status string) error
	GetActivityByDigest(digest, eventType string) (*model.Activity, error)
	GetActiveListingByAsset(assetID string) (*model.Activity, error)
}

type ActivityMaterializer struct {
	logger        *zap.Logger
	kafkaConsumer *kafka.Consumer
	store         ActivityStore
	kafkaTopic    string
	closed        atomic.Bool
}

func NewActivityMaterializer(kafkaBroker, kafkaTopic string, logger *zap.Logger, store ActivityStore) (*ActivityMaterializer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaBroker,
		"group.id":          "activity-materializer",
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &ActivityMaterializer{
		logger:        logger,
		kafkaConsumer: consumer,
		store:         store,
		kafkaTopic:    kafkaTopic,
	}, nil
}

// Start consumes activity events until the consumer is closed.
func (am *ActivityMaterializer) Start() error {
	am.logger.Info("Starting Activity Materializer...")

	if err := am.kafkaConsumer.Subscribe(am.kafkaTopic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", am.kafkaTopic, err)
	}

	for {
		msg, err := am.kafkaConsumer.ReadMessage(-1)
		if am.closed.Load() {
			return nil
		}
		if err != nil {
			if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrFatal {
				return fmt.Errorf("kafka consumer failed: %w", err)
			}
			am.logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		if err := am.processMessage(msg); err != nil {
			am.logger.Error("Error processing message",
				zap.String("topic", *msg.TopicPartition.Topic),
				zap.Int32("partition", msg.TopicPartition.Partition),
				zap.String("key", string(msg.Key)),
				zap.Error(err))
		}
	}
}

func (am *ActivityMaterializer) processMessage(msg *kafka.Message) error {
	var event events.ActivityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal activity event: %w", err)
	}
	if event.Digest == "" || event.EventType == "" {
		return fmt.Errorf("activity event is missing digest or event type")
	}

	am.logger.Info("Processing activity event",
		zap.String("event_type", event.EventType),
		zap.String("digest", event.Digest),
		zap.String("wallet_address", event.Address))

	activityType, status := am.mapEventToActivityAndStatus(event.EventType)

	// redelivered events keep their id
	activityID := uuid.New().String()
	existing, err := am.store.GetActivityByDigest(event.Digest, event.EventType)
	if err != nil {
		return fmt.Errorf("failed to look up activity %s: %w", event.Digest, err)
	}
	if existing != nil {
		activityID = existing.ActivityID
		if existing.Status == model.StatusSold {
			status = existing.Status
		}
	}

	activity := model.Activity{
		ActivityID:    activityID,
		Digest:        event.Digest,
		ActivityType:  activityType,
		EventType:     event.EventType,
		Status:        status,
		WalletAddress: event.Address,
		AssetID:       nullable(event.AssetID),
		Amount:        nullable(event.Amount),
		Quantity:      event.Quantity,
		OccurredAt:    event.OccurredAt,
		Details:       event.EventData,
	}
	if activity.OccurredAt.IsZero() {
		activity.OccurredAt = event.Timestamp
	}

	if err := am.store.UpsertActivity(activity); err != nil {
		return err
	}

	if strings.ToLower(event.EventType) == events.EventAssetPurchased {
		return am.closeListing(event)
	}
	return nil
}

// closeListing marks the open listing of a bought unique asset as sold.
// Partial purchases of divisible listings carry a quantity and leave the
// listing open.
func (am *ActivityMaterializer) closeListing(event events.ActivityEvent) error {
	if event.AssetID == "" || event.Quantity > 0 {
		return nil
	}

	listing, err := am.store.GetActiveListingByAsset(event.AssetID)
	if err != nil {
		return fmt.Errorf("failed to find active listing for asset %s: %w", event.AssetID, err)
	}
	if listing == nil {
		am.logger.Debug("No active listing to close", zap.String("asset_id", event.AssetID))
		return nil
	}

	if err := am.store.UpdateActivityStatus(listing.ActivityID, model.StatusSold); err != nil {
		return fmt.Errorf("failed to mark listing as sold: %w", err)
	}

	am.logger.Info("Marked listing as sold",
		zap.String("asset_id", event.AssetID),
		zap.String("listing_digest", listing.Digest),
		zap.String("purchase_digest", event.Digest))
	return nil
}

func (am *ActivityMaterializer) mapEventToActivityAndStatus(eventType string) (activityType, status string) {
	switch strings.ToLower(eventType) {
	case events.EventAssetMinted:
		return model.ActivityMint, model.StatusCompleted
	case events.EventAssetListed:
		return model.ActivityListing, model.StatusActive
	case events.EventAssetPurchased:
		return model.ActivityPurchase, model.StatusCompleted
	case events.EventIssuerAdded, events.EventIssuerRemoved:
		return model.ActivityIssuer, model.StatusCompleted
	case events.EventMarketplacePaused, events.EventMarketplaceResumed:
		return model.ActivityMarketplace, model.StatusCompleted
	default:
		am.logger.Warn("Unknown event type", zap.String("event_type", eventType))
		return eventType, model.StatusUnknown
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (am *ActivityMaterializer) Close() error {
	am.closed.Store(true)
	if am.kafkaConsumer != nil {
		return am.kafkaConsumer.Close()
	}
	return nil
}
