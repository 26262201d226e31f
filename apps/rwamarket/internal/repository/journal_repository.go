package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/model"
)

// JournalRepository is the transactional outbox for marketplace activity.
type JournalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewJournalRepository(db *sql.DB, logger *zap.Logger) *JournalRepository {
	return &JournalRepository{db: db, logger: logger}
}

// RecordActivity journals an accepted transaction for publishing. Addresses
// are stored in their padded form so history lookups match any spelling.
func (j *JournalRepository) RecordActivity(ctx context.Context, event events.ActivityEvent) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	address := event.Address
	if ledger.IsValidID(address) {
		address = ledger.NormalizeID(address)
	}
	return j.StoreOutboxEvent(ctx, model.OutboxEvent{
		Digest:     event.Digest,
		EventType:  event.EventType,
		Status:     model.OutboxStatusUnsent,
		Address:    address,
		AssetID:    event.AssetID,
		Amount:     event.Amount,
		Quantity:   event.Quantity,
		EventBlob:  event.EventData,
		OccurredAt: occurredAt,
	})
}

func (j *JournalRepository) StoreOutboxEvent(ctx context.Context, event model.OutboxEvent) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO activity_outbox (digest, event_type, status, wallet_address, asset_id, amount, quantity, event_blob, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (digest, event_type) DO UPDATE SET
			status = EXCLUDED.status,
			wallet_address = EXCLUDED.wallet_address,
			asset_id = EXCLUDED.asset_id,
			amount = EXCLUDED.amount,
			quantity = EXCLUDED.quantity,
			event_blob = EXCLUDED.event_blob,
			occurred_at = EXCLUDED.occurred_at,
			created_at = NOW()
	`, event.Digest, event.EventType, event.Status, event.Address, event.AssetID, event.Amount, event.Quantity, blob(event.EventBlob), event.OccurredAt)

	if err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}

	j.logger.Info("Stored event", zap.String("event_type", event.EventType), zap.String("address", event.Address), zap.String("digest", event.Digest))
	return nil
}

func (j *JournalRepository) GetUnsentEventsForProcessing(limit int) ([]model.OutboxEvent, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // Will be ignored if tx.Commit() succeeds

	// Select and lock unsent events for processing
	rows, err := tx.Query(`
		SELECT digest, event_type, status, wallet_address, asset_id, amount, quantity, event_blob, occurred_at, created_at
		FROM activity_outbox
		WHERE status = 'unsent'
		ORDER BY created_at, digest
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outboxEvents []model.OutboxEvent
	for rows.Next() {
		var event model.OutboxEvent
		var eventBlob []byte
		if err := rows.Scan(&event.Digest, &event.EventType, &event.Status, &event.Address, &event.AssetID,
			&event.Amount, &event.Quantity, &eventBlob, &event.OccurredAt, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.EventBlob = eventBlob
		outboxEvents = append(outboxEvents, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Mark selected events as 'processing' so other publishers skip them
	for _, event := range outboxEvents {
		_, err = tx.Exec(`
			UPDATE activity_outbox
			SET status = 'processing'
			WHERE digest = $1 AND event_type = $2 AND status = 'unsent'
		`, event.Digest, event.EventType)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return outboxEvents, nil
}

func (j *JournalRepository) MarkEventAsSent(digest, eventType string) error {
	_, err := j.db.Exec(`
		UPDATE activity_outbox
		SET status = 'sent'
		WHERE digest = $1 AND event_type = $2
	`, digest, eventType)
	return err
}

// MarkEventAsFailed returns a processing event to the queue.
func (j *JournalRepository) MarkEventAsFailed(digest, eventType string) error {
	_, err := j.db.Exec(`
		UPDATE activity_outbox
		SET status = 'unsent'
		WHERE digest = $1 AND event_type = $2 AND status = 'processing'
	`, digest, eventType)
	return err
}

// blob renders a JSON document for a JSONB column.
func blob(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
