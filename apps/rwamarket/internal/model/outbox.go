package model

import (
	"encoding/json"
	"time"
)

const (
	OutboxStatusUnsent     = "unsent"
	OutboxStatusProcessing = "processing"
	OutboxStatusSent       = "sent"
)

// OutboxEvent is a journaled marketplace transaction waiting to be published.
type OutboxEvent struct {
	Digest     string          `db:"digest"`
	EventType  string          `db:"event_type"`
	Status     string          `db:"status"`
	Address    string          `db:"wallet_address"`
	AssetID    string          `db:"asset_id"`
	Amount     string          `db:"amount"`
	Quantity   uint64          `db:"quantity"`
	EventBlob  json.RawMessage `db:"event_blob"`
	OccurredAt time.Time       `db:"occurred_at"`
	CreatedAt  time.Time       `db:"created_at"`
}
