package events

import (
	"encoding/json"
	"time"
)

const (
	EventAssetMinted        = "asset_minted"
	EventAssetListed        = "asset_listed"
	EventAssetPurchased     = "asset_purchased"
	EventIssuerAdded        = "issuer_added"
	EventIssuerRemoved      = "issuer_removed"
	EventMarketplacePaused  = "marketplace_paused"
	EventMarketplaceResumed = "marketplace_resumed"
)

// ActivityEvent is a marketplace action the ledger has accepted. It travels
// from the outbox to Kafka and into the activity history.
type ActivityEvent struct {
	EventType  string          `json:"event_type"`
	Digest     string          `json:"digest"`
	Address    string          `json:"address"`
	AssetID    string          `json:"asset_id,omitempty"`
	Amount     string          `json:"amount,omitempty"`
	Quantity   uint64          `json:"quantity,omitempty"`
	EventData  json.RawMessage `json:"event_data,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Timestamp  time.Time       `json:"timestamp"`
}
