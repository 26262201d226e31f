package model

import (
	"encoding/json"
	"time"
)

const (
	ActivityMint        = "mint"
	ActivityListing     = "listing"
	ActivityPurchase    = "purchase"
	ActivityIssuer      = "issuer"
	ActivityMarketplace = "marketplace"

	StatusCompleted = "completed"
	StatusActive    = "active" // listing still open
	StatusSold      = "sold"   // unique listing bought
	StatusUnknown   = "unknown"
)

// Activity is one entry of an address's marketplace history.
type Activity struct {
	ActivityID    string          `db:"activity_id" json:"activityId"`
	Digest        string          `db:"digest" json:"digest"`
	ActivityType  string          `db:"activity_type" json:"activityType"`
	EventType     string          `db:"event_type" json:"eventType"`
	Status        string          `db:"status" json:"status"`
	WalletAddress string          `db:"wallet_address" json:"walletAddress"`
	AssetID       *string         `db:"asset_id" json:"assetId,omitempty"` // nullable
	Amount        *string         `db:"amount" json:"amount,omitempty"`    // nullable
	Quantity      uint64          `db:"quantity" json:"quantity"`
	OccurredAt    time.Time       `db:"occurred_at" json:"occurredAt"`
	Details       json.RawMessage `db:"details" json:"details,omitempty"`
}
