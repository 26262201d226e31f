package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/model"
)

const activityColumns = `activity_id, digest, activity_type, event_type, status, wallet_address, asset_id, amount, quantity, occurred_at, details`

type ActivityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewActivityRepository(db *sql.DB, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

func (r *ActivityRepository) UpsertActivity(activity model.Activity) error {
	var details any
	if len(activity.Details) > 0 {
		details = string(activity.Details)
	}

	_, err := r.db.Exec(`
		INSERT INTO activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (digest, event_type) DO UPDATE SET
			activity_type = EXCLUDED.activity_type,
			status = EXCLUDED.status,
			wallet_address = EXCLUDED.wallet_address,
			asset_id = EXCLUDED.asset_id,
			amount = EXCLUDED.amount,
			quantity = EXCLUDED.quantity,
			occurred_at = EXCLUDED.occurred_at,
			details = EXCLUDED.details
	`, activity.ActivityID, activity.Digest, activity.ActivityType, activity.EventType, activity.Status, activity.WalletAddress,
		activity.AssetID, activity.Amount, activity.Quantity, activity.OccurredAt, details)

	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}

	r.logger.Info("Upserted activity",
		zap.String("digest", activity.Digest),
		zap.String("activity_type", activity.ActivityType),
		zap.String("status", activity.Status),
		zap.String("wallet_address", activity.WalletAddress))
	return nil
}

// UpdateActivityStatus sets the status of the activity identified by id.
func (r *ActivityRepository) UpdateActivityStatus(activityID, status string) error {
	_, err := r.db.Exec(`
		UPDATE activities SET status = $1 WHERE activity_id = $2
	`, status, activityID)

	if err != nil {
		return fmt.Errorf("failed to update activity status: %w", err)
	}

	r.logger.Info("Updated activity status",
		zap.String("activity_id", activityID),
		zap.String("status", status))
	return nil
}

func (r *ActivityRepository) GetActivityByDigest(digest, eventType string) (*model.Activity, error) {
	row := r.db.QueryRow(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE digest = $1 AND event_type = $2
	`, digest, eventType)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// GetActiveListingByAsset returns the most recent open listing of an asset.
func (r *ActivityRepository) GetActiveListingByAsset(assetID string) (*model.Activity, error) {
	row := r.db.QueryRow(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE asset_id = $1 AND activity_type = 'listing' AND status = 'active'
		ORDER BY occurred_at DESC
		LIMIT 1
	`, assetID)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active listing: %w", err)
	}
	return activity, nil
}

// GetActivitiesByAddress returns an address's history, newest first.
func (r *ActivityRepository) GetActivitiesByAddress(walletAddress string, limit, offset int) ([]model.Activity, error) {
	rows, err := r.db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE wallet_address = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`, walletAddress, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*model.Activity, error) {
	var activity model.Activity
	var details []byte
	if err := row.Scan(&activity.ActivityID, &activity.Digest, &activity.ActivityType, &activity.EventType, &activity.Status,
		&activity.WalletAddress, &activity.AssetID, &activity.Amount, &activity.Quantity, &activity.OccurredAt, &details); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		activity.Details = details
	}
	return &activity, nil
}
