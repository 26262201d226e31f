package gateway

import (
	"context"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// Not every signer or client version embeds the created object in its
// immediate response, so the new id is recovered by trying, in order, each
// place it can show up. Each step runs only when the previous found nothing.
// Removing a step reintroduces mints that report no asset id.

type recoveryInput struct {
	response   *ledger.TransactionResponse
	sender     string
	objectType string
}

type idStrategy struct {
	name string
	find func(ctx context.Context, in recoveryInput) (string, bool)
}

func (g *Gateway) idStrategies() []idStrategy {
	return []idStrategy{
		// object changes carry the created type
		{name: "object_changes", find: func(_ context.Context, in recoveryInput) (string, bool) {
			return createdByType(in.response, in.objectType)
		}},
		// effects list created objects without types; take the one the sender owns
		{name: "created_effects", find: func(_ context.Context, in recoveryInput) (string, bool) {
			return createdBySender(in.response, in.sender)
		}},
		// some responses omit both; read the executed transaction back
		{name: "transaction_lookup", find: g.findInTransaction},
		// newest object of the type in the sender's account
		{name: "owned_objects", find: g.findNewestOwned},
	}
}

// recoverCreatedID returns the id of the object created by resp, falling back
// to the transaction digest as an opaque handle.
func (g *Gateway) recoverCreatedID(ctx context.Context, resp *ledger.TransactionResponse, sender, objectType string) string {
	in := recoveryInput{response: resp, sender: sender, objectType: objectType}

	for _, strategy := range g.idStrategies() {
		if id, ok := strategy.find(ctx, in); ok {
			g.logger.Debug("Recovered created object id",
				zap.String("strategy", strategy.name),
				zap.String("object_id", id),
				zap.String("digest", resp.Digest))
			return id
		}
	}

	g.logger.Warn("Could not recover created object id, using digest",
		zap.String("digest", resp.Digest),
		zap.String("object_type", objectType))
	return resp.Digest
}

func createdByType(resp *ledger.TransactionResponse, objectType string) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, change := range resp.ObjectChanges {
		if change.Type == "created" && change.ObjectID != "" && ledger.SameType(change.ObjectType, objectType) {
			return change.ObjectID, true
		}
	}
	return "", false
}

func createdBySender(resp *ledger.TransactionResponse, sender string) (string, bool) {
	if resp == nil || resp.Effects == nil {
		return "", false
	}
	for _, created := range resp.Effects.Created {
		owner := created.Owner.AddressOwner
		if owner == "" || created.Reference.ObjectID == "" {
			continue
		}
		if sender == "" || ledger.SameID(owner, sender) {
			return created.Reference.ObjectID, true
		}
	}
	return "", false
}

func (g *Gateway) findInTransaction(ctx context.Context, in recoveryInput) (string, bool) {
	if in.response == nil || !ledger.IsValidDigest(in.response.Digest) {
		return "", false
	}
	tx, err := g.ledger.GetTransactionBlock(ctx, in.response.Digest)
	if err != nil {
		g.logger.Debug("Transaction lookup failed", zap.String("digest", in.response.Digest), zap.Error(err))
		return "", false
	}
	if id, ok := createdByType(tx, in.objectType); ok {
		return id, true
	}
	return createdBySender(tx, in.sender)
}

func (g *Gateway) findNewestOwned(ctx context.Context, in recoveryInput) (string, bool) {
	if in.sender == "" || in.objectType == "" {
		return "", false
	}

	var (
		newestID      string
		newestVersion ledger.Version
		cursor        *string
	)
	for {
		page, err := g.ledger.GetOwnedObjects(ctx, in.sender, in.objectType, cursor, pageLimit)
		if err != nil {
			g.logger.Debug("Owned object lookup failed", zap.String("owner", in.sender), zap.Error(err))
			break
		}
		for _, item := range page.Data {
			if item.Data == nil || item.Data.ObjectID == "" {
				continue
			}
			if newestID == "" || item.Data.Version > newestVersion {
				newestID = item.Data.ObjectID
				newestVersion = item.Data.Version
			}
		}
		cursor, err = nextCursor(cursor, page.NextCursor, page.HasNextPage)
		if err != nil {
			g.logger.Debug("Owned object lookup stopped", zap.String("owner", in.sender), zap.Error(err))
			break
		}
		if cursor == nil {
			break
		}
	}

	return newestID, newestID != ""
}
