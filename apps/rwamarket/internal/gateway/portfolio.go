package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/metadata"
)

// AssetDTO is an asset held directly by an address.
type AssetDTO struct {
	ObjectID    string               `json:"objectId"`
	Kind        AssetKind            `json:"kind"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Image       string               `json:"image"`
	AssetType   string               `json:"assetType"`
	TotalSupply uint64               `json:"totalSupply"`
	Issuer      string               `json:"issuer"`
	MetadataURI string               `json:"metadataUri"`
	Attributes  []metadata.Attribute `json:"attributes"`
}

// WalletBalance summarizes the coins an address holds.
type WalletBalance struct {
	Address         string           `json:"address"`
	Balances        []ledger.Balance `json:"balances"`
	PaymentCoinType string           `json:"paymentCoinType"`
	PaymentBalance  string           `json:"paymentBalance"`
}

// FetchUserAssets lists the unique and divisible assets owned by owner,
// enriched with metadata. Listed assets are in escrow and do not appear.
func (g *Gateway) FetchUserAssets(ctx context.Context, owner string) ([]AssetDTO, error) {
	if !ledger.IsValidID(owner) {
		return nil, invalidInput("owner %q is not a valid address", owner)
	}

	type ownedObject struct {
		kind AssetKind
		data *ledger.ObjectData
	}

	var owned []ownedObject
	for _, query := range []struct {
		kind       AssetKind
		structType string
	}{
		{KindUnique, g.uniqueAssetType()},
		{KindDivisible, g.divisibleAssetType()},
	} {
		objects, err := g.ownedObjects(ctx, owner, query.structType)
		if err != nil {
			return nil, err
		}
		for _, obj := range objects {
			owned = append(owned, ownedObject{kind: query.kind, data: obj})
		}
	}

	results := make([]AssetDTO, len(owned))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, obj := range owned {
		eg.Go(func() error {
			results[i] = g.buildAsset(egCtx, obj.kind, obj.data)
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to reconstruct assets: %w", err)
	}

	g.logger.Debug("Fetched user assets", zap.String("owner", owner), zap.Int("count", len(results)))
	return results, nil
}

func (g *Gateway) ownedObjects(ctx context.Context, owner, structType string) ([]*ledger.ObjectData, error) {
	var (
		objects []*ledger.ObjectData
		cursor  *string
	)
	for {
		page, err := g.ledger.GetOwnedObjects(ctx, owner, structType, cursor, pageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list owned assets: %w", err)
		}
		for _, item := range page.Data {
			if item.Data != nil {
				objects = append(objects, item.Data)
			}
		}
		cursor, err = nextCursor(cursor, page.NextCursor, page.HasNextPage)
		if err != nil {
			return nil, fmt.Errorf("failed to list owned assets: %w", err)
		}
		if cursor == nil {
			return objects, nil
		}
	}
}

func (g *Gateway) buildAsset(ctx context.Context, kind AssetKind, obj *ledger.ObjectData) AssetDTO {
	fields := obj.Fields()
	uri, _ := fields.String("metadata_uri")

	placeholder := PlaceholderName
	if kind == KindDivisible {
		placeholder = PlaceholderFTName
	}
	p := present(g.resolveMetadata(ctx, uri), placeholder)

	supply, ok := fields.Uint64("total_supply")
	if !ok {
		supply = 1
	}

	return AssetDTO{
		ObjectID:    obj.ObjectID,
		Kind:        kind,
		Name:        p.name,
		Description: p.description,
		Image:       p.image,
		AssetType:   g.assetTypeName(fields),
		TotalSupply: supply,
		Issuer:      stringOr(fields, "issuer", ""),
		MetadataURI: uri,
		Attributes:  p.attributes,
	}
}

// WalletBalances returns all coin balances of owner and the total held in
// the payment currency.
func (g *Gateway) WalletBalances(ctx context.Context, owner string) (*WalletBalance, error) {
	if !ledger.IsValidID(owner) {
		return nil, invalidInput("owner %q is not a valid address", owner)
	}

	balances, err := g.ledger.GetAllBalances(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", err)
	}

	payment := decimal.Zero
	for _, balance := range balances {
		if !ledger.SameType(balance.CoinType, g.contracts.PaymentCoinType) {
			continue
		}
		amount, err := decimal.NewFromString(balance.TotalBalance)
		if err != nil {
			g.logger.Warn("Ignoring unparseable balance",
				zap.String("coin_type", balance.CoinType),
				zap.String("total_balance", balance.TotalBalance))
			continue
		}
		payment = payment.Add(amount)
	}

	if balances == nil {
		balances = []ledger.Balance{}
	}
	return &WalletBalance{
		Address:         owner,
		Balances:        balances,
		PaymentCoinType: g.contracts.PaymentCoinType,
		PaymentBalance:  payment.String(),
	}, nil
}
