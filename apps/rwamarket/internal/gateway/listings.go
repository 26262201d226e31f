package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/metadata"
)

const (
	PlaceholderName        = "Unnamed Asset"
	PlaceholderFTName      = "Unnamed FT Asset"
	PlaceholderDescription = "No description."
	PlaceholderImage       = "/placeholder.svg"
	placeholderPrice       = "0"
)

// ListingDTO is a marketplace listing joined with its asset and metadata.
// Every field is always populated.
type ListingDTO struct {
	TokenID         string               `json:"tokenId"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Image           string               `json:"image"`
	Price           string               `json:"price"`
	PricePerToken   string               `json:"pricePerToken"`
	TotalSupply     uint64               `json:"totalSupply"`
	AvailableTokens uint64               `json:"availableTokens"`
	Seller          string               `json:"seller"`
	Attributes      []metadata.Attribute `json:"attributes"`
	AssetType       string               `json:"assetType"`
	MetadataURI     string               `json:"metadataUri"`
	IsNFT           bool                 `json:"isNft"`
}

type escrowTables struct {
	unique    string
	divisible string
}

type listingEntry struct {
	key      string
	objectID string
}

// FetchMarketplaceListings rebuilds every current listing from ledger state.
// Listings are reconstructed concurrently and returned in table enumeration
// order. A listing whose asset cannot be found is left out.
func (g *Gateway) FetchMarketplaceListings(ctx context.Context) ([]ListingDTO, error) {
	market, err := g.ledger.GetObject(ctx, g.contracts.MarketplaceObject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch marketplace: %w", err)
	}

	fields := market.Fields()
	tableID, ok := fields.TableID(g.contracts.ListingsField)
	if !ok {
		g.logger.Info("Marketplace has no listings table", zap.String("marketplace", g.contracts.MarketplaceObject))
		return []ListingDTO{}, nil
	}

	escrows := escrowTables{}
	escrows.unique, _ = fields.TableID(g.contracts.UniqueEscrowField)
	escrows.divisible, _ = fields.TableID(g.contracts.DivisibleEscrowField)

	entries, err := g.listingEntries(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []ListingDTO{}, nil
	}

	results := make([]*ListingDTO, len(entries))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, entry := range entries {
		eg.Go(func() error {
			results[i] = g.reconstructListing(egCtx, entry, escrows)
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to reconstruct listings: %w", err)
	}

	listings := make([]ListingDTO, 0, len(results))
	for _, dto := range results {
		if dto != nil {
			listings = append(listings, *dto)
		}
	}

	g.logger.Info("Reconstructed marketplace listings",
		zap.Int("entries", len(entries)),
		zap.Int("listings", len(listings)))
	return listings, nil
}

func (g *Gateway) listingEntries(ctx context.Context, tableID string) ([]listingEntry, error) {
	var (
		entries []listingEntry
		cursor  *string
	)
	for {
		page, err := g.ledger.GetDynamicFields(ctx, tableID, cursor, pageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate listings: %w", err)
		}
		for _, field := range page.Data {
			key, _ := field.Name.StringValue()
			entries = append(entries, listingEntry{key: key, objectID: field.ObjectID})
		}
		cursor, err = nextCursor(cursor, page.NextCursor, page.HasNextPage)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate listings: %w", err)
		}
		if cursor == nil {
			return entries, nil
		}
	}
}

func (g *Gateway) reconstructListing(ctx context.Context, entry listingEntry, escrows escrowTables) *ListingDTO {
	logger := g.logger.With(zap.String("listing", entry.objectID))

	listingObj, err := g.ledger.GetObject(ctx, entry.objectID)
	if err != nil {
		logger.Warn("Skipping listing: cannot read listing object", zap.Error(err))
		return nil
	}

	listing, ok := listingObj.Fields().Struct("value")
	if !ok {
		listing = listingObj.Fields()
	}

	assetID, ok := listing.String("asset_id")
	if !ok || assetID == "" {
		assetID = entry.key
	}
	if assetID == "" {
		logger.Warn("Skipping listing: no asset id")
		return nil
	}

	asset, ok := g.resolveListedAsset(ctx, assetID, escrows)
	if !ok {
		logger.Debug("Skipping listing: asset not found in escrow", zap.String("asset_id", assetID))
		return nil
	}

	uri, _ := asset.String("metadata_uri")
	doc := g.resolveMetadata(ctx, uri)

	totalSupply, divisible := asset.Uint64("total_supply")
	if !divisible {
		totalSupply = 1
	}

	available, ok := listing.Uint64("available_quantity")
	if !ok {
		available, ok = listing.Uint64("quantity")
	}
	if !ok {
		available = totalSupply
	}

	p := present(doc, PlaceholderName)
	return &ListingDTO{
		TokenID:         assetID,
		Name:            p.name,
		Description:     p.description,
		Image:           p.image,
		Price:           firstNumber(listing, "price", "price_per_unit"),
		PricePerToken:   firstNumber(listing, "price_per_unit", "price"),
		TotalSupply:     totalSupply,
		AvailableTokens: available,
		Seller:          stringOr(listing, "seller", ""),
		Attributes:      p.attributes,
		AssetType:       g.assetTypeName(asset),
		MetadataURI:     uri,
		IsNFT:           !divisible,
	}
}

// resolveListedAsset finds a listed asset's fields. The asset may still be a
// standalone object, or it may sit in either escrow table: the listing does
// not say which representation it is.
func (g *Gateway) resolveListedAsset(ctx context.Context, assetID string, escrows escrowTables) (ledger.Fields, bool) {
	if obj, err := g.ledger.GetObject(ctx, assetID); err == nil {
		if fields := obj.Fields(); fields != nil {
			return fields, true
		}
	} else if !errors.Is(err, ledger.ErrObjectNotFound) {
		g.logger.Debug("Standalone asset lookup failed", zap.String("asset_id", assetID), zap.Error(err))
	}

	for _, table := range []string{escrows.unique, escrows.divisible} {
		if table == "" {
			continue
		}
		obj, err := g.ledger.GetDynamicFieldObject(ctx, table, ledger.IDName(assetID))
		if err != nil {
			continue
		}
		if value, ok := obj.Fields().Struct("value"); ok {
			return value, true
		}
	}

	return nil, false
}

// resolveMetadata never fails: resolution errors are logged and yield nil.
func (g *Gateway) resolveMetadata(ctx context.Context, uri string) *metadata.Document {
	if g.resolver == nil || uri == "" {
		return nil
	}
	doc, err := g.resolver.Resolve(ctx, uri)
	if err != nil {
		g.logger.Warn("Metadata unavailable, using placeholders", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	return doc
}

func (g *Gateway) assetTypeName(asset ledger.Fields) string {
	for _, key := range []string{"asset_type", "asset_type_index"} {
		if index, ok := asset.Uint64(key); ok && index <= 255 {
			return g.assetTypes.Name(uint8(index))
		}
	}
	return g.assetTypes.Name(255)
}

// presentation is the descriptive part of a DTO, with placeholders filled in.
type presentation struct {
	name        string
	description string
	image       string
	attributes  []metadata.Attribute
}

func present(doc *metadata.Document, placeholderName string) presentation {
	p := presentation{
		name:        placeholderName,
		description: PlaceholderDescription,
		image:       PlaceholderImage,
		attributes:  []metadata.Attribute{},
	}
	if doc == nil {
		return p
	}
	if doc.Name != "" {
		p.name = doc.Name
	}
	if doc.Description != "" {
		p.description = doc.Description
	}
	if doc.Image != "" {
		p.image = doc.Image
	}
	if doc.Attributes != nil {
		p.attributes = doc.Attributes
	}
	return p
}

func firstNumber(fields ledger.Fields, keys ...string) string {
	for _, key := range keys {
		if n, ok := fields.Uint64(key); ok {
			return strconv.FormatUint(n, 10)
		}
	}
	return placeholderPrice
}

func stringOr(fields ledger.Fields, key, fallback string) string {
	if s, ok := fields.String(key); ok {
		return s
	}
	return fallback
}
