package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rwamarket/apps/rwamarket/internal/metadata"
)

func TestFetchMarketplaceListings_EmptyTable(t *testing.T) {
	env := newTestEnv(t)
	env.withMarketplace(t, nil)

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestFetchMarketplaceListings_NoListingsTable(t *testing.T) {
	env := newTestEnv(t)
	id := env.gateway.Contracts().MarketplaceObject
	env.ledger.objects[id] = object(t, id, map[string]any{"paused": false})

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ListingDTO{}, listings)
	assert.Zero(t, env.ledger.callCount("GetDynamicFields"))
}

func TestFetchMarketplaceListings_MarketplaceUnavailable(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch marketplace")
}

func TestFetchMarketplaceListings_DivisibleEscrow(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "0x11", "0xa2", map[string]any{
		"asset_id":           "0xa2",
		"seller":             testSender,
		"price_per_unit":     "2000000000",
		"available_quantity": "300",
	})
	env.escrow(t, testDivisibleEscrow, "0xa2", map[string]any{
		"metadata_uri": "ipfs://ft-doc",
		"total_supply": "1000",
		"asset_type":   2,
	})
	env.resolver.docs["ipfs://ft-doc"] = &metadata.Document{
		Name:        "Vault Gold",
		Description: "Allocated bullion",
		Image:       "https://gateway.example/ipfs/img",
		Attributes:  []metadata.Attribute{{TraitType: "purity", Value: "999.9"}},
	}
	env.withMarketplace(t, nil)

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)

	dto := listings[0]
	assert.Equal(t, "0xa2", dto.TokenID)
	assert.Equal(t, uint64(300), dto.AvailableTokens)
	assert.Equal(t, "2000000000", dto.PricePerToken)
	assert.Equal(t, "2000000000", dto.Price)
	assert.Equal(t, uint64(1000), dto.TotalSupply)
	assert.False(t, dto.IsNFT)
	assert.Equal(t, "Gold", dto.AssetType)
	assert.Equal(t, "Vault Gold", dto.Name)
	assert.Equal(t, testSender, dto.Seller)
	assert.Len(t, dto.Attributes, 1)
}

func TestFetchMarketplaceListings_MetadataUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "0x11", "0xa1", map[string]any{
		"asset_id": "0xa1",
		"seller":   testSender,
		"price":    "5000",
	})
	env.escrow(t, testUniqueEscrow, "0xa1", map[string]any{
		"metadata_uri": "ipfs://missing",
		"asset_type":   0,
	})
	env.resolver.errs["ipfs://missing"] = &metadata.ResolutionError{URI: "ipfs://missing", StatusCode: 404}
	env.withMarketplace(t, nil)

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)

	dto := listings[0]
	assert.Equal(t, PlaceholderName, dto.Name)
	assert.Equal(t, PlaceholderDescription, dto.Description)
	assert.Equal(t, PlaceholderImage, dto.Image)
	assert.NotNil(t, dto.Attributes)
	assert.True(t, dto.IsNFT)
	assert.Equal(t, uint64(1), dto.TotalSupply)
	assert.Equal(t, uint64(1), dto.AvailableTokens)
	assert.Equal(t, "5000", dto.Price)
	assert.Equal(t, "5000", dto.PricePerToken)
	assert.Equal(t, "RealEstate", dto.AssetType)
}

func TestFetchMarketplaceListings_SkipsAssetsOutsideEscrow(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "0x11", "0xa1", map[string]any{"asset_id": "0xa1", "price": "10"})
	env.addListing(t, "0x12", "0xa3", map[string]any{"asset_id": "0xa3", "price": "10"})
	env.escrow(t, testUniqueEscrow, "0xa1", map[string]any{"metadata_uri": "ipfs://a1"})
	env.withMarketplace(t, nil)

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "0xa1", listings[0].TokenID)
}

func TestFetchMarketplaceListings_StandaloneAssetAndKeyFallback(t *testing.T) {
	env := newTestEnv(t)
	// no asset_id in the listing value: the table key identifies the asset
	env.addListing(t, "0x11", "0xa4", map[string]any{"price": "7"})
	env.ledger.objects["0xa4"] = object(t, "0xa4", map[string]any{
		"metadata_uri": "https://example.com/doc.json",
		"asset_type":   3,
	})
	env.withMarketplace(t, nil)

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "0xa4", listings[0].TokenID)
	assert.Equal(t, "Stocks", listings[0].AssetType)
	assert.Zero(t, env.ledger.callCount("GetDynamicFieldObject"))
}

func TestFetchMarketplaceListings_FieldsAlwaysPopulated(t *testing.T) {
	env := newTestEnv(t)
	assetIDs := []string{"0xa1", "0xa2", "0xa3", "0xa4", "0xa5", "0xa6"}
	for i, assetID := range assetIDs {
		env.addListing(t, "0x1"+assetID[2:], assetID, map[string]any{"asset_id": assetID})
		escrowTable := testUniqueEscrow
		asset := map[string]any{"asset_type": 42}
		if i%2 == 1 {
			escrowTable = testDivisibleEscrow
			asset["total_supply"] = "50"
		}
		env.escrow(t, escrowTable, assetID, asset)
	}
	env.withMarketplace(t, nil)

	listings, err := env.gateway.FetchMarketplaceListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, len(assetIDs))

	for i, dto := range listings {
		assert.Equal(t, assetIDs[i], dto.TokenID, "enumeration order")
		assert.NotEmpty(t, dto.Name)
		assert.NotEmpty(t, dto.Description)
		assert.NotEmpty(t, dto.Image)
		assert.Equal(t, placeholderPrice, dto.Price)
		assert.Equal(t, placeholderPrice, dto.PricePerToken)
		assert.NotNil(t, dto.Attributes)
		assert.Equal(t, "Custom", dto.AssetType)
		assert.NotZero(t, dto.TotalSupply)
		assert.NotZero(t, dto.AvailableTokens)
		if dto.IsNFT {
			assert.Equal(t, PlaceholderName, dto.Name)
		}
	}
}

func TestFetchMarketplaceListings_Canceled(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "0x11", "0xa1", map[string]any{"asset_id": "0xa1"})
	env.escrow(t, testUniqueEscrow, "0xa1", map[string]any{})
	env.withMarketplace(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.gateway.FetchMarketplaceListings(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
