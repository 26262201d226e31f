package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/model"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func pausedResult() gateway.Result {
	err := &gateway.LedgerSubmissionError{Raw: "MoveAbort(..., 3)", Reason: gateway.ReasonMarketplacePaused}
	return gateway.Result{Message: err.Error(), Err: err}
}

func TestNewServerRequiresMarketplace(t *testing.T) {
	_, err := NewServer(8080, Dependencies{}, zap.NewNop())
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, Dependencies{})

	rec := ts.do(http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec.Body.Bytes())
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetListings(t *testing.T) {
	t.Run("empty marketplace", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.listings = []gateway.ListingDTO{}

		rec := ts.do(http.MethodGet, "/api/listings", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"listings":[],"count":0}`, rec.Body.String())
	})

	t.Run("listings are passed through", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.listings = []gateway.ListingDTO{
			{TokenID: testAsset, Name: "Bond", Price: "600000000000", PricePerToken: "2000000000", TotalSupply: 1000, AvailableTokens: 300},
		}

		rec := ts.do(http.MethodGet, "/api/listings", "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[ListingsResponse](t, rec.Body.Bytes())
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, uint64(300), body.Listings[0].AvailableTokens)
		assert.Equal(t, "2000000000", body.Listings[0].PricePerToken)
	})

	t.Run("ledger failure", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.listingsErr = errors.New("connection refused")

		rec := ts.do(http.MethodGet, "/api/listings", "")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "ledger_unavailable", decode[ErrorResponse](t, rec.Body.Bytes()).Error)
	})
}

func TestBuyListing(t *testing.T) {
	t.Run("without quantity buys the whole listing", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.result = gateway.Result{Success: true, Digest: "digest"}

		rec := ts.do(http.MethodPost, "/api/listings/"+testAsset+"/buy", `{"buyer":"0xb0b"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, ts.marketplace.buys, 1)
		assert.False(t, ts.marketplace.buys[0].partial)
		assert.Equal(t, testAsset, ts.marketplace.buys[0].assetID)
		assert.Equal(t, testBuyer, ts.marketplace.buys[0].buyer)
		assert.JSONEq(t, `{"success":true,"digest":"digest"}`, rec.Body.String())
	})

	t.Run("quantity buys part at the unit price in base units", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.result = gateway.Result{Success: true, Digest: "digest"}

		rec := ts.do(http.MethodPost, "/api/listings/"+testAsset+"/buy", `{"buyer":"0xb0b","quantity":3,"price_per_unit":"2"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, ts.marketplace.buys, 1)
		call := ts.marketplace.buys[0]
		assert.True(t, call.partial)
		assert.Equal(t, uint64(3), call.quantity)
		assert.Equal(t, uint64(2_000_000_000), call.pricePerUnit)
	})

	t.Run("paused marketplace is a conflict with the user message", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.result = pausedResult()

		rec := ts.do(http.MethodPost, "/api/listings/"+testAsset+"/buy", `{"buyer":"0xb0b"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decode[ErrorResponse](t, rec.Body.Bytes())
		assert.Equal(t, "marketplace_paused", body.Error)
		assert.Equal(t, "Marketplace is currently paused.", body.Message)
	})

	t.Run("missing payment coin", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		err := &gateway.NoPaymentCoinError{CoinType: "0x2::oct::OCT"}
		ts.marketplace.result = gateway.Result{Message: err.Error(), Err: err}

		rec := ts.do(http.MethodPost, "/api/listings/"+testAsset+"/buy", `{"buyer":"0xb0b"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "no_payment_coin", decode[ErrorResponse](t, rec.Body.Bytes()).Error)
	})

	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"invalid asset id", "/api/listings/not-an-id/buy", `{"buyer":"0xb0b"}`, "invalid_asset_id"},
		{"malformed body", "/api/listings/" + testAsset + "/buy", `{`, "invalid_request_body"},
		{"missing buyer", "/api/listings/" + testAsset + "/buy", `{}`, "missing_buyer"},
		{"partial without unit price", "/api/listings/" + testAsset + "/buy", `{"buyer":"0xb0b","quantity":2}`, "invalid_price"},
		{"unit price with too many decimals", "/api/listings/" + testAsset + "/buy", `{"buyer":"0xb0b","quantity":2,"price_per_unit":"0.0000000001"}`, "invalid_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Dependencies{})

			rec := ts.do(http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec.Body.Bytes()).Error)
			assert.Empty(t, ts.marketplace.buys)
		})
	}
}

func TestCreateListing(t *testing.T) {
	ts := newTestServer(t, Dependencies{})
	ts.marketplace.result = gateway.Result{Success: true, AssetID: testAsset, Digest: "digest"}

	rec := ts.do(http.MethodPost, "/api/listings", `{"asset_id":"0xa55e7","kind":"ft","price":"1.5","quantity":100,"total_supply":1000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.marketplace.lists, 1)
	assert.Equal(t, gateway.ListRequest{
		AssetID:     testAsset,
		Kind:        gateway.KindDivisible,
		Price:       1_500_000_000,
		Quantity:    100,
		TotalSupply: 1000,
	}, ts.marketplace.lists[0])

	rec = ts.do(http.MethodPost, "/api/listings", `{"asset_id":"0xa55e7","kind":"bond","price":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_kind", decode[ErrorResponse](t, rec.Body.Bytes()).Error)

	rec = ts.do(http.MethodPost, "/api/listings", `{"asset_id":"0xa55e7","kind":"nft","price":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_price", decode[ErrorResponse](t, rec.Body.Bytes()).Error)
	assert.Len(t, ts.marketplace.lists, 1)
}

func TestMintAsset(t *testing.T) {
	t.Run("kind defaults to unique", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.result = gateway.Result{Success: true, AssetID: testAsset, Digest: "digest"}

		rec := ts.do(http.MethodPost, "/api/assets/mint", `{"name":"Deed","metadata_uri":"ipfs://deed","asset_type":"real_estate","valuation":500000}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, ts.marketplace.mints, 1)
		assert.Equal(t, gateway.KindUnique, ts.marketplace.mints[0].kind)
		assert.Equal(t, uint64(500000), ts.marketplace.mints[0].req.Valuation)
		assert.Equal(t, testAsset, decode[OperationResponse](t, rec.Body.Bytes()).AssetID)
	})

	t.Run("divisible mint", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.result = gateway.Result{Success: true, AssetID: testAsset}

		rec := ts.do(http.MethodPost, "/api/assets/mint", `{"kind":"ft","metadata_uri":"ipfs://bond","total_supply":1000,"apy_bps":450}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, ts.marketplace.mints, 1)
		mint := ts.marketplace.mints[0]
		assert.Equal(t, gateway.KindDivisible, mint.kind)
		require.NotNil(t, mint.req.APYBasisPoints)
		assert.Equal(t, uint64(450), *mint.req.APYBasisPoints)
		assert.Nil(t, mint.req.MaturityDate)
	})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing metadata uri", `{"name":"Deed"}`, "missing_metadata_uri"},
		{"unknown kind", `{"kind":"bond","metadata_uri":"ipfs://x"}`, "invalid_kind"},
		{"divisible without supply", `{"kind":"ft","metadata_uri":"ipfs://x"}`, "missing_total_supply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Dependencies{})

			rec := ts.do(http.MethodPost, "/api/assets/mint", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec.Body.Bytes()).Error)
			assert.Empty(t, ts.marketplace.mints)
		})
	}

	t.Run("read-only gateway", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		ts.marketplace.result = gateway.Result{Message: gateway.ErrNoSession.Error(), Err: gateway.ErrNoSession}

		rec := ts.do(http.MethodPost, "/api/assets/mint", `{"metadata_uri":"ipfs://x"}`)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "signer_unavailable", decode[ErrorResponse](t, rec.Body.Bytes()).Error)
	})
}

func TestCreateAndList(t *testing.T) {
	ts := newTestServer(t, Dependencies{})
	ts.marketplace.result = gateway.Result{
		Success: true,
		AssetID: testAsset,
		Message: "Asset created but listing failed: Marketplace is currently paused.",
	}

	rec := ts.do(http.MethodPost, "/api/assets/create-and-list", `{"kind":"ft","metadata_uri":"ipfs://bond","total_supply":1000,"price":"0.25","quantity":10}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.marketplace.mints, 1)
	mint := ts.marketplace.mints[0]
	assert.True(t, mint.listed)
	assert.Equal(t, uint64(250_000_000), mint.price)
	assert.Equal(t, uint64(10), mint.quantity)

	body := decode[OperationResponse](t, rec.Body.Bytes())
	assert.True(t, body.Success)
	assert.Equal(t, "Asset created but listing failed: Marketplace is currently paused.", body.Message)

	rec = ts.do(http.MethodPost, "/api/assets/create-and-list", `{"metadata_uri":"ipfs://x","price":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_price", decode[ErrorResponse](t, rec.Body.Bytes()).Error)
}

func TestGetUserAssets(t *testing.T) {
	ts := newTestServer(t, Dependencies{})
	ts.marketplace.assets = []gateway.AssetDTO{{ObjectID: testAsset, Kind: gateway.KindUnique, Name: "Deed"}}

	rec := ts.do(http.MethodGet, "/api/assets/0xb0b", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[AssetsResponse](t, rec.Body.Bytes())
	assert.Equal(t, testBuyer, body.Address)
	require.Len(t, body.Assets, 1)
	assert.Equal(t, "Deed", body.Assets[0].Name)

	rec = ts.do(http.MethodGet, "/api/assets/bob", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminWrites(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		operation string
	}{
		{"add issuer", http.MethodPost, "/api/admin/issuers", `{"address":"0x1551","name":"Acme","metadata_uri":"ipfs://acme"}`, "add_issuer"},
		{"remove issuer", http.MethodDelete, "/api/admin/issuers/0x1551", "", "remove_issuer"},
		{"pause", http.MethodPost, "/api/admin/pause", "", "pause_marketplace"},
		{"resume", http.MethodPost, "/api/admin/resume", "", "resume_marketplace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Dependencies{})
			ts.marketplace.result = gateway.Result{Success: true, Digest: "digest"}

			rec := ts.do(tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{tt.operation}, ts.marketplace.admin)
		})
	}

	t.Run("unauthorized signer surfaces the ledger text", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})
		err := gateway.ClassifySubmissionError("MoveAbort(MoveLocation { module: ModuleId { name: Identifier(\"admin\") } }, 0)")
		ts.marketplace.result = gateway.Result{Message: err.Error(), Err: err}

		rec := ts.do(http.MethodPost, "/api/admin/pause", "")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		body := decode[ErrorResponse](t, rec.Body.Bytes())
		assert.Equal(t, "ledger_rejected", body.Error)
		assert.Contains(t, body.Message, "Operation failed: ")
	})

	t.Run("invalid issuer address", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})

		rec := ts.do(http.MethodPost, "/api/admin/issuers", `{"address":"acme"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, ts.marketplace.admin)
	})
}

func TestAdminReads(t *testing.T) {
	ts := newTestServer(t, Dependencies{})
	ts.marketplace.registry = &gateway.IssuerRegistry{
		Addresses: []string{"0x1551"},
		Count:     1,
		Metadata:  map[string]string{"0x1551": "ipfs://acme"},
	}
	ts.marketplace.metrics = &gateway.PlatformMetrics{TotalIssuers: 1, TotalListings: 4, MarketplaceActive: false}

	rec := ts.do(http.MethodGet, "/api/admin/issuers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[gateway.IssuerRegistry](t, rec.Body.Bytes()).Count)

	rec = ts.do(http.MethodGet, "/api/admin/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusResponse{
		Paused:            true,
		TotalIssuers:      1,
		TotalListings:     4,
		MarketplaceActive: false,
		Marketplace:       testMarketplaceID,
	}, decode[StatusResponse](t, rec.Body.Bytes()))
}

func TestGetBalance(t *testing.T) {
	ts := newTestServer(t, Dependencies{})
	ts.marketplace.wallet = &gateway.WalletBalance{
		Address:         testBuyer,
		Balances:        []ledger.Balance{{CoinType: "0x2::oct::OCT", CoinObjectCount: 2, TotalBalance: "2500000000"}},
		PaymentCoinType: "0x2::oct::OCT",
		PaymentBalance:  "2500000000",
	}

	rec := ts.do(http.MethodGet, "/api/wallet/0xb0b/balance", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[BalanceResponse](t, rec.Body.Bytes())
	assert.Equal(t, "2.5", body.Balance)
	assert.Equal(t, "2500000000", body.BalanceBase)
	assert.Equal(t, "OCT", body.Symbol)
	assert.Len(t, body.Coins, 1)

	ts.marketplace.wallet = nil
	rec = ts.do(http.MethodGet, "/api/wallet/0xb0b/balance", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRequestFaucet(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})

		rec := ts.do(http.MethodPost, "/api/faucet", `{"address":"0xb0b"}`)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("funds the address", func(t *testing.T) {
		ts := newFullServer(t)

		rec := ts.do(http.MethodPost, "/api/faucet", `{"address":"0xb0b"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{testBuyer}, ts.faucet.recipients)
		assert.Contains(t, rec.Body.String(), `"transferTxDigest":"digest"`)
	})

	t.Run("faucet rejection", func(t *testing.T) {
		ts := newFullServer(t)
		ts.faucet.err = fmt.Errorf("faucet returned status 429")

		rec := ts.do(http.MethodPost, "/api/faucet", `{"address":"0xb0b"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "faucet returned status 429", decode[ErrorResponse](t, rec.Body.Bytes()).Message)
	})
}

func TestGetActivity(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t, Dependencies{})

		rec := ts.do(http.MethodGet, "/api/activity/0xb0b", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("queries the normalized address with paging", func(t *testing.T) {
		ts := newFullServer(t)
		ts.activity.activities = []model.Activity{{Digest: "digest", ActivityType: model.ActivityPurchase, Status: model.StatusCompleted}}

		rec := ts.do(http.MethodGet, "/api/activity/0xb0b?limit=10&offset=20", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ledger.NormalizeID(testBuyer), ts.activity.address)
		assert.Equal(t, 10, ts.activity.limit)
		assert.Equal(t, 20, ts.activity.offset)
		body := decode[ActivityResponse](t, rec.Body.Bytes())
		require.Len(t, body.Activities, 1)
		assert.Equal(t, model.ActivityPurchase, body.Activities[0].ActivityType)
	})

	t.Run("out of range paging falls back to defaults", func(t *testing.T) {
		ts := newFullServer(t)

		rec := ts.do(http.MethodGet, "/api/activity/0xb0b?limit=5000&offset=-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, defaultActivityLimit, ts.activity.limit)
		assert.Equal(t, 0, ts.activity.offset)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Dependencies{})
	ts.marketplace.listings = []gateway.ListingDTO{}

	ts.do(http.MethodGet, "/api/listings", "")
	ts.do(http.MethodGet, "/api/assets/0xb0b", "")

	rec := ts.do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `rwamarket_api_requests_total{method="GET",path="/api/listings",status="200"} 1`)
	assert.Contains(t, body, `path="/api/assets/{address}"`)
}
