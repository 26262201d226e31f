package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/assets"
	"rwamarket/apps/rwamarket/internal/faucet"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/model"
)

const (
	testMarketplaceID = "0x3333"
	testAsset         = "0xa55e7"
	testBuyer         = "0xb0b"
)

type buyCall struct {
	assetID      string
	quantity     uint64
	pricePerUnit uint64
	buyer        string
	partial      bool
}

type mintCall struct {
	kind     gateway.AssetKind
	req      gateway.MintRequest
	price    uint64
	quantity uint64
	listed   bool
}

type fakeMarketplace struct {
	listings    []gateway.ListingDTO
	listingsErr error
	assets      []gateway.AssetDTO
	wallet      *gateway.WalletBalance
	registry    *gateway.IssuerRegistry
	metrics     *gateway.PlatformMetrics
	paused      bool

	result gateway.Result

	buys    []buyCall
	mints   []mintCall
	lists   []gateway.ListRequest
	admin   []string
	issuers []string
}

func (f *fakeMarketplace) FetchMarketplaceListings(context.Context) ([]gateway.ListingDTO, error) {
	return f.listings, f.listingsErr
}

func (f *fakeMarketplace) FetchUserAssets(context.Context, string) ([]gateway.AssetDTO, error) {
	return f.assets, nil
}

func (f *fakeMarketplace) WalletBalances(context.Context, string) (*gateway.WalletBalance, error) {
	if f.wallet == nil {
		return nil, errors.New("rpc unavailable")
	}
	return f.wallet, nil
}

func (f *fakeMarketplace) MintUniqueAsset(_ context.Context, req gateway.MintRequest) gateway.Result {
	f.mints = append(f.mints, mintCall{kind: gateway.KindUnique, req: req})
	return f.result
}

func (f *fakeMarketplace) MintDivisibleAsset(_ context.Context, req gateway.MintRequest) gateway.Result {
	f.mints = append(f.mints, mintCall{kind: gateway.KindDivisible, req: req})
	return f.result
}

func (f *fakeMarketplace) CreateAndListAsset(_ context.Context, req gateway.MintRequest, price uint64, kind gateway.AssetKind, quantity uint64) gateway.Result {
	f.mints = append(f.mints, mintCall{kind: kind, req: req, price: price, quantity: quantity, listed: true})
	return f.result
}

func (f *fakeMarketplace) ListAsset(_ context.Context, req gateway.ListRequest) gateway.Result {
	f.lists = append(f.lists, req)
	return f.result
}

func (f *fakeMarketplace) BuyAsset(_ context.Context, assetID, buyer string) gateway.Result {
	f.buys = append(f.buys, buyCall{assetID: assetID, buyer: buyer})
	return f.result
}

func (f *fakeMarketplace) BuyAssetPartial(_ context.Context, assetID string, quantity, pricePerUnit uint64, buyer string) gateway.Result {
	f.buys = append(f.buys, buyCall{assetID: assetID, quantity: quantity, pricePerUnit: pricePerUnit, buyer: buyer, partial: true})
	return f.result
}

func (f *fakeMarketplace) AddIssuer(_ context.Context, issuer, name, metadataURI string) gateway.Result {
	f.admin = append(f.admin, "add_issuer")
	f.issuers = append(f.issuers, issuer)
	return f.result
}

func (f *fakeMarketplace) RemoveIssuer(_ context.Context, issuer string) gateway.Result {
	f.admin = append(f.admin, "remove_issuer")
	f.issuers = append(f.issuers, issuer)
	return f.result
}

func (f *fakeMarketplace) PauseMarketplace(context.Context) gateway.Result {
	f.admin = append(f.admin, "pause_marketplace")
	return f.result
}

func (f *fakeMarketplace) ResumeMarketplace(context.Context) gateway.Result {
	f.admin = append(f.admin, "resume_marketplace")
	return f.result
}

func (f *fakeMarketplace) GetAuthorizedIssuers(context.Context) (*gateway.IssuerRegistry, error) {
	if f.registry == nil {
		return nil, errors.New("registry unavailable")
	}
	return f.registry, nil
}

func (f *fakeMarketplace) IsMarketplacePaused(context.Context) (bool, error) {
	return f.paused, nil
}

func (f *fakeMarketplace) GetPlatformMetrics(context.Context) (*gateway.PlatformMetrics, error) {
	if f.metrics == nil {
		return nil, errors.New("marketplace unavailable")
	}
	return f.metrics, nil
}

func (f *fakeMarketplace) Currency() assets.Currency {
	return assets.OCT("0x2::oct::OCT")
}

type fakeFaucet struct {
	recipients []string
	err        error
}

func (f *fakeFaucet) Request(_ context.Context, recipient string) (*faucet.Response, error) {
	f.recipients = append(f.recipients, recipient)
	if f.err != nil {
		return nil, f.err
	}
	return &faucet.Response{
		TransferredGasObjects: []faucet.GasObject{{Amount: 10_000_000_000, ID: "0xfa", TransferTxDigest: "digest"}},
	}, nil
}

type fakeActivityStore struct {
	activities []model.Activity
	address    string
	limit      int
	offset     int
}

func (f *fakeActivityStore) GetActivitiesByAddress(walletAddress string, limit, offset int) ([]model.Activity, error) {
	f.address, f.limit, f.offset = walletAddress, limit, offset
	return f.activities, nil
}

type testServer struct {
	marketplace *fakeMarketplace
	faucet      *fakeFaucet
	activity    *fakeActivityStore
	handler     http.Handler
}

func newTestServer(t *testing.T, deps Dependencies) *testServer {
	t.Helper()

	ts := &testServer{
		marketplace: &fakeMarketplace{},
		faucet:      &fakeFaucet{},
		activity:    &fakeActivityStore{},
	}
	if deps.Marketplace == nil {
		deps.Marketplace = ts.marketplace
	}
	deps.MarketplaceID = testMarketplaceID

	server, err := NewServer(0, deps, zap.NewNop())
	require.NoError(t, err)
	ts.handler = server.setupRoutes()
	return ts
}

// newFullServer wires the optional faucet and activity store.
func newFullServer(t *testing.T) *testServer {
	t.Helper()

	marketplace := &fakeMarketplace{}
	faucetClient := &fakeFaucet{}
	store := &fakeActivityStore{}
	ts := newTestServer(t, Dependencies{Marketplace: marketplace, Faucet: faucetClient, Activity: store})
	ts.marketplace, ts.faucet, ts.activity = marketplace, faucetClient, store
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
