package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// AssetKind selects the unique (NFT-like) or divisible (FT-like) representation.
type AssetKind string

const (
	KindUnique    AssetKind = "nft"
	KindDivisible AssetKind = "ft"
)

// operation labels reported to the OperationObserver
const (
	opMintUnique    = "mint_unique"
	opMintDivisible = "mint_divisible"
	opList          = "list"
)

// ParseAssetKind accepts "nft"/"unique" and "ft"/"divisible".
func ParseAssetKind(s string) (AssetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nft", "unique":
		return KindUnique, nil
	case "ft", "divisible":
		return KindDivisible, nil
	default:
		return "", invalidInput("unknown asset kind %q", s)
	}
}

// MintRequest describes an asset to mint. IssuerCap and IssuerRegistry
// default to the configured deployment.
type MintRequest struct {
	Name           string
	MetadataURI    string
	AssetType      string
	Valuation      uint64
	MaturityDate   *uint64
	APYBasisPoints *uint64
	TotalSupply    uint64
	IssuerCap      string
	IssuerRegistry string
}

// ListRequest describes a listing. Price is the whole price of a unique asset
// or the per-unit price of a divisible one.
type ListRequest struct {
	AssetID     string
	Kind        AssetKind
	Price       uint64
	Quantity    uint64
	TotalSupply uint64
}

// MintUniqueAsset mints an NFT-like asset and returns its object id.
func (g *Gateway) MintUniqueAsset(ctx context.Context, req MintRequest) Result {
	return g.observe(opMintUnique, g.mintUniqueAsset(ctx, req))
}

func (g *Gateway) mintUniqueAsset(ctx context.Context, req MintRequest) Result {
	if req.MetadataURI == "" {
		return failed(invalidInput("metadata URI is required"))
	}

	sender, err := g.currentAddress(ctx)
	if err != nil {
		return failed(err)
	}

	hasMaturity, maturity := optional(req.MaturityDate)
	hasAPY, apy := optional(req.APYBasisPoints)

	plan := g.newPlan(sender)
	plan.MoveCall(ledger.MoveTarget(g.contracts.RWAAssetPackage, rwaAssetModule, "mint_asset_nft"), nil,
		ledger.Object(g.issuerCap(req)),
		ledger.PureString(req.MetadataURI),
		ledger.PureU8(g.assetTypes.Index(req.AssetType)),
		ledger.PureU64(req.Valuation),
		ledger.PureBool(hasMaturity),
		ledger.PureU64(maturity),
		ledger.PureBool(hasAPY),
		ledger.PureU64(apy),
		ledger.Object(g.issuerRegistry(req)),
	)

	return g.mint(ctx, opMintUnique, plan, sender, g.uniqueAssetType(), req, KindUnique)
}

// MintDivisibleAsset mints an FT-like asset with a fixed total supply.
func (g *Gateway) MintDivisibleAsset(ctx context.Context, req MintRequest) Result {
	return g.observe(opMintDivisible, g.mintDivisibleAsset(ctx, req))
}

func (g *Gateway) mintDivisibleAsset(ctx context.Context, req MintRequest) Result {
	if req.MetadataURI == "" {
		return failed(invalidInput("metadata URI is required"))
	}
	if req.TotalSupply == 0 {
		return failed(invalidInput("total supply must be positive"))
	}

	sender, err := g.currentAddress(ctx)
	if err != nil {
		return failed(err)
	}

	plan := g.newPlan(sender)
	plan.MoveCall(ledger.MoveTarget(g.contracts.RWAAssetPackage, rwaAssetModule, "mint_asset_ft"), nil,
		ledger.Object(g.issuerCap(req)),
		ledger.PureString(req.MetadataURI),
		ledger.PureU8(g.assetTypes.Index(req.AssetType)),
		ledger.PureU64(req.TotalSupply),
		ledger.Object(g.issuerRegistry(req)),
	)

	return g.mint(ctx, opMintDivisible, plan, sender, g.divisibleAssetType(), req, KindDivisible)
}

func (g *Gateway) mint(ctx context.Context, operation string, plan *ledger.TransactionPlan, sender, objectType string, req MintRequest, kind AssetKind) Result {
	resp, err := g.execute(ctx, plan)
	if err != nil {
		g.logger.Error("Mint rejected", zap.String("operation", operation), zap.Error(err))
		return failed(err)
	}

	assetID := g.recoverCreatedID(ctx, resp, sender, objectType)

	g.record(ctx, events.ActivityEvent{
		EventType: events.EventAssetMinted,
		Digest:    resp.Digest,
		Address:   sender,
		AssetID:   assetID,
		Quantity:  supplyOf(kind, req.TotalSupply),
		EventData: eventData(map[string]any{
			"kind":         kind,
			"name":         req.Name,
			"asset_type":   g.assetTypes.Name(g.assetTypes.Index(req.AssetType)),
			"metadata_uri": req.MetadataURI,
		}),
	})

	g.logger.Info("Minted asset",
		zap.String("operation", operation),
		zap.String("asset_id", assetID),
		zap.String("digest", resp.Digest))
	return succeeded(assetID, resp.Digest)
}

// CreateAndListAsset mints and then lists an asset as two separate
// submissions. A listing failure after a successful mint still reports
// success: the asset exists and is owned by the caller, and Message says why
// it is not listed. It is observed once, as create_and_list.
func (g *Gateway) CreateAndListAsset(ctx context.Context, req MintRequest, price uint64, kind AssetKind, quantity uint64) Result {
	const operation = "create_and_list"

	if price == 0 {
		return g.observe(operation, failed(invalidInput("price must be positive")))
	}

	var minted Result
	switch kind {
	case KindUnique:
		minted = g.mintUniqueAsset(ctx, req)
	case KindDivisible:
		minted = g.mintDivisibleAsset(ctx, req)
	default:
		return g.observe(operation, failed(invalidInput("unknown asset kind %q", kind)))
	}
	if !minted.Success {
		return g.observe(operation, minted)
	}

	listReq := ListRequest{AssetID: minted.AssetID, Kind: kind, Price: price}
	if kind == KindDivisible {
		listReq.TotalSupply = req.TotalSupply
		listReq.Quantity = quantity
		if listReq.Quantity == 0 {
			listReq.Quantity = req.TotalSupply
		}
	}

	listed := g.listAsset(ctx, listReq)
	if !listed.Success {
		g.logger.Warn("Asset minted but listing failed",
			zap.String("asset_id", minted.AssetID),
			zap.String("reason", listed.Message))
		return g.observe(operation, Result{
			Success: true,
			AssetID: minted.AssetID,
			Digest:  minted.Digest,
			Message: "Asset created but listing failed: " + listed.Message,
			Err:     listed.Err,
		})
	}

	return g.observe(operation, succeeded(minted.AssetID, listed.Digest))
}

// ListAsset moves an owned asset into marketplace escrow.
func (g *Gateway) ListAsset(ctx context.Context, req ListRequest) Result {
	return g.observe(opList, g.listAsset(ctx, req))
}

func (g *Gateway) listAsset(ctx context.Context, req ListRequest) Result {
	if err := validateListRequest(req); err != nil {
		return failed(err)
	}

	sender, err := g.currentAddress(ctx)
	if err != nil {
		return failed(err)
	}

	plan := g.newPlan(sender)
	switch req.Kind {
	case KindUnique:
		plan.MoveCall(ledger.MoveTarget(g.contracts.MarketplacePackage, marketplaceModule, "list_asset_nft"), nil,
			ledger.Object(g.contracts.MarketplaceObject),
			ledger.Object(g.contracts.IssuerRegistryObject),
			ledger.Object(req.AssetID),
			ledger.PureU64(req.Price),
			ledger.Object(g.contracts.Clock),
		)
	case KindDivisible:
		plan.MoveCall(ledger.MoveTarget(g.contracts.MarketplacePackage, marketplaceModule, "list_asset_ft"), nil,
			ledger.Object(g.contracts.MarketplaceObject),
			ledger.Object(g.contracts.IssuerRegistryObject),
			ledger.Object(req.AssetID),
			ledger.PureU64(req.Price),
			ledger.PureU64(req.Quantity),
			ledger.PureU64(req.TotalSupply),
			ledger.Object(g.contracts.Clock),
		)
	}

	resp, err := g.execute(ctx, plan)
	if err != nil {
		g.logger.Error("Listing rejected", zap.String("asset_id", req.AssetID), zap.Error(err))
		return failed(err)
	}

	g.record(ctx, events.ActivityEvent{
		EventType: events.EventAssetListed,
		Digest:    resp.Digest,
		Address:   sender,
		AssetID:   req.AssetID,
		Amount:    strconv.FormatUint(req.Price, 10),
		Quantity:  supplyOf(req.Kind, req.Quantity),
		EventData: eventData(map[string]any{"kind": req.Kind, "total_supply": req.TotalSupply}),
	})

	g.logger.Info("Listed asset",
		zap.String("asset_id", req.AssetID),
		zap.String("kind", string(req.Kind)),
		zap.Uint64("price", req.Price),
		zap.String("digest", resp.Digest))
	return succeeded(req.AssetID, resp.Digest)
}

// BuyAsset buys a whole listing, paying with the buyer's first payment coin.
func (g *Gateway) BuyAsset(ctx context.Context, assetID, buyer string) Result {
	const operation = "buy"

	if !ledger.IsValidID(assetID) {
		return g.observe(operation, failed(invalidInput("asset id %q is not a valid object id", assetID)))
	}
	if !ledger.IsValidID(buyer) {
		return g.observe(operation, failed(invalidInput("buyer %q is not a valid address", buyer)))
	}

	coin, err := g.selectPaymentCoin(ctx, buyer)
	if err != nil {
		return g.observe(operation, failed(err))
	}

	plan := g.newPlan(buyer)
	plan.MoveCall(ledger.MoveTarget(g.contracts.MarketplacePackage, marketplaceModule, "buy_asset"),
		[]string{g.contracts.PaymentCoinType},
		ledger.Object(g.contracts.MarketplaceObject),
		ledger.PureID(assetID),
		ledger.Object(coin.CoinObjectID),
	)

	return g.buy(ctx, operation, plan, assetID, buyer, "", 0)
}

// BuyAssetPartial buys quantity units of a divisible listing. Exactly
// quantity*pricePerUnit is split off the payment coin inside the transaction.
func (g *Gateway) BuyAssetPartial(ctx context.Context, assetID string, quantity, pricePerUnit uint64, buyer string) Result {
	const operation = "buy_partial"

	if !ledger.IsValidID(assetID) {
		return g.observe(operation, failed(invalidInput("asset id %q is not a valid object id", assetID)))
	}
	if !ledger.IsValidID(buyer) {
		return g.observe(operation, failed(invalidInput("buyer %q is not a valid address", buyer)))
	}
	if quantity == 0 {
		return g.observe(operation, failed(invalidInput("quantity must be positive")))
	}
	if pricePerUnit == 0 {
		return g.observe(operation, failed(invalidInput("price per unit must be positive")))
	}
	hi, total := bits.Mul64(quantity, pricePerUnit)
	if hi != 0 {
		return g.observe(operation, failed(invalidInput("total price of %d x %d overflows", quantity, pricePerUnit)))
	}

	coin, err := g.selectPaymentCoin(ctx, buyer)
	if err != nil {
		return g.observe(operation, failed(err))
	}

	plan := g.newPlan(buyer)
	payment := plan.SplitCoins(ledger.Object(coin.CoinObjectID), ledger.PureU64(total))
	plan.MoveCall(ledger.MoveTarget(g.contracts.MarketplacePackage, marketplaceModule, "buy_asset_partial"),
		[]string{g.contracts.PaymentCoinType},
		ledger.Object(g.contracts.MarketplaceObject),
		ledger.PureID(assetID),
		ledger.PureU64(quantity),
		payment,
	)

	return g.buy(ctx, operation, plan, assetID, buyer, strconv.FormatUint(total, 10), quantity)
}

func (g *Gateway) buy(ctx context.Context, operation string, plan *ledger.TransactionPlan, assetID, buyer, amount string, quantity uint64) Result {
	resp, err := g.execute(ctx, plan)
	if err != nil {
		g.logger.Error("Purchase rejected",
			zap.String("asset_id", assetID),
			zap.String("buyer", buyer),
			zap.Error(err))
		return g.observe(operation, failed(err))
	}

	g.record(ctx, events.ActivityEvent{
		EventType: events.EventAssetPurchased,
		Digest:    resp.Digest,
		Address:   buyer,
		AssetID:   assetID,
		Amount:    amount,
		Quantity:  quantity,
	})

	g.logger.Info("Purchased asset",
		zap.String("asset_id", assetID),
		zap.String("buyer", buyer),
		zap.String("digest", resp.Digest))
	return g.observe(operation, succeeded(assetID, resp.Digest))
}

func validateListRequest(req ListRequest) error {
	if !ledger.IsValidID(req.AssetID) {
		return invalidInput("asset id %q is not a valid object id", req.AssetID)
	}
	if req.Price == 0 {
		return invalidInput("price must be positive")
	}
	switch req.Kind {
	case KindUnique:
		return nil
	case KindDivisible:
		if req.TotalSupply == 0 {
			return invalidInput("total supply is required to list a divisible asset")
		}
		if req.Quantity == 0 || req.Quantity > req.TotalSupply {
			return invalidInput("quantity %d must be between 1 and total supply %d", req.Quantity, req.TotalSupply)
		}
		return nil
	default:
		return invalidInput("unknown asset kind %q", req.Kind)
	}
}

// execute submits plan and turns any rejection into a LedgerSubmissionError.
func (g *Gateway) execute(ctx context.Context, plan *ledger.TransactionPlan) (*ledger.TransactionResponse, error) {
	if g.session == nil {
		return nil, ErrNoSession
	}
	resp, err := g.session.SubmitTransaction(ctx, plan)
	if err != nil {
		return nil, ClassifySubmissionError(err.Error())
	}
	if !resp.Succeeded() {
		return nil, ClassifySubmissionError(resp.FailureMessage())
	}
	return resp, nil
}

func (g *Gateway) currentAddress(ctx context.Context) (string, error) {
	if g.session == nil {
		return "", ErrNoSession
	}
	address, err := g.session.CurrentAddress(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current address: %w", err)
	}
	return address, nil
}

// record journals an accepted transaction. Journal failures never affect
// the operation's result.
func (g *Gateway) record(ctx context.Context, event events.ActivityEvent) {
	if g.recorder == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := g.recorder.RecordActivity(ctx, event); err != nil {
		g.logger.Warn("Failed to journal activity",
			zap.String("event_type", event.EventType),
			zap.String("digest", event.Digest),
			zap.Error(err))
	}
}

func (g *Gateway) observe(operation string, result Result) Result {
	if g.observer != nil {
		g.observer.ObserveOperation(operation, result.Success)
	}
	return result
}

func (g *Gateway) issuerCap(req MintRequest) string {
	if req.IssuerCap != "" {
		return req.IssuerCap
	}
	return g.contracts.IssuerCap
}

func (g *Gateway) issuerRegistry(req MintRequest) string {
	if req.IssuerRegistry != "" {
		return req.IssuerRegistry
	}
	return g.contracts.IssuerRegistryObject
}

func optional(v *uint64) (bool, uint64) {
	if v == nil {
		return false, 0
	}
	return true, *v
}

func supplyOf(kind AssetKind, n uint64) uint64 {
	if kind == KindUnique {
		return 1
	}
	return n
}

func eventData(fields map[string]any) json.RawMessage {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return data
}
