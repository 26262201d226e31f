// Package gateway builds marketplace transactions and reconstructs the
// marketplace read model from ledger state. It keeps no state between calls:
// every operation re-reads what it needs.
package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/assets"
	"rwamarket/apps/rwamarket/internal/config"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/metadata"
)

const (
	rwaAssetModule       = "rwaasset"
	marketplaceModule    = "marketplace"
	issuerRegistryModule = "issuer_registry"
	adminModule          = "admin"

	uniqueAssetStruct    = "RWAAssetNFT"
	divisibleAssetStruct = "RWAAssetFT"

	defaultConcurrency = 8
	pageLimit          = 50
)

// nextCursor returns the cursor of the following page, or nil once the last
// page has been read. A cursor equal to the one just requested is an error.
func nextCursor(current, next *string, hasNext bool) (*string, error) {
	if !hasNext || next == nil {
		return nil, nil
	}
	if current != nil && *current == *next {
		return nil, fmt.Errorf("ledger returned a non-advancing page cursor %q", *next)
	}
	return next, nil
}

// LedgerReader is the read side of the ledger RPC.
type LedgerReader interface {
	GetObject(ctx context.Context, id string) (*ledger.ObjectData, error)
	GetDynamicFields(ctx context.Context, parentID string, cursor *string, limit int) (*ledger.DynamicFieldPage, error)
	GetDynamicFieldObject(ctx context.Context, parentID string, name ledger.DynamicFieldName) (*ledger.ObjectData, error)
	GetCoins(ctx context.Context, owner, coinType string, cursor *string, limit int) (*ledger.CoinPage, error)
	GetAllCoins(ctx context.Context, owner string, cursor *string, limit int) (*ledger.CoinPage, error)
	GetAllBalances(ctx context.Context, owner string) ([]ledger.Balance, error)
	GetTransactionBlock(ctx context.Context, digest string) (*ledger.TransactionResponse, error)
	GetOwnedObjects(ctx context.Context, owner, structType string, cursor *string, limit int) (*ledger.ObjectPage, error)
}

// Session is the caller's identity and signing capability. The gateway never
// touches keys.
type Session interface {
	CurrentAddress(ctx context.Context) (string, error)
	SubmitTransaction(ctx context.Context, plan *ledger.TransactionPlan) (*ledger.TransactionResponse, error)
}

// MetadataResolver fetches off-chain metadata. It returns nil, nil for URIs
// it does not handle.
type MetadataResolver interface {
	Resolve(ctx context.Context, uri string) (*metadata.Document, error)
}

// ActivityRecorder journals accepted transactions.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, event events.ActivityEvent) error
}

// OperationObserver is told the outcome of every write operation.
type OperationObserver interface {
	ObserveOperation(operation string, success bool)
}

type Options struct {
	Ledger      LedgerReader
	Session     Session
	Resolver    MetadataResolver
	Recorder    ActivityRecorder
	Observer    OperationObserver
	Contracts   config.Contracts
	Concurrency int
	Logger      *zap.Logger
}

// Gateway is the marketplace's transaction-construction and read-model layer.
type Gateway struct {
	ledger      LedgerReader
	session     Session
	resolver    MetadataResolver
	recorder    ActivityRecorder
	observer    OperationObserver
	contracts   config.Contracts
	assetTypes  *assets.AssetRegistry
	currency    assets.Currency
	concurrency int
	logger      *zap.Logger
}

// New creates a gateway. Ledger and the contract coordinates are required;
// without a Session the gateway is read-only.
func New(opts Options) (*Gateway, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("ledger reader is required")
	}
	if opts.Contracts.MarketplaceObject == "" || opts.Contracts.MarketplacePackage == "" {
		return nil, fmt.Errorf("marketplace package and object are required")
	}
	if opts.Contracts.PaymentCoinType == "" {
		return nil, fmt.Errorf("payment coin type is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Gateway{
		ledger:      opts.Ledger,
		session:     opts.Session,
		resolver:    opts.Resolver,
		recorder:    opts.Recorder,
		observer:    opts.Observer,
		contracts:   opts.Contracts,
		assetTypes:  assets.NewAssetRegistry(),
		currency:    assets.OCT(opts.Contracts.PaymentCoinType),
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Contracts returns the deployment the gateway talks to.
func (g *Gateway) Contracts() config.Contracts {
	return g.contracts
}

// Currency returns the payment currency.
func (g *Gateway) Currency() assets.Currency {
	return g.currency
}

// AssetTypes returns the asset type registry used for encoding.
func (g *Gateway) AssetTypes() *assets.AssetRegistry {
	return g.assetTypes
}

func (g *Gateway) uniqueAssetType() string {
	return fmt.Sprintf("%s::%s::%s", g.contracts.RWAAssetPackage, rwaAssetModule, uniqueAssetStruct)
}

func (g *Gateway) divisibleAssetType() string {
	return fmt.Sprintf("%s::%s::%s", g.contracts.RWAAssetPackage, rwaAssetModule, divisibleAssetStruct)
}

func (g *Gateway) newPlan(sender string) *ledger.TransactionPlan {
	return ledger.NewTransactionPlan(sender, g.contracts.GasBudget)
}
