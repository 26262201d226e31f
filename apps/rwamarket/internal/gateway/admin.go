package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// IssuerRegistry is the set of addresses allowed to mint.
type IssuerRegistry struct {
	Addresses []string          `json:"addresses"`
	Count     int               `json:"count"`
	Metadata  map[string]string `json:"metadata"`
}

// PlatformMetrics summarizes marketplace state.
type PlatformMetrics struct {
	TotalIssuers      int    `json:"totalIssuers"`
	TotalListings     uint64 `json:"totalListings"`
	MarketplaceActive bool   `json:"marketplaceStatus"`
}

// Administrative writes carry no local authorization check; the contracts
// reject callers without the admin or registry capability.

// AddIssuer authorizes issuer to mint.
func (g *Gateway) AddIssuer(ctx context.Context, issuer, name, metadataURI string) Result {
	if !ledger.IsValidID(issuer) {
		return g.observe("add_issuer", failed(invalidInput("issuer %q is not a valid address", issuer)))
	}
	return g.adminCall(ctx, "add_issuer", events.EventIssuerAdded, issuer,
		ledger.MoveTarget(g.contracts.IssuerRegistryPackage, issuerRegistryModule, "add_issuer"),
		ledger.Object(g.contracts.IssuerRegistryObject),
		ledger.PureAddress(issuer),
		ledger.PureString(name),
		ledger.PureString(metadataURI),
	)
}

// RemoveIssuer revokes issuer's authorization.
func (g *Gateway) RemoveIssuer(ctx context.Context, issuer string) Result {
	if !ledger.IsValidID(issuer) {
		return g.observe("remove_issuer", failed(invalidInput("issuer %q is not a valid address", issuer)))
	}
	return g.adminCall(ctx, "remove_issuer", events.EventIssuerRemoved, issuer,
		ledger.MoveTarget(g.contracts.AdminPackage, adminModule, "remove_issuer"),
		ledger.Object(g.contracts.IssuerRegistryObject),
		ledger.PureAddress(issuer),
	)
}

func (g *Gateway) PauseMarketplace(ctx context.Context) Result {
	return g.adminCall(ctx, "pause_marketplace", events.EventMarketplacePaused, "",
		ledger.MoveTarget(g.contracts.AdminPackage, adminModule, "pause_marketplace"),
		ledger.Object(g.contracts.MarketplaceObject),
	)
}

func (g *Gateway) ResumeMarketplace(ctx context.Context) Result {
	return g.adminCall(ctx, "resume_marketplace", events.EventMarketplaceResumed, "",
		ledger.MoveTarget(g.contracts.AdminPackage, adminModule, "resume_marketplace"),
		ledger.Object(g.contracts.MarketplaceObject),
	)
}

func (g *Gateway) adminCall(ctx context.Context, operation, eventType, subject, target string, args ...ledger.Argument) Result {
	sender, err := g.currentAddress(ctx)
	if err != nil {
		return g.observe(operation, failed(err))
	}

	plan := g.newPlan(sender)
	plan.MoveCall(target, nil, args...)

	resp, err := g.execute(ctx, plan)
	if err != nil {
		g.logger.Error("Admin call rejected", zap.String("operation", operation), zap.Error(err))
		return g.observe(operation, failed(err))
	}

	g.record(ctx, events.ActivityEvent{
		EventType: eventType,
		Digest:    resp.Digest,
		Address:   sender,
		EventData: eventData(map[string]any{"subject": subject}),
	})

	g.logger.Info("Admin call executed",
		zap.String("operation", operation),
		zap.String("digest", resp.Digest))
	return g.observe(operation, succeeded("", resp.Digest))
}

// GetAuthorizedIssuers reads the issuer registry.
func (g *Gateway) GetAuthorizedIssuers(ctx context.Context) (*IssuerRegistry, error) {
	registry, err := g.ledger.GetObject(ctx, g.contracts.IssuerRegistryObject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issuer registry: %w", err)
	}

	result := &IssuerRegistry{Addresses: []string{}, Metadata: map[string]string{}}
	fields := registry.Fields()

	if issuers, ok := fields.Structs("issuers"); ok {
		for _, issuer := range issuers {
			if address, ok := issuer.String("issuer"); ok && address != "" {
				result.Addresses = append(result.Addresses, address)
			}
		}
	}
	if meta, ok := fields.StringMap("metadata"); ok {
		result.Metadata = meta
	}
	result.Count = len(result.Addresses)

	return result, nil
}

// IsMarketplacePaused reads the marketplace's paused flag. A marketplace
// without the flag is treated as running.
func (g *Gateway) IsMarketplacePaused(ctx context.Context) (bool, error) {
	market, err := g.ledger.GetObject(ctx, g.contracts.MarketplaceObject)
	if err != nil {
		return false, fmt.Errorf("failed to fetch marketplace: %w", err)
	}
	paused, _ := market.Fields().Bool("paused")
	return paused, nil
}

// GetPlatformMetrics aggregates issuer count, listing count and status.
func (g *Gateway) GetPlatformMetrics(ctx context.Context) (*PlatformMetrics, error) {
	issuers, err := g.GetAuthorizedIssuers(ctx)
	if err != nil {
		return nil, err
	}

	market, err := g.ledger.GetObject(ctx, g.contracts.MarketplaceObject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch marketplace: %w", err)
	}
	fields := market.Fields()
	paused, _ := fields.Bool("paused")

	var listings uint64
	if table, ok := fields.Struct(g.contracts.ListingsField); ok {
		listings, _ = table.Uint64("size")
	}

	return &PlatformMetrics{
		TotalIssuers:      issuers.Count,
		TotalListings:     listings,
		MarketplaceActive: !paused,
	}, nil
}
