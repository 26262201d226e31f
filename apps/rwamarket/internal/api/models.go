package api

import (
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/model"
)

// MintAssetRequest represents the request body for minting an asset
type MintAssetRequest struct {
	Kind           string  `json:"kind"`
	Name           string  `json:"name"`
	MetadataURI    string  `json:"metadata_uri"`
	AssetType      string  `json:"asset_type"`
	Valuation      uint64  `json:"valuation"`
	MaturityDate   *uint64 `json:"maturity_date,omitempty"`
	APYBasisPoints *uint64 `json:"apy_bps,omitempty"`
	TotalSupply    uint64  `json:"total_supply"`
}

// CreateAndListRequest mints an asset and lists it in one call. Price is in
// OCT; for divisible assets it is the price per unit.
type CreateAndListRequest struct {
	MintAssetRequest
	Price    string `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// CreateListingRequest represents the request body for listing an owned asset
type CreateListingRequest struct {
	AssetID     string `json:"asset_id"`
	Kind        string `json:"kind"`
	Price       string `json:"price"`
	Quantity    uint64 `json:"quantity"`
	TotalSupply uint64 `json:"total_supply"`
}

// BuyRequest represents the request body for a purchase. A positive quantity
// buys part of a divisible listing at price_per_unit OCT.
type BuyRequest struct {
	Buyer        string `json:"buyer"`
	Quantity     uint64 `json:"quantity"`
	PricePerUnit string `json:"price_per_unit"`
}

// AddIssuerRequest represents the request body for authorizing an issuer
type AddIssuerRequest struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	MetadataURI string `json:"metadata_uri"`
}

// FaucetRequest represents the request body for requesting testnet coins
type FaucetRequest struct {
	Address string `json:"address"`
}

// OperationResponse represents the outcome of a write operation
type OperationResponse struct {
	Success bool   `json:"success"`
	AssetID string `json:"asset_id,omitempty"`
	Digest  string `json:"digest,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListingsResponse represents the API response for marketplace listings
type ListingsResponse struct {
	Listings []gateway.ListingDTO `json:"listings"`
	Count    int                  `json:"count"`
}

// AssetsResponse represents the API response for an address's assets
type AssetsResponse struct {
	Address string             `json:"address"`
	Assets  []gateway.AssetDTO `json:"assets"`
}

// BalanceResponse represents the API response for wallet balance information
type BalanceResponse struct {
	WalletAddress string           `json:"wallet_address"`
	CoinType      string           `json:"coin_type"`
	Symbol        string           `json:"symbol"`
	Balance       string           `json:"balance"`
	BalanceBase   string           `json:"balance_base_units"`
	Coins         []ledger.Balance `json:"coins"`
}

// StatusResponse represents the API response for marketplace status
type StatusResponse struct {
	Paused            bool   `json:"paused"`
	TotalIssuers      int    `json:"total_issuers"`
	TotalListings     uint64 `json:"total_listings"`
	MarketplaceActive bool   `json:"marketplace_active"`
	Marketplace       string `json:"marketplace"`
}

// ActivityResponse represents the API response for an address's history
type ActivityResponse struct {
	WalletAddress string           `json:"wallet_address"`
	Activities    []model.Activity `json:"activities"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
