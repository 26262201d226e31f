package test

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"
)

const (
	// Test wallet address (example address)
	TestWalletAddress = "0x5e11e7c0ffee5e11e7c0ffee5e11e7c0ffee5e11e7c0ffee5e11e7c0ffee5e11"

	// Object id that does not exist on the network
	TestUnknownAsset = "0x00000000000000000000000000000000000000000000000000000000deadbeef"
)

// baseURL returns the server under test. The suite needs a running
// rwamarket server and is skipped otherwise.
func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("RWAMARKET_API_URL")
	if url == "" {
		t.Skip("RWAMARKET_API_URL not set")
	}
	return url
}

// getJSON issues a GET and decodes the body into out when the status matches.
func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		json.NewDecoder(resp.Body).Decode(&errorResp)
		t.Fatalf("Expected status %d, got %d. Error: %s - %s",
			wantStatus, resp.StatusCode, errorResp.Error, errorResp.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

// Listing mirrors one entry of GET /api/listings
type Listing struct {
	TokenID         string `json:"tokenId"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	Price           string `json:"price"`
	PricePerToken   string `json:"pricePerToken"`
	TotalSupply     uint64 `json:"totalSupply"`
	AvailableTokens uint64 `json:"availableTokens"`
	Seller          string `json:"seller"`
	IsNFT           bool   `json:"isNft"`
}

// ListingsResponse represents the API response for marketplace listings
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
	Count    int       `json:"count"`
}

// StatusResponse represents the API response for marketplace status
type StatusResponse struct {
	Paused            bool   `json:"paused"`
	TotalIssuers      int    `json:"total_issuers"`
	TotalListings     uint64 `json:"total_listings"`
	MarketplaceActive bool   `json:"marketplace_active"`
	Marketplace       string `json:"marketplace"`
}

// IssuersResponse represents the API response for the issuer registry
type IssuersResponse struct {
	Addresses []string          `json:"addresses"`
	Count     int               `json:"count"`
	Metadata  map[string]string `json:"metadata"`
}

// BalanceResponse represents the API response for wallet balance information
type BalanceResponse struct {
	WalletAddress string `json:"wallet_address"`
	CoinType      string `json:"coin_type"`
	Symbol        string `json:"symbol"`
	Balance       string `json:"balance"`
	BalanceBase   string `json:"balance_base_units"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
