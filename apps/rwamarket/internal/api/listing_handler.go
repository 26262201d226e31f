package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// ListingHandler handles marketplace listing endpoints
type ListingHandler struct {
	responder
	marketplace Marketplace
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(marketplace Marketplace, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{responder: responder{logger: logger}, marketplace: marketplace}
}

// GetListings handles GET /api/listings
func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.marketplace.FetchMarketplaceListings(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch listings", zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "ledger_unavailable", "Failed to load marketplace listings")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ListingsResponse{Listings: listings, Count: len(listings)})
}

// CreateListing handles POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.AssetID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_asset_id", "Asset id is required")
		return
	}

	kind, err := gateway.ParseAssetKind(req.Kind)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_kind", "Kind must be nft or ft")
		return
	}

	price, err := h.marketplace.Currency().ToBaseUnits(req.Price)
	if err != nil || price == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_price", "Price must be a positive OCT amount")
		return
	}

	result := h.marketplace.ListAsset(r.Context(), gateway.ListRequest{
		AssetID:     req.AssetID,
		Kind:        kind,
		Price:       price,
		Quantity:    req.Quantity,
		TotalSupply: req.TotalSupply,
	})
	h.writeResult(w, result)
}

// BuyListing handles POST /api/listings/{asset_id}/buy
func (h *ListingHandler) BuyListing(w http.ResponseWriter, r *http.Request) {
	assetID := mux.Vars(r)["asset_id"]
	if !ledger.IsValidID(assetID) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_asset_id", "Invalid asset id")
		return
	}

	var req BuyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.Buyer == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_buyer", "Buyer address is required")
		return
	}

	if req.Quantity == 0 {
		h.writeResult(w, h.marketplace.BuyAsset(r.Context(), assetID, req.Buyer))
		return
	}

	pricePerUnit, err := h.marketplace.Currency().ToBaseUnits(req.PricePerUnit)
	if err != nil || pricePerUnit == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_price", "Price per unit must be a positive OCT amount")
		return
	}

	h.writeResult(w, h.marketplace.BuyAssetPartial(r.Context(), assetID, req.Quantity, pricePerUnit, req.Buyer))
}
