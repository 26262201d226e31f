package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// AssetHandler handles asset minting and portfolio endpoints
type AssetHandler struct {
	responder
	marketplace Marketplace
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(marketplace Marketplace, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{responder: responder{logger: logger}, marketplace: marketplace}
}

// GetUserAssets handles GET /api/assets/{address}
func (h *AssetHandler) GetUserAssets(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !ledger.IsValidID(address) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_address", "Invalid address format")
		return
	}

	owned, err := h.marketplace.FetchUserAssets(r.Context(), address)
	if err != nil {
		h.logger.Error("Failed to fetch user assets", zap.String("address", address), zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "ledger_unavailable", "Failed to load assets")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, AssetsResponse{Address: address, Assets: owned})
}

// MintAsset handles POST /api/assets/mint
func (h *AssetHandler) MintAsset(w http.ResponseWriter, r *http.Request) {
	var req MintAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	kind, mint, ok := h.mintRequest(w, req)
	if !ok {
		return
	}

	var result gateway.Result
	if kind == gateway.KindDivisible {
		result = h.marketplace.MintDivisibleAsset(r.Context(), mint)
	} else {
		result = h.marketplace.MintUniqueAsset(r.Context(), mint)
	}
	h.writeResult(w, result)
}

// CreateAndList handles POST /api/assets/create-and-list
func (h *AssetHandler) CreateAndList(w http.ResponseWriter, r *http.Request) {
	var req CreateAndListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	kind, mint, ok := h.mintRequest(w, req.MintAssetRequest)
	if !ok {
		return
	}

	price, err := h.marketplace.Currency().ToBaseUnits(req.Price)
	if err != nil || price == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_price", "Price must be a positive OCT amount")
		return
	}

	h.writeResult(w, h.marketplace.CreateAndListAsset(r.Context(), mint, price, kind, req.Quantity))
}

func (h *AssetHandler) mintRequest(w http.ResponseWriter, req MintAssetRequest) (gateway.AssetKind, gateway.MintRequest, bool) {
	if req.MetadataURI == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_metadata_uri", "Metadata URI is required")
		return "", gateway.MintRequest{}, false
	}

	kind := gateway.KindUnique
	if req.Kind != "" {
		parsed, err := gateway.ParseAssetKind(req.Kind)
		if err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, "invalid_kind", "Kind must be nft or ft")
			return "", gateway.MintRequest{}, false
		}
		kind = parsed
	}

	if kind == gateway.KindDivisible && req.TotalSupply == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_total_supply", "Total supply is required for divisible assets")
		return "", gateway.MintRequest{}, false
	}

	return kind, gateway.MintRequest{
		Name:           req.Name,
		MetadataURI:    req.MetadataURI,
		AssetType:      req.AssetType,
		Valuation:      req.Valuation,
		MaturityDate:   req.MaturityDate,
		APYBasisPoints: req.APYBasisPoints,
		TotalSupply:    req.TotalSupply,
	}, true
}
