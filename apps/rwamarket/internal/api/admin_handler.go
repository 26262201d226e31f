package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// AdminHandler handles issuer registry and marketplace administration.
// Authorization is enforced by the contracts against the signer's account.
type AdminHandler struct {
	responder
	marketplace   Marketplace
	marketplaceID string
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(marketplace Marketplace, marketplaceID string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{responder: responder{logger: logger}, marketplace: marketplace, marketplaceID: marketplaceID}
}

// GetIssuers handles GET /api/admin/issuers
func (h *AdminHandler) GetIssuers(w http.ResponseWriter, r *http.Request) {
	registry, err := h.marketplace.GetAuthorizedIssuers(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch issuer registry", zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "ledger_unavailable", "Failed to load issuer registry")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, registry)
}

// AddIssuer handles POST /api/admin/issuers
func (h *AdminHandler) AddIssuer(w http.ResponseWriter, r *http.Request) {
	var req AddIssuerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if !ledger.IsValidID(req.Address) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_address", "Invalid issuer address")
		return
	}

	h.writeResult(w, h.marketplace.AddIssuer(r.Context(), req.Address, req.Name, req.MetadataURI))
}

// RemoveIssuer handles DELETE /api/admin/issuers/{address}
func (h *AdminHandler) RemoveIssuer(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !ledger.IsValidID(address) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_address", "Invalid issuer address")
		return
	}

	h.writeResult(w, h.marketplace.RemoveIssuer(r.Context(), address))
}

// Pause handles POST /api/admin/pause
func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.marketplace.PauseMarketplace(r.Context()))
}

// Resume handles POST /api/admin/resume
func (h *AdminHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.marketplace.ResumeMarketplace(r.Context()))
}

// GetStatus handles GET /api/admin/status
func (h *AdminHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.marketplace.GetPlatformMetrics(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch platform metrics", zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "ledger_unavailable", "Failed to load marketplace status")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, StatusResponse{
		Paused:            !metrics.MarketplaceActive,
		TotalIssuers:      metrics.TotalIssuers,
		TotalListings:     metrics.TotalListings,
		MarketplaceActive: metrics.MarketplaceActive,
		Marketplace:       h.marketplaceID,
	})
}
