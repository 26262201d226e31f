package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/model"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityStore reads the materialized activity history.
type ActivityStore interface {
	GetActivitiesByAddress(walletAddress string, limit, offset int) ([]model.Activity, error)
}

// ActivityHandler handles activity history endpoints
type ActivityHandler struct {
	responder
	store ActivityStore
}

// NewActivityHandler creates a new ActivityHandler. store may be nil when no
// database is configured.
func NewActivityHandler(store ActivityStore, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{responder: responder{logger: logger}, store: store}
}

// GetActivity handles GET /api/activity/{address}
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "history_unavailable", "Activity history is not configured")
		return
	}

	address := mux.Vars(r)["address"]
	if !ledger.IsValidID(address) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_address", "Invalid address format")
		return
	}

	limit := queryInt(r, "limit", defaultActivityLimit)
	if limit <= 0 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	activities, err := h.store.GetActivitiesByAddress(ledger.NormalizeID(address), limit, offset)
	if err != nil {
		h.logger.Error("Failed to get activities", zap.String("address", address), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to retrieve activity")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ActivityResponse{WalletAddress: address, Activities: activities})
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
