package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/faucet"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// Faucet funds testnet addresses.
type Faucet interface {
	Request(ctx context.Context, recipient string) (*faucet.Response, error)
}

// BalanceHandler handles wallet balance and faucet endpoints
type BalanceHandler struct {
	responder
	marketplace Marketplace
	faucet      Faucet
}

// NewBalanceHandler creates a new BalanceHandler. faucetClient may be nil.
func NewBalanceHandler(marketplace Marketplace, faucetClient Faucet, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{responder: responder{logger: logger}, marketplace: marketplace, faucet: faucetClient}
}

// GetBalance handles GET /api/wallet/{address}/balance
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !ledger.IsValidID(address) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_address", "Invalid address format")
		return
	}

	wallet, err := h.marketplace.WalletBalances(r.Context(), address)
	if err != nil {
		h.logger.Error("Failed to get wallet balances", zap.String("address", address), zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "ledger_unavailable", "Failed to load balances")
		return
	}

	currency := h.marketplace.Currency()
	formatted, err := currency.FormatBaseUnits(wallet.PaymentBalance)
	if err != nil {
		h.logger.Error("Failed to format balance", zap.String("balance", wallet.PaymentBalance), zap.Error(err))
		formatted = "0"
	}

	h.logger.Info("Retrieved wallet balances",
		zap.String("wallet_address", address),
		zap.Int("coin_types", len(wallet.Balances)))

	h.writeJSONResponse(w, http.StatusOK, BalanceResponse{
		WalletAddress: address,
		CoinType:      wallet.PaymentCoinType,
		Symbol:        currency.Symbol,
		Balance:       formatted,
		BalanceBase:   wallet.PaymentBalance,
		Coins:         wallet.Balances,
	})
}

// RequestFaucet handles POST /api/faucet
func (h *BalanceHandler) RequestFaucet(w http.ResponseWriter, r *http.Request) {
	if h.faucet == nil {
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "faucet_unavailable", "Faucet is not configured")
		return
	}

	var req FaucetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if !ledger.IsValidID(req.Address) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_address", "Invalid address format")
		return
	}

	resp, err := h.faucet.Request(r.Context(), req.Address)
	if err != nil {
		h.logger.Warn("Faucet request failed", zap.String("address", req.Address), zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "faucet_failed", err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}
