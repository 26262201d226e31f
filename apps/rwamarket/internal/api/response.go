package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/assets"
	"rwamarket/apps/rwamarket/internal/gateway"
)

// Marketplace is the gateway surface the handlers use.
type Marketplace interface {
	FetchMarketplaceListings(ctx context.Context) ([]gateway.ListingDTO, error)
	FetchUserAssets(ctx context.Context, owner string) ([]gateway.AssetDTO, error)
	WalletBalances(ctx context.Context, owner string) (*gateway.WalletBalance, error)

	MintUniqueAsset(ctx context.Context, req gateway.MintRequest) gateway.Result
	MintDivisibleAsset(ctx context.Context, req gateway.MintRequest) gateway.Result
	CreateAndListAsset(ctx context.Context, req gateway.MintRequest, price uint64, kind gateway.AssetKind, quantity uint64) gateway.Result
	ListAsset(ctx context.Context, req gateway.ListRequest) gateway.Result
	BuyAsset(ctx context.Context, assetID, buyer string) gateway.Result
	BuyAssetPartial(ctx context.Context, assetID string, quantity, pricePerUnit uint64, buyer string) gateway.Result

	AddIssuer(ctx context.Context, issuer, name, metadataURI string) gateway.Result
	RemoveIssuer(ctx context.Context, issuer string) gateway.Result
	PauseMarketplace(ctx context.Context) gateway.Result
	ResumeMarketplace(ctx context.Context) gateway.Result
	GetAuthorizedIssuers(ctx context.Context) (*gateway.IssuerRegistry, error)
	IsMarketplacePaused(ctx context.Context) (bool, error)
	GetPlatformMetrics(ctx context.Context) (*gateway.PlatformMetrics, error)

	Currency() assets.Currency
}

// responder carries the JSON response helpers shared by the handlers.
type responder struct {
	logger *zap.Logger
}

// writeJSONResponse writes a JSON response with the specified status code
func (h responder) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeErrorResponse writes an error response
func (h responder) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResponse := ErrorResponse{
		Error:   errorCode,
		Message: message,
	}
	h.writeJSONResponse(w, statusCode, errorResponse)
}

// writeResult renders a gateway Result. Failures carry the classified,
// user-facing message.
func (h responder) writeResult(w http.ResponseWriter, result gateway.Result) {
	if result.Success {
		h.writeJSONResponse(w, http.StatusOK, OperationResponse{
			Success: true,
			AssetID: result.AssetID,
			Digest:  result.Digest,
			Message: result.Message,
		})
		return
	}

	statusCode, errorCode := classifyFailure(result.Err)
	h.writeErrorResponse(w, statusCode, errorCode, result.Message)
}

func classifyFailure(err error) (int, string) {
	var submission *gateway.LedgerSubmissionError
	switch {
	case errors.Is(err, gateway.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, gateway.ErrNoPaymentCoin):
		return http.StatusUnprocessableEntity, "no_payment_coin"
	case errors.Is(err, gateway.ErrNoSession):
		return http.StatusServiceUnavailable, "signer_unavailable"
	case errors.As(err, &submission):
		if submission.Reason == gateway.ReasonUnknown {
			return http.StatusBadGateway, "ledger_rejected"
		}
		return http.StatusConflict, submission.Reason.String()
	default:
		return http.StatusBadGateway, "operation_failed"
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(out)
}
