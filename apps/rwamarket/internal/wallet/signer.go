package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// RejectedError carries the signer's or the ledger's rejection text verbatim.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

type submitRequest struct {
	Transaction *ledger.TransactionPlan `json:"transaction"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RemoteSigner delegates key custody and sign-and-submit to an external
// signing service. It holds no keys itself.
type RemoteSigner struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRemoteSigner creates a signer client for the service at baseURL
func NewRemoteSigner(baseURL string, logger *zap.Logger) (*RemoteSigner, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("signer URL is required")
	}
	return &RemoteSigner{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// CurrentAddress returns the address the signer is currently signing for.
func (s *RemoteSigner) CurrentAddress(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/address", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build address request: %w", err)
	}

	var out addressResponse
	if err := s.do(req, &out); err != nil {
		return "", err
	}
	if out.Address == "" {
		return "", fmt.Errorf("signer has no connected account")
	}
	return out.Address, nil
}

// SubmitTransaction signs and executes plan, waiting for effects.
func (s *RemoteSigner) SubmitTransaction(ctx context.Context, plan *ledger.TransactionPlan) (*ledger.TransactionResponse, error) {
	body, err := json.Marshal(submitRequest{Transaction: plan})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction plan: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out ledger.TransactionResponse
	if err := s.do(req, &out); err != nil {
		return nil, err
	}

	s.logger.Info("Submitted transaction",
		zap.String("digest", out.Digest),
		zap.String("sender", plan.Sender),
		zap.Int("commands", len(plan.Commands)))
	return &out, nil
}

func (s *RemoteSigner) do(req *http.Request, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach signer: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read signer response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e errorResponse
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil {
			if e.Message != "" {
				message = e.Message
			} else if e.Error != "" {
				message = e.Error
			}
		}
		return &RejectedError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode signer response: %w", err)
	}
	return nil
}
