package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/ledger"
)

type fixedAmountRequest struct {
	FixedAmountRequest struct {
		Recipient string `json:"recipient"`
	} `json:"FixedAmountRequest"`
}

// Response is the faucet's reply. Error is set when the faucet declined.
type Response struct {
	TransferredGasObjects []GasObject `json:"transferredGasObjects,omitempty"`
	Task                  string      `json:"task,omitempty"`
	Error                 *string     `json:"error,omitempty"`
}

type GasObject struct {
	Amount           uint64 `json:"amount"`
	ID               string `json:"id"`
	TransferTxDigest string `json:"transferTxDigest"`
}

// Client requests testnet coins for an address.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(url string, logger *zap.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Request asks the faucet to fund recipient.
func (c *Client) Request(ctx context.Context, recipient string) (*Response, error) {
	if !ledger.IsValidID(recipient) {
		return nil, fmt.Errorf("invalid recipient address %q", recipient)
	}

	var payload fixedAmountRequest
	payload.FixedAmountRequest.Recipient = ledger.NormalizeID(recipient)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode faucet request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build faucet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach faucet: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read faucet response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("faucet returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var out Response
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to decode faucet response: %w", err)
		}
	}
	if out.Error != nil && *out.Error != "" {
		return nil, fmt.Errorf("faucet declined request: %s", *out.Error)
	}

	c.logger.Info("Requested faucet funds", zap.String("recipient", recipient), zap.Int("objects", len(out.TransferredGasObjects)))
	return &out, nil
}
