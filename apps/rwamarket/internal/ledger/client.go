package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var objectOptions = map[string]bool{
	"showType":    true,
	"showOwner":   true,
	"showContent": true,
}

var transactionOptions = map[string]bool{
	"showEffects":       true,
	"showObjectChanges": true,
}

// RPCClient is a typed client for the ledger's JSON-RPC read API.
type RPCClient struct {
	client *rpc.Client
	logger *zap.Logger
}

// Dial connects to the ledger RPC endpoint at url
func Dial(ctx context.Context, url string, logger *zap.Logger) (*RPCClient, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger RPC: %w", err)
	}
	return NewRPCClient(client, logger), nil
}

func NewRPCClient(client *rpc.Client, logger *zap.Logger) *RPCClient {
	return &RPCClient{client: client, logger: logger}
}

func (c *RPCClient) Close() {
	c.client.Close()
}

// GetObject fetches an object with its content. Deleted or unknown objects
// yield ErrObjectNotFound.
func (c *RPCClient) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var resp ObjectResponse
	if err := c.client.CallContext(ctx, &resp, "sui_getObject", id, objectOptions); err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", id, err)
	}
	if resp.Error != nil || resp.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return resp.Data, nil
}

// GetDynamicFields lists one page of dynamic fields under parentID.
func (c *RPCClient) GetDynamicFields(ctx context.Context, parentID string, cursor *string, limit int) (*DynamicFieldPage, error) {
	var page DynamicFieldPage
	if err := c.client.CallContext(ctx, &page, "suix_getDynamicFields", parentID, cursor, limitArg(limit)); err != nil {
		return nil, fmt.Errorf("failed to get dynamic fields of %s: %w", parentID, err)
	}
	return &page, nil
}

// GetDynamicFieldObject fetches the field object stored under name.
func (c *RPCClient) GetDynamicFieldObject(ctx context.Context, parentID string, name DynamicFieldName) (*ObjectData, error) {
	var resp ObjectResponse
	if err := c.client.CallContext(ctx, &resp, "suix_getDynamicFieldObject", parentID, name); err != nil {
		return nil, fmt.Errorf("failed to get dynamic field of %s: %w", parentID, err)
	}
	if resp.Error != nil || resp.Data == nil {
		return nil, fmt.Errorf("%w: dynamic field %s of %s", ErrObjectNotFound, string(name.Value), parentID)
	}
	return resp.Data, nil
}

// GetCoins lists coins of one type owned by owner.
func (c *RPCClient) GetCoins(ctx context.Context, owner, coinType string, cursor *string, limit int) (*CoinPage, error) {
	var page CoinPage
	if err := c.client.CallContext(ctx, &page, "suix_getCoins", owner, coinType, cursor, limitArg(limit)); err != nil {
		return nil, fmt.Errorf("failed to get %s coins of %s: %w", coinType, owner, err)
	}
	return &page, nil
}

// GetAllCoins lists coins of every type owned by owner.
func (c *RPCClient) GetAllCoins(ctx context.Context, owner string, cursor *string, limit int) (*CoinPage, error) {
	var page CoinPage
	if err := c.client.CallContext(ctx, &page, "suix_getAllCoins", owner, cursor, limitArg(limit)); err != nil {
		return nil, fmt.Errorf("failed to get coins of %s: %w", owner, err)
	}
	return &page, nil
}

func (c *RPCClient) GetAllBalances(ctx context.Context, owner string) ([]Balance, error) {
	var balances []Balance
	if err := c.client.CallContext(ctx, &balances, "suix_getAllBalances", owner); err != nil {
		return nil, fmt.Errorf("failed to get balances of %s: %w", owner, err)
	}
	return balances, nil
}

func (c *RPCClient) GetTransactionBlock(ctx context.Context, digest string) (*TransactionResponse, error) {
	var resp TransactionResponse
	if err := c.client.CallContext(ctx, &resp, "sui_getTransactionBlock", digest, transactionOptions); err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", digest, err)
	}
	return &resp, nil
}

// GetOwnedObjects lists objects of structType owned by owner.
func (c *RPCClient) GetOwnedObjects(ctx context.Context, owner, structType string, cursor *string, limit int) (*ObjectPage, error) {
	query := map[string]any{
		"filter":  map[string]string{"StructType": structType},
		"options": objectOptions,
	}
	var page ObjectPage
	if err := c.client.CallContext(ctx, &page, "suix_getOwnedObjects", owner, query, cursor, limitArg(limit)); err != nil {
		return nil, fmt.Errorf("failed to get owned objects of %s: %w", owner, err)
	}
	return &page, nil
}

func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
