package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/ledger"
)

// selectPaymentCoin picks the first coin of the payment currency owned by
// owner. The exact-type query runs first; if it finds nothing the owner's full
// coin set is scanned for a type that is canonically equal, which absorbs
// formatting differences such as short vs. padded addresses. A coin of any
// other currency is never returned. Balance is not checked here; the contract
// is authoritative on sufficiency.
func (g *Gateway) selectPaymentCoin(ctx context.Context, owner string) (*ledger.Coin, error) {
	coinType := g.contracts.PaymentCoinType

	page, err := g.ledger.GetCoins(ctx, owner, coinType, nil, pageLimit)
	if err != nil {
		g.logger.Warn("Typed coin query failed, scanning all coins",
			zap.String("owner", owner),
			zap.String("coin_type", coinType),
			zap.Error(err))
	} else if coin := firstOfType(page.Data, coinType); coin != nil {
		return coin, nil
	}

	var cursor *string
	for {
		page, err := g.ledger.GetAllCoins(ctx, owner, cursor, pageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list coins of %s: %w", owner, err)
		}
		if coin := firstOfType(page.Data, coinType); coin != nil {
			g.logger.Debug("Found payment coin by canonical type",
				zap.String("owner", owner),
				zap.String("coin_type", coin.CoinType),
				zap.String("coin_id", coin.CoinObjectID))
			return coin, nil
		}
		cursor, err = nextCursor(cursor, page.NextCursor, page.HasNextPage)
		if err != nil {
			return nil, fmt.Errorf("failed to list coins of %s: %w", owner, err)
		}
		if cursor == nil {
			break
		}
	}

	return nil, &NoPaymentCoinError{Owner: owner, Symbol: g.currency.Symbol, CoinType: coinType}
}

func firstOfType(coins []ledger.Coin, coinType string) *ledger.Coin {
	for i := range coins {
		if ledger.SameType(coins[i].CoinType, coinType) {
			return &coins[i]
		}
	}
	return nil
}
