package assets

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Currency describes a payment coin and its base-unit scale.
type Currency struct {
	Symbol   string `json:"symbol"`
	CoinType string `json:"coin_type"`
	Decimals int32  `json:"decimals"`
}

// OCT is the native payment coin. 1 OCT = 10^9 MIST.
func OCT(coinType string) Currency {
	return Currency{Symbol: "OCT", CoinType: coinType, Decimals: 9}
}

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// ToBaseUnits converts a decimal amount such as "1.5" into base units.
func (c Currency) ToBaseUnits(amount string) (uint64, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	if value.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", amount)
	}

	scaled := value.Shift(c.Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", amount, c.Decimals)
	}
	if scaled.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("amount %q overflows %s base units", amount, c.Symbol)
	}

	return scaled.BigInt().Uint64(), nil
}

// FromBaseUnits renders base units as a decimal string, e.g. 1500000000 -> "1.5".
func (c Currency) FromBaseUnits(units uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -c.Decimals).String()
}

// FormatBaseUnits is FromBaseUnits for balances reported as decimal strings.
func (c Currency) FormatBaseUnits(units string) (string, error) {
	value, err := decimal.NewFromString(units)
	if err != nil {
		return "", fmt.Errorf("failed to parse base units %q: %w", units, err)
	}
	return value.Shift(-c.Decimals).String(), nil
}
