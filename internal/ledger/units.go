package ledger

import (
	"errors"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var maxUnits = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

var (
	ErrNonPositive = errors.New("ledger: amount must be > 0")
	ErrOverflow    = errors.New("ledger: amount exceeds base-unit range")
	ErrTooSmall    = errors.New("ledger: amount is below one base unit")
)

// ToBaseUnits converts a display amount into the token's integer base units.
// Precision beyond the token's decimals is truncated so the payer never sends
// more than was shown.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if !amount.IsPositive() {
		return 0, ErrNonPositive
	}
	base := amount.Shift(int32(decimals)).Truncate(0)
	if base.IsZero() {
		return 0, ErrTooSmall
	}
	if base.GreaterThan(maxUnits) {
		return 0, ErrOverflow
	}
	return base.BigInt().Uint64(), nil
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}

// ApplyDiscount returns amount reduced by rate (0.05 means five percent).
func ApplyDiscount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Sub(rate))
}
