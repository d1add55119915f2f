package utils

import (
	"strconv"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/shopspring/decimal"
)

// RoundToDecimalPrecision rounds the quantity down to the specified decimal precision.
// Rounding goes through decimal so the result formats back to exactly that many digits.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	return decimal.NewFromFloat(quantity).RoundDown(int32(decimalPrecision)).InexactFloat64()
}

// RealizedPnL is the profit of closing quantity units of a position entered at entry and exited at exit.
// Every ledger in the module settles fills through this function.
func RealizedPnL(side types.Side, entry, exit, quantity float64) decimal.Decimal {
	diff := decimal.NewFromFloat(exit).Sub(decimal.NewFromFloat(entry))
	if side == types.SideShort {
		diff = diff.Neg()
	}

	return diff.Mul(decimal.NewFromFloat(quantity))
}

// FormatQuantity renders a quantity with the shortest representation that parses back to the same float.
func FormatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', -1, 64)
}
