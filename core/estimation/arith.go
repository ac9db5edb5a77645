package estimation

import (
	"math"

	"github.com/shopspring/decimal"
)

// All token arithmetic runs on decimals and rounds up.
// Float products such as 60 * 1.15 must ceil to 69, never 70.
// Intermediate sums never wrap; results saturate at math.MaxInt64.

var maxTokens = decimal.NewFromInt(math.MaxInt64)

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func ceilMul(d decimal.Decimal, factors ...float64) decimal.Decimal {
	for _, f := range factors {
		d = d.Mul(decimal.NewFromFloat(f))
	}
	return d.Ceil()
}

func ceilDiv(n decimal.Decimal, divisor float64) decimal.Decimal {
	if !n.IsPositive() {
		return decimal.Zero
	}
	return n.Div(decimal.NewFromFloat(divisor)).Ceil()
}

func ceilDivInt(n decimal.Decimal, divisor int64) decimal.Decimal {
	if !n.IsPositive() {
		return decimal.Zero
	}
	return n.Div(dec(divisor)).Ceil()
}

// tokens converts a non-negative decimal to int64, saturating
func tokens(d decimal.Decimal) int64 {
	if d.GreaterThanOrEqual(maxTokens) {
		return math.MaxInt64
	}
	if d.IsNegative() {
		return 0
	}
	return d.IntPart()
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
