// Package billing performs pre-flight affordability checks.
// It compares an estimate with a caller-supplied balance; real token
// accounting happens in the ledger after generation.
package billing

import "quizcost/core/types"

// Verdict is the outcome of a pre-flight check
type Verdict struct {
	// Affordable is true when the balance covers the estimate
	Affordable bool `json:"affordable"`

	// Required is the estimated billing-token cost
	Required int64 `json:"required"`

	// Balance is the normalized balance that was checked
	Balance int64 `json:"balance"`

	// Shortfall is how many tokens are missing (0 when affordable)
	Shortfall int64 `json:"shortfall"`

	// Remaining is the balance left after the estimated spend (0 when not affordable)
	Remaining int64 `json:"remaining"`
}

// Preflight checks whether balance covers the estimate.
// A negative balance is treated as empty.
func Preflight(balance int64, result types.EstimationResult) Verdict {
	if balance < 0 {
		balance = 0
	}
	v := Verdict{
		Required: result.EstimatedBillingTokens,
		Balance:  balance,
	}
	if balance >= v.Required {
		v.Affordable = true
		v.Remaining = balance - v.Required
	} else {
		v.Shortfall = v.Required - balance
	}
	return v
}

// MaxAffordable returns the highest count n in [0, limit] for which
// estimate(n) fits within balance, assuming estimate is monotonic in n.
// It is used to cap a question-count slider before any call is made, and
// returns -1 when even n = 0 does not fit.
func MaxAffordable(balance int64, limit int, estimate func(n int) types.EstimationResult) int {
	lo, hi := 0, limit
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if Preflight(balance, estimate(mid)).Affordable {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 && !Preflight(balance, estimate(0)).Affordable {
		return -1
	}
	return lo
}
