package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// SumContributions totals a pool's contributions. An empty list sums to zero.
func SumContributions(contributions []models.Contribution) decimal.Decimal {
	total := decimal.Zero
	for _, c := range contributions {
		total = total.Add(c.Amount)
	}
	return total
}
