package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

var cent = decimal.New(1, -2)

// SplitEqually divides amount between the participants, rounding each share
// down to the cent and handing the leftover cents out one at a time in
// participant order. The shares always sum to amount exactly.
func SplitEqually(amount decimal.Decimal, participants []int64) ([]models.ExpenseShare, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	n := decimal.NewFromInt(int64(len(participants)))
	base := amount.Div(n).RoundDown(2)
	remainder := amount.Sub(base.Mul(n))

	shares := make([]models.ExpenseShare, len(participants))
	for i, userID := range participants {
		shares[i] = models.ExpenseShare{UserID: userID, Amount: base}
	}
	for i := 0; remainder.GreaterThanOrEqual(cent); i = (i + 1) % len(shares) {
		shares[i].Amount = shares[i].Amount.Add(cent)
		remainder = remainder.Sub(cent)
	}
	// Sub-cent amounts (more than two decimals) go to the first participant.
	if !remainder.IsZero() {
		shares[0].Amount = shares[0].Amount.Add(remainder)
	}

	return shares, nil
}

// ValidateShares checks a new expense: amount not negative, payer set, at
// least one share, no negative or duplicate share, shares summing exactly to
// amount.
func ValidateShares(amount decimal.Decimal, payerID int64, shares []models.ExpenseShare) error {
	verr := &apperror.ValidationError{}
	if amount.IsNegative() {
		verr.Add("amount", "must not be negative")
	}
	if payerID == 0 {
		verr.Add("payer_id", "required")
	}
	if len(shares) == 0 {
		verr.Add("shares", "at least one share is required")
		return verr.OrNil()
	}

	seen := make(map[int64]bool, len(shares))
	total := decimal.Zero
	for _, s := range shares {
		if s.Amount.IsNegative() {
			verr.Add("shares", "share amounts must not be negative")
		}
		if seen[s.UserID] {
			verr.Add("shares", fmt.Sprintf("user %d appears more than once", s.UserID))
		}
		seen[s.UserID] = true
		total = total.Add(s.Amount)
	}
	if !verr.HasErrors() && !total.Equal(amount) {
		verr.Add("shares", fmt.Sprintf("shares sum to %s, expected %s", total, amount))
	}
	return verr.OrNil()
}
