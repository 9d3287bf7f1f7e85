package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a monetary record: PayerID advanced Amount, and Shares say how
// that amount is attributed to participants.
//
// Shares are expected to sum to Amount. New expenses are validated for that
// before they are stored, but older rows may drift and balance computation
// tolerates it.
type Expense struct {
	ID          int64
	Amount      decimal.Decimal
	PayerID     int64
	EventID     *int64
	GroupID     *int64
	Description string
	CreatedAt   time.Time

	Shares []ExpenseShare
}

// ExpenseShare is the portion of an expense attributed to one user.
type ExpenseShare struct {
	ExpenseID int64
	UserID    int64
	Amount    decimal.Decimal
}

// SharesTotal sums the share amounts.
func (e *Expense) SharesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Shares {
		total = total.Add(s.Amount)
	}
	return total
}
