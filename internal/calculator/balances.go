// Package calculator holds the pure money math: member balances, transfer
// suggestions, equal splits and pool sums. Nothing here touches storage.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// MemberBalance is one member's net position within a group.
type MemberBalance struct {
	UserID   int64
	UserName string
	Balance  decimal.Decimal // Positive = owed money, Negative = owes money
}

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From   int64 // Person who owes
	To     int64 // Person who is owed
	Amount decimal.Decimal
}

// ComputeBalances derives each member's net balance from the group's expenses.
//
// Algorithm:
//   - every member starts at zero, in membership order
//   - the payer of each expense is credited the full amount
//   - each share-holder is debited their share
//
// Payers and share-holders who are not members are ignored, so the result
// always has exactly one entry per member.
func ComputeBalances(members []models.Member, expenses []models.Expense) []MemberBalance {
	balances := make([]MemberBalance, len(members))
	index := make(map[int64]int, len(members))
	for i, m := range members {
		balances[i] = MemberBalance{UserID: m.UserID, UserName: m.DisplayName, Balance: decimal.Zero}
		index[m.UserID] = i
	}

	for _, expense := range expenses {
		if i, ok := index[expense.PayerID]; ok {
			balances[i].Balance = balances[i].Balance.Add(expense.Amount)
		}
		for _, share := range expense.Shares {
			if i, ok := index[share.UserID]; ok {
				balances[i].Balance = balances[i].Balance.Sub(share.Amount)
			}
		}
	}

	return balances
}

// SuggestTransfers proposes payments that would bring every balance to zero.
// It is a suggestion only; nothing is recorded.
//
// Greedy algorithm: match the largest debt with the largest credit, settle
// the smaller of the two, and move on once either side reaches zero. Ties are
// broken by user ID so the output is deterministic. When the balances do not
// sum to zero the leftover stays unmatched.
func SuggestTransfers(balances []MemberBalance) []Transfer {
	type position struct {
		userID int64
		amount decimal.Decimal
	}

	var creditors, debtors []position
	for _, b := range balances {
		switch b.Balance.Sign() {
		case 1:
			creditors = append(creditors, position{b.UserID, b.Balance})
		case -1:
			debtors = append(debtors, position{b.UserID, b.Balance.Neg()})
		}
	}

	byAmount := func(p []position) func(i, j int) bool {
		return func(i, j int) bool {
			if c := p[i].amount.Cmp(p[j].amount); c != 0 {
				return c > 0
			}
			return p[i].userID < p[j].userID
		}
	}
	sort.Slice(creditors, byAmount(creditors))
	sort.Slice(debtors, byAmount(debtors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		transfers = append(transfers, Transfer{
			From:   debtors[i].userID,
			To:     creditors[j].userID,
			Amount: amount,
		})

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		// Move to next debtor/creditor if fully settled
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}

	return transfers
}
