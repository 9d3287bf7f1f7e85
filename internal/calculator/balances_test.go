package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func member(id int64, name string) models.Member {
	return models.Member{Membership: models.Membership{UserID: id}, DisplayName: name}
}

func expense(amount string, payer int64, shares map[int64]string, order ...int64) models.Expense {
	e := models.Expense{Amount: d(amount), PayerID: payer}
	for _, id := range order {
		e.Shares = append(e.Shares, models.ExpenseShare{UserID: id, Amount: d(shares[id])})
	}
	return e
}

func TestComputeBalances(t *testing.T) {
	alice, bob, charlie := member(1, "Alice"), member(2, "Bob"), member(3, "Charlie")

	tests := []struct {
		name     string
		members  []models.Member
		expenses []models.Expense
		want     map[int64]string
	}{
		{
			name:    "one payer split three ways",
			members: []models.Member{alice, bob, charlie},
			expenses: []models.Expense{
				expense("90", 1, map[int64]string{1: "30", 2: "30", 3: "30"}, 1, 2, 3),
			},
			want: map[int64]string{1: "60", 2: "-30", 3: "-30"},
		},
		{
			name:     "no expenses leaves everyone at zero",
			members:  []models.Member{alice, bob},
			expenses: nil,
			want:     map[int64]string{1: "0", 2: "0"},
		},
		{
			name:    "payer outside the group is ignored",
			members: []models.Member{alice, bob},
			expenses: []models.Expense{
				expense("40", 99, map[int64]string{1: "20", 2: "20"}, 1, 2),
			},
			want: map[int64]string{1: "-20", 2: "-20"},
		},
		{
			name:    "share-holder outside the group is ignored",
			members: []models.Member{alice, bob},
			expenses: []models.Expense{
				expense("30", 1, map[int64]string{1: "10", 2: "10", 99: "10"}, 1, 2, 99),
			},
			want: map[int64]string{1: "20", 2: "-10"},
		},
		{
			name:    "several expenses with cents",
			members: []models.Member{alice, bob, charlie},
			expenses: []models.Expense{
				expense("10.01", 1, map[int64]string{1: "3.34", 2: "3.34", 3: "3.33"}, 1, 2, 3),
				expense("25.50", 2, map[int64]string{1: "12.75", 3: "12.75"}, 1, 3),
			},
			want: map[int64]string{1: "-6.08", 2: "22.16", 3: "-16.08"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBalances(tt.members, tt.expenses)
			if len(got) != len(tt.members) {
				t.Fatalf("got %d balances, want %d", len(got), len(tt.members))
			}
			for i, b := range got {
				if b.UserID != tt.members[i].UserID {
					t.Errorf("balance %d is for user %d, want %d", i, b.UserID, tt.members[i].UserID)
				}
				if want := d(tt.want[b.UserID]); !b.Balance.Equal(want) {
					t.Errorf("%s balance = %s, want %s", b.UserName, b.Balance, want)
				}
			}
		})
	}
}

func TestComputeBalancesConservation(t *testing.T) {
	members := []models.Member{member(1, "A"), member(2, "B"), member(3, "C"), member(4, "D")}
	expenses := []models.Expense{
		expense("100", 1, map[int64]string{1: "25", 2: "25", 3: "25", 4: "25"}, 1, 2, 3, 4),
		expense("33.33", 3, map[int64]string{2: "11.11", 3: "11.11", 4: "11.11"}, 2, 3, 4),
		expense("7.5", 4, map[int64]string{1: "7.5"}, 1),
	}

	sum := decimal.Zero
	for _, b := range ComputeBalances(members, expenses) {
		sum = sum.Add(b.Balance)
	}
	if !sum.IsZero() {
		t.Errorf("balances sum to %s, want 0", sum)
	}
}

func TestSuggestTransfers(t *testing.T) {
	tests := []struct {
		name     string
		balances []MemberBalance
		want     []Transfer
	}{
		{
			name: "two debtors one creditor",
			balances: []MemberBalance{
				{UserID: 1, Balance: d("60")},
				{UserID: 2, Balance: d("-30")},
				{UserID: 3, Balance: d("-30")},
			},
			want: []Transfer{
				{From: 2, To: 1, Amount: d("30")},
				{From: 3, To: 1, Amount: d("30")},
			},
		},
		{
			name: "largest debt goes to largest credit first",
			balances: []MemberBalance{
				{UserID: 1, Balance: d("10")},
				{UserID: 2, Balance: d("40")},
				{UserID: 3, Balance: d("-45")},
				{UserID: 4, Balance: d("-5")},
			},
			want: []Transfer{
				{From: 3, To: 2, Amount: d("40")},
				{From: 3, To: 1, Amount: d("5")},
				{From: 4, To: 1, Amount: d("5")},
			},
		},
		{
			name: "settled group needs nothing",
			balances: []MemberBalance{
				{UserID: 1, Balance: decimal.Zero},
				{UserID: 2, Balance: decimal.Zero},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestTransfers(tt.balances)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To || !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("transfer %d = %d->%d %s, want %d->%d %s", i,
						got[i].From, got[i].To, got[i].Amount,
						tt.want[i].From, tt.want[i].To, tt.want[i].Amount)
				}
			}
		})
	}
}
