package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		participants []int64
		want         []string
		wantErr      bool
	}{
		{
			name:         "even split",
			amount:       "90",
			participants: []int64{1, 2, 3},
			want:         []string{"30", "30", "30"},
		},
		{
			name:         "leftover cent goes to the first participant",
			amount:       "100",
			participants: []int64{1, 2, 3},
			want:         []string{"33.34", "33.33", "33.33"},
		},
		{
			name:         "two leftover cents",
			amount:       "10.02",
			participants: []int64{1, 2, 3, 4},
			want:         []string{"2.51", "2.51", "2.50", "2.50"},
		},
		{
			name:         "single participant takes everything",
			amount:       "12.345",
			participants: []int64{7},
			want:         []string{"12.345"},
		},
		{
			name:         "no participants should error",
			amount:       "10",
			participants: nil,
			wantErr:      true,
		},
		{
			name:         "negative amount should error",
			amount:       "-10",
			participants: []int64{1},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := d(tt.amount)
			shares, err := SplitEqually(amount, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitEqually() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			total := decimal.Zero
			for i, s := range shares {
				if s.UserID != tt.participants[i] {
					t.Errorf("share %d is for user %d, want %d", i, s.UserID, tt.participants[i])
				}
				if !s.Amount.Equal(d(tt.want[i])) {
					t.Errorf("share %d = %s, want %s", i, s.Amount, tt.want[i])
				}
				total = total.Add(s.Amount)
			}
			if !total.Equal(amount) {
				t.Errorf("shares sum to %s, want %s", total, amount)
			}
		})
	}
}

func TestValidateShares(t *testing.T) {
	shares := func(amounts ...string) []models.ExpenseShare {
		out := make([]models.ExpenseShare, len(amounts))
		for i, a := range amounts {
			out[i] = models.ExpenseShare{UserID: int64(i + 1), Amount: d(a)}
		}
		return out
	}

	tests := []struct {
		name      string
		amount    string
		payerID   int64
		shares    []models.ExpenseShare
		wantField string
	}{
		{name: "valid", amount: "50", payerID: 1, shares: shares("20", "30")},
		{name: "zero amount with zero shares", amount: "0", payerID: 1, shares: shares("0")},
		{name: "negative amount", amount: "-1", payerID: 1, shares: shares("-1"), wantField: "amount"},
		{name: "missing payer", amount: "10", payerID: 0, shares: shares("10"), wantField: "payer_id"},
		{name: "no shares", amount: "10", payerID: 1, shares: nil, wantField: "shares"},
		{name: "shares do not add up", amount: "10", payerID: 1, shares: shares("5", "4.99"), wantField: "shares"},
		{name: "negative share", amount: "10", payerID: 1, shares: shares("15", "-5"), wantField: "shares"},
		{
			name:      "duplicate share-holder",
			amount:    "10",
			payerID:   1,
			shares:    []models.ExpenseShare{{UserID: 1, Amount: d("5")}, {UserID: 1, Amount: d("5")}},
			wantField: "shares",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShares(d(tt.amount), tt.payerID, tt.shares)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateShares() = %v, want nil", err)
				}
				return
			}
			verr, ok := err.(*apperror.ValidationError)
			if !ok {
				t.Fatalf("ValidateShares() = %v, want *ValidationError", err)
			}
			if _, ok := verr.FieldErrors[tt.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.FieldErrors)
			}
		})
	}
}
