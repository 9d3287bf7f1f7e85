package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/ledger"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// SQLite refuses statements with more than 32766 bound variables; a group's
// history may hold more expenses than that.
const largeHistory = 33000

func TestBalancesOverLargeHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	group := &models.Group{Name: "Flatshare", CreatedBy: alice.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := store.AddMember(ctx, group.ID, bob.ID, models.MemberRoleMember); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	defer tx.Rollback()
	insertExpense, err := tx.PrepareContext(ctx,
		"INSERT INTO expenses (amount, paid_by, group_id, created_at) VALUES ('1.00', ?, ?, 1700000000)")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	insertShare, err := tx.PrepareContext(ctx,
		"INSERT INTO expense_shares (expense_id, user_id, share_amount) VALUES (?, ?, '1.00')")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	for i := 0; i < largeHistory; i++ {
		res, err := insertExpense.ExecContext(ctx, alice.ID, group.ID)
		if err != nil {
			t.Fatalf("insert expense %d failed: %v", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("LastInsertId failed: %v", err)
		}
		if _, err := insertShare.ExecContext(ctx, id, bob.ID); err != nil {
			t.Fatalf("insert share %d failed: %v", i, err)
		}
	}
	insertExpense.Close()
	insertShare.Close()
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	expenses, err := store.FindExpensesByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("FindExpensesByGroup failed: %v", err)
	}
	if len(expenses) != largeHistory {
		t.Fatalf("Expected %d expenses, got %d", largeHistory, len(expenses))
	}
	for _, i := range []int{0, largeHistory / 2, largeHistory - 1} {
		if len(expenses[i].Shares) != 1 || expenses[i].Shares[0].UserID != bob.ID {
			t.Errorf("Expense %d shares = %+v", i, expenses[i].Shares)
		}
	}

	balances, err := ledger.NewEngine(store).ComputeBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("Expected 2 balances, got %d", len(balances))
	}
	want := decimal.NewFromInt(largeHistory)
	if !balances[0].Balance.Equal(want) {
		t.Errorf("alice balance = %s, want %s", balances[0].Balance, want)
	}
	if !balances[1].Balance.Equal(want.Neg()) {
		t.Errorf("bob balance = %s, want %s", balances[1].Balance, want.Neg())
	}
}

func TestSharesStayWithTheirExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	group := &models.Group{Name: "Trip", CreatedBy: alice.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	other := &models.Group{Name: "Other", CreatedBy: alice.ID}
	if err := store.CreateGroup(ctx, other); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	create := func(groupID int64, amount string, shares ...models.ExpenseShare) *models.Expense {
		t.Helper()
		e := &models.Expense{Amount: decimal.RequireFromString(amount), PayerID: alice.ID, GroupID: &groupID, Shares: shares}
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		return e
	}
	first := create(group.ID, "10",
		models.ExpenseShare{UserID: alice.ID, Amount: decimal.RequireFromString("4")},
		models.ExpenseShare{UserID: bob.ID, Amount: decimal.RequireFromString("6")})
	create(other.ID, "99", models.ExpenseShare{UserID: bob.ID, Amount: decimal.RequireFromString("99")})
	second := create(group.ID, "5", models.ExpenseShare{UserID: bob.ID, Amount: decimal.RequireFromString("5")})

	expenses, err := store.FindExpensesByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("FindExpensesByGroup failed: %v", err)
	}
	if len(expenses) != 2 || expenses[0].ID != first.ID || expenses[1].ID != second.ID {
		t.Fatalf("Unexpected expenses %+v", expenses)
	}
	if len(expenses[0].Shares) != 2 || expenses[0].Shares[0].UserID != alice.ID || expenses[0].Shares[1].UserID != bob.ID {
		t.Errorf("First expense shares = %+v", expenses[0].Shares)
	}
	if len(expenses[1].Shares) != 1 || !expenses[1].Shares[0].Amount.Equal(decimal.RequireFromString("5")) {
		t.Errorf("Second expense shares = %+v", expenses[1].Shares)
	}

	got, err := store.GetExpense(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if len(got.Shares) != 2 {
		t.Errorf("GetExpense shares = %+v", got.Shares)
	}
}

func TestContributionFromUnknownUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	event := &models.Event{Name: "Picnic", CreatedBy: alice.ID}
	if err := store.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	pools := ledger.NewPools(store)
	pool, err := pools.CreatePool(ctx, event.ID, alice.ID, "Gift", nil)
	if err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}

	_, err = pools.AddContribution(ctx, pool.ID, 4040, decimal.NewFromInt(10))
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "user 4040") {
		t.Errorf("Error should name the contributor, got %q", err)
	}

	_, err = pools.AddContribution(ctx, pool.ID+1, alice.ID, decimal.NewFromInt(10))
	if !errors.Is(err, apperror.ErrNotFound) || !strings.Contains(err.Error(), "pool") {
		t.Errorf("Expected a missing pool, got %v", err)
	}
}
