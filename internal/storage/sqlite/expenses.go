package sqlite

import (
	"context"
	"fmt"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// CreateExpense inserts an expense and its shares atomically.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO expenses (amount, paid_by, event_id, group_id, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		expense.Amount.String(), expense.PayerID, nullInt64(expense.EventID), nullInt64(expense.GroupID),
		nullString(expense.Description), unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", translateError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO expense_shares (expense_id, user_id, share_amount) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare share insert: %w", err)
	}
	defer stmt.Close()

	for i := range expense.Shares {
		share := &expense.Shares[i]
		if _, err := stmt.ExecContext(ctx, id, share.UserID, share.Amount.String()); err != nil {
			return fmt.Errorf("failed to insert share: %w", translateError(err))
		}
		share.ExpenseID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	expense.ID = id
	expense.CreatedAt = fromUnix(unix(now))
	return nil
}

// GetExpense retrieves an expense with its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	expenses, err := queryExpenses(ctx, s.db, `WHERE id = ?`, expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, notFound("expense", expenseID)
	}
	if err := attachShares(ctx, s.db, expenses, sharesByExpense, expenseID); err != nil {
		return nil, err
	}
	return &expenses[0], nil
}

// ListExpensesByEvent returns the event's expenses with shares, oldest first.
func (s *SQLiteStore) ListExpensesByEvent(ctx context.Context, eventID int64) ([]models.Expense, error) {
	expenses, err := queryExpenses(ctx, s.db, `WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	if err := attachShares(ctx, s.db, expenses, sharesByEvent, eventID); err != nil {
		return nil, err
	}
	return expenses, nil
}
