package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

// ledgerReader serves balance reads from either the pool or a snapshot transaction.
type ledgerReader struct {
	q querier
}

var _ storage.LedgerReader = ledgerReader{}

// FindGroupWithMembers loads a group and its members in join order.
func (s *SQLiteStore) FindGroupWithMembers(ctx context.Context, groupID int64) (*models.GroupWithMembers, error) {
	return ledgerReader{q: s.db}.FindGroupWithMembers(ctx, groupID)
}

// FindExpensesByGroup loads the group's expenses with their shares.
func (s *SQLiteStore) FindExpensesByGroup(ctx context.Context, groupID int64) ([]models.Expense, error) {
	return ledgerReader{q: s.db}.FindExpensesByGroup(ctx, groupID)
}

func (r ledgerReader) FindGroupWithMembers(ctx context.Context, groupID int64) (*models.GroupWithMembers, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+groupCols+` FROM groups WHERE id = ?`, groupID)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT m.user_id, m.group_id, m.role, m.joined_at, u.display_name
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	result := &models.GroupWithMembers{Group: *group}
	for rows.Next() {
		var m models.Member
		var role string
		var joinedAt int64
		if err := rows.Scan(&m.UserID, &m.GroupID, &role, &joinedAt, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = models.MemberRole(role)
		m.JoinedAt = fromUnix(joinedAt)
		result.Members = append(result.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return result, nil
}

func (r ledgerReader) FindExpensesByGroup(ctx context.Context, groupID int64) ([]models.Expense, error) {
	expenses, err := queryExpenses(ctx, r.q, `WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, err
	}
	if err := attachShares(ctx, r.q, expenses, sharesByGroup, groupID); err != nil {
		return nil, err
	}
	return expenses, nil
}

const expenseCols = `id, amount, paid_by, event_id, group_id, description, created_at`

func scanExpense(scanner interface{ Scan(...any) error }) (models.Expense, error) {
	var e models.Expense
	var eventID, groupID sql.NullInt64
	var description sql.NullString
	var createdAt int64
	if err := scanner.Scan(&e.ID, &e.Amount, &e.PayerID, &eventID, &groupID, &description, &createdAt); err != nil {
		return models.Expense{}, err
	}
	e.EventID = int64Ptr(eventID)
	e.GroupID = int64Ptr(groupID)
	e.Description = description.String
	e.CreatedAt = fromUnix(createdAt)
	return e, nil
}

// queryExpenses selects expenses matching where, in creation order.
func queryExpenses(ctx context.Context, q querier, where string, args ...any) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+expenseCols+` FROM expenses `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// Share queries select (expense_id, user_id, share_amount) for the expenses
// of one expense, group or event, keyed by a single bound id.
const (
	sharesByExpense = `
		SELECT expense_id, user_id, share_amount
		FROM expense_shares
		WHERE expense_id = ?
		ORDER BY id`
	sharesByGroup = `
		SELECT s.expense_id, s.user_id, s.share_amount
		FROM expense_shares s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.group_id = ?
		ORDER BY s.id`
	sharesByEvent = `
		SELECT s.expense_id, s.user_id, s.share_amount
		FROM expense_shares s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.event_id = ?
		ORDER BY s.id`
)

// attachShares runs sharesQuery and hands each share to its expense, keeping
// insertion order. Shares of expenses not in the slice are skipped.
func attachShares(ctx context.Context, q querier, expenses []models.Expense, sharesQuery string, id int64) error {
	if len(expenses) == 0 {
		return nil
	}

	index := make(map[int64]int, len(expenses))
	for i, e := range expenses {
		index[e.ID] = i
	}

	rows, err := q.QueryContext(ctx, sharesQuery, id)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var share models.ExpenseShare
		var amount decimal.Decimal
		if err := rows.Scan(&share.ExpenseID, &share.UserID, &amount); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		share.Amount = amount
		i, ok := index[share.ExpenseID]
		if !ok {
			continue
		}
		expenses[i].Shares = append(expenses[i].Shares, share)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return nil
}
