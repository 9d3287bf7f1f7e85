package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const groupCols = `id, name, description, visibility, created_by, created_at`

func scanGroup(scanner interface{ Scan(...any) error }) (*models.Group, error) {
	var g models.Group
	var description sql.NullString
	var visibility string
	var createdAt int64
	if err := scanner.Scan(&g.ID, &g.Name, &description, &visibility, &g.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	g.Description = description.String
	g.Visibility = models.GroupVisibility(visibility)
	g.CreatedAt = fromUnix(createdAt)
	return &g, nil
}

// CreateGroup persists a new group and makes its creator an admin member.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	now := s.now().UTC()
	if group.Visibility == "" {
		group.Visibility = models.VisibilityGroupMembers
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO groups (name, description, visibility, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		group.Name, nullString(group.Description), string(group.Visibility), group.CreatedBy, unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", translateError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read group id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		id, group.CreatedBy, string(models.MemberRoleAdmin), unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert creator membership: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	group.ID = id
	group.CreatedAt = fromUnix(unix(now))
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupCols+` FROM groups WHERE id = ?`, groupID)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group. The schema cascades to memberships and
// invitations and detaches events and expenses.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n == 0 {
		return notFound("group", groupID)
	}
	return nil
}

// ListGroupsByUser returns the groups the user belongs to, oldest first.
func (s *SQLiteStore) ListGroupsByUser(ctx context.Context, userID int64) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.visibility, g.created_by, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// AddMember adds a user to a group.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID int64, role models.MemberRole) error {
	if role == "" {
		role = models.MemberRoleMember
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		groupID, userID, string(role), unix(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", translateError(err))
	}
	return nil
}

// IsMember reports whether the user belongs to the group.
func (s *SQLiteStore) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}
