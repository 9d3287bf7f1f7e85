package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const invitationCols = `id, group_id, invited_by, token, phone, created_at`

func scanInvitation(scanner interface{ Scan(...any) error }) (*models.Invitation, error) {
	var inv models.Invitation
	var phone sql.NullString
	var createdAt int64
	if err := scanner.Scan(&inv.ID, &inv.GroupID, &inv.InvitedBy, &inv.Token, &phone, &createdAt); err != nil {
		return nil, err
	}
	inv.Phone = phone.String
	inv.CreatedAt = fromUnix(createdAt)
	return &inv, nil
}

// InsertInvitation stores a new invitation.
func (s *SQLiteStore) InsertInvitation(ctx context.Context, inv *models.Invitation) error {
	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO invitations (group_id, invited_by, token, phone, created_at) VALUES (?, ?, ?, ?, ?)",
		inv.GroupID, inv.InvitedBy, inv.Token, nullString(inv.Phone), unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", translateError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read invitation id: %w", err)
	}
	inv.ID = id
	inv.CreatedAt = fromUnix(unix(now))
	return nil
}

// FindInvitation retrieves an invitation by ID.
func (s *SQLiteStore) FindInvitation(ctx context.Context, invitationID int64) (*models.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invitationCols+` FROM invitations WHERE id = ?`, invitationID)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invitation", invitationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// FindInvitationByToken retrieves an invitation by its token.
func (s *SQLiteStore) FindInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invitationCols+` FROM invitations WHERE token = ?`, token)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invitation", "token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}
