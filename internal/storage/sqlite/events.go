package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const eventCols = `e.id, e.group_id, e.name, e.description, e.starts_at, e.created_by, e.created_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	var groupID, startsAt sql.NullInt64
	var description sql.NullString
	var createdAt int64
	if err := scanner.Scan(&e.ID, &groupID, &e.Name, &description, &startsAt, &e.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	e.GroupID = int64Ptr(groupID)
	e.Description = description.String
	e.StartsAt = timePtr(startsAt)
	e.CreatedAt = fromUnix(createdAt)
	return &e, nil
}

// CreateEvent inserts the event and its participant rows. The creator is
// always an accepted participant; everyone else starts pending.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO events (group_id, name, description, starts_at, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		nullInt64(event.GroupID), event.Name, nullString(event.Description), nullUnix(event.StartsAt), event.CreatedBy, unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", translateError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}

	participants := []models.EventParticipant{{UserID: event.CreatedBy, Status: models.ParticipantAccepted}}
	seen := map[int64]bool{event.CreatedBy: true}
	for _, p := range event.Participants {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		participants = append(participants, models.EventParticipant{UserID: p.UserID, Status: models.ParticipantPending})
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO event_participants (event_id, user_id, status) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare participant insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range participants {
		if _, err := stmt.ExecContext(ctx, id, p.UserID, string(p.Status)); err != nil {
			return fmt.Errorf("failed to insert participant: %w", translateError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	event.ID = id
	event.CreatedAt = fromUnix(unix(now))
	event.Participants = participants
	return nil
}

// GetEvent retrieves an event with its participants.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events e WHERE e.id = ?`, eventID)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("event", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, status FROM event_participants WHERE event_id = ? ORDER BY rowid",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.EventParticipant
		var status string
		if err := rows.Scan(&p.UserID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Status = models.ParticipantStatus(status)
		event.Participants = append(event.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return event, nil
}

// ListEventsByGroup returns the group's events, oldest first. Participants
// are not loaded.
func (s *SQLiteStore) ListEventsByGroup(ctx context.Context, groupID int64) ([]*models.Event, error) {
	return s.listEvents(ctx, `SELECT `+eventCols+` FROM events e WHERE e.group_id = ? ORDER BY e.id`, groupID)
}

// ListEventsByUser returns events the user participates in, oldest first.
func (s *SQLiteStore) ListEventsByUser(ctx context.Context, userID int64) ([]*models.Event, error) {
	return s.listEvents(ctx, `
		SELECT `+eventCols+`
		FROM events e
		JOIN event_participants p ON p.event_id = e.id
		WHERE p.user_id = ?
		ORDER BY e.id`,
		userID,
	)
}

func (s *SQLiteStore) listEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// SetParticipantStatus records a participant's answer. The user must already
// be a participant.
func (s *SQLiteStore) SetParticipantStatus(ctx context.Context, eventID, userID int64, status models.ParticipantStatus) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE event_participants SET status = ? WHERE event_id = ? AND user_id = ?",
		string(status), eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound("participant", fmt.Sprintf("%d/%d", eventID, userID))
	}
	return nil
}
