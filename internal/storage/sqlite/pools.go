package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const poolCols = `id, event_id, name, target_amount, created_by, created_at`

func scanPool(scanner interface{ Scan(...any) error }) (*models.Pool, error) {
	var p models.Pool
	var target decimal.NullDecimal
	var createdAt int64
	if err := scanner.Scan(&p.ID, &p.EventID, &p.Name, &target, &p.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	if target.Valid {
		t := target.Decimal
		p.Target = &t
	}
	p.CreatedAt = fromUnix(createdAt)
	return &p, nil
}

// CreatePool inserts a new pool.
func (s *SQLiteStore) CreatePool(ctx context.Context, pool *models.Pool) error {
	now := s.now().UTC()

	var target sql.NullString
	if pool.Target != nil {
		target = sql.NullString{String: pool.Target.String(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO pools (event_id, name, target_amount, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		pool.EventID, pool.Name, target, pool.CreatedBy, unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pool: %w", translateError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read pool id: %w", err)
	}
	pool.ID = id
	pool.CreatedAt = fromUnix(unix(now))
	return nil
}

// GetPool retrieves a pool by ID.
func (s *SQLiteStore) GetPool(ctx context.Context, poolID int64) (*models.Pool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+poolCols+` FROM pools WHERE id = ?`, poolID)
	pool, err := scanPool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("pool", poolID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	return pool, nil
}

// ListPoolsByEvent returns the event's pools, oldest first.
func (s *SQLiteStore) ListPoolsByEvent(ctx context.Context, eventID int64) ([]*models.Pool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+poolCols+` FROM pools WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	defer rows.Close()

	var pools []*models.Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool: %w", err)
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pools: %w", err)
	}
	return pools, nil
}

// InsertContribution appends a contribution to a pool.
func (s *SQLiteStore) InsertContribution(ctx context.Context, c *models.Contribution) error {
	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO contributions (pool_id, contributor_id, amount, created_at) VALUES (?, ?, ?, ?)",
		c.PoolID, c.ContributorID, c.Amount.String(), unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", translateError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read contribution id: %w", err)
	}
	c.ID = id
	c.CreatedAt = fromUnix(unix(now))
	return nil
}

// FindPoolContributions returns the pool's contributions in creation order.
func (s *SQLiteStore) FindPoolContributions(ctx context.Context, poolID int64) ([]models.Contribution, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, pool_id, contributor_id, amount, created_at FROM contributions WHERE pool_id = ? ORDER BY id",
		poolID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	var contributions []models.Contribution
	for rows.Next() {
		var c models.Contribution
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.PoolID, &c.ContributorID, &c.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.CreatedAt = fromUnix(createdAt)
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return contributions, nil
}
