package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/calculator"
	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

// Pools handles event pools and their append-only contributions.
type Pools struct {
	store storage.PoolStore
}

// NewPools creates a Pools component.
func NewPools(store storage.PoolStore) *Pools {
	return &Pools{store: store}
}

// CreatePool registers a pool on an event. The target is informational and
// never enforced.
func (p *Pools) CreatePool(ctx context.Context, eventID, createdBy int64, name string, target *decimal.Decimal) (*models.Pool, error) {
	verr := &apperror.ValidationError{}
	if name == "" {
		verr.Add("name", "required")
	}
	if target != nil && target.IsNegative() {
		verr.Add("target_amount", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	pool := &models.Pool{EventID: eventID, Name: name, Target: target, CreatedBy: createdBy}
	if err := p.store.CreatePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return pool, nil
}

// GetPool returns a pool or apperror.ErrNotFound.
func (p *Pools) GetPool(ctx context.Context, poolID int64) (*models.Pool, error) {
	return p.store.GetPool(ctx, poolID)
}

// ListPoolsByEvent returns the event's pools, oldest first.
func (p *Pools) ListPoolsByEvent(ctx context.Context, eventID int64) ([]*models.Pool, error) {
	return p.store.ListPoolsByEvent(ctx, eventID)
}

// PoolTotal sums every contribution to the pool. Empty and unknown pools
// both total zero.
func (p *Pools) PoolTotal(ctx context.Context, poolID int64) (decimal.Decimal, error) {
	contributions, err := p.store.FindPoolContributions(ctx, poolID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load contributions: %w", err)
	}
	return calculator.SumContributions(contributions), nil
}

// AddContribution appends a contribution. Negative amounts are rejected
// before anything is written. An unknown pool or contributor yields
// apperror.ErrNotFound naming the missing row.
func (p *Pools) AddContribution(ctx context.Context, poolID, contributorID int64, amount decimal.Decimal) (*models.Contribution, error) {
	if amount.IsNegative() {
		metrics.RecordContribution("rejected")
		return nil, apperror.NewValidation("amount", "must not be negative")
	}

	if _, err := p.store.GetPool(ctx, poolID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			metrics.RecordContribution("rejected")
			return nil, fmt.Errorf("pool %d: %w", poolID, apperror.ErrNotFound)
		}
		metrics.RecordContribution("error")
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	c := &models.Contribution{PoolID: poolID, ContributorID: contributorID, Amount: amount}
	if err := p.store.InsertContribution(ctx, c); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			metrics.RecordContribution("rejected")
			return nil, fmt.Errorf("contribution from user %d to pool %d: %w", contributorID, poolID, err)
		}
		metrics.RecordContribution("error")
		return nil, fmt.Errorf("failed to add contribution: %w", err)
	}

	slog.Info("Contribution added", "pool_id", poolID, "contributor_id", contributorID, "amount", amount.String())
	metrics.RecordContribution("ok")
	return c, nil
}

// ContributionsByPool lists contributions in creation order. Unknown pools
// have none.
func (p *Pools) ContributionsByPool(ctx context.Context, poolID int64) ([]models.Contribution, error) {
	contributions, err := p.store.FindPoolContributions(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}
	if contributions == nil {
		contributions = []models.Contribution{}
	}
	return contributions, nil
}
