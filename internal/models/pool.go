package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pool is a fund attached to an event. Target is informational only.
type Pool struct {
	ID        int64
	EventID   int64
	Name      string
	Target    *decimal.Decimal
	CreatedBy int64
	CreatedAt time.Time
}

// Contribution is a single deposit into a pool. Contributions are never
// updated or deleted.
type Contribution struct {
	ID            int64
	PoolID        int64
	ContributorID int64
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
