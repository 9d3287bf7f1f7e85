// Package ledger computes what group members owe each other and what pools
// have collected. It reads through the storage gateway and leaves the
// arithmetic to package calculator.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/calculator"
	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

// Engine derives group balances from persisted expenses. It holds no state
// between calls.
type Engine struct {
	reader storage.LedgerReader
}

// NewEngine creates an Engine. When reader also implements
// storage.Snapshotter, members and expenses are read in one snapshot.
func NewEngine(reader storage.LedgerReader) *Engine {
	return &Engine{reader: reader}
}

// ComputeBalances returns one balance per group member, in membership order.
// An unknown group yields an empty result and no error.
func (e *Engine) ComputeBalances(ctx context.Context, groupID int64) ([]calculator.MemberBalance, error) {
	var (
		group    *models.GroupWithMembers
		expenses []models.Expense
	)

	load := func(r storage.LedgerReader) error {
		var err error
		group, err = r.FindGroupWithMembers(ctx, groupID)
		if err != nil {
			return err
		}
		expenses, err = r.FindExpensesByGroup(ctx, groupID)
		return err
	}

	var err error
	if snap, ok := e.reader.(storage.Snapshotter); ok {
		err = snap.ReadSnapshot(ctx, load)
	} else {
		err = load(e.reader)
	}

	if errors.Is(err, apperror.ErrNotFound) {
		slog.Debug("Balances requested for unknown group", "group_id", groupID)
		metrics.RecordBalanceComputation("group_not_found")
		return []calculator.MemberBalance{}, nil
	}
	if err != nil {
		slog.Warn("Failed to load ledger", "group_id", groupID, "error", err)
		metrics.RecordBalanceComputation("error")
		return nil, err
	}

	metrics.RecordBalanceComputation("ok")
	return calculator.ComputeBalances(group.Members, expenses), nil
}
