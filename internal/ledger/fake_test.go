package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

// fakeLedger serves fixed groups and expenses.
type fakeLedger struct {
	groups   map[int64]*models.GroupWithMembers
	expenses map[int64][]models.Expense
	err      error
	reads    int
}

func (f *fakeLedger) FindGroupWithMembers(ctx context.Context, groupID int64) (*models.GroupWithMembers, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %d: %w", groupID, apperror.ErrNotFound)
	}
	return g, nil
}

func (f *fakeLedger) FindExpensesByGroup(ctx context.Context, groupID int64) ([]models.Expense, error) {
	f.reads++
	return f.expenses[groupID], nil
}

// snapshotLedger also implements storage.Snapshotter and counts snapshots.
type snapshotLedger struct {
	*fakeLedger
	snapshots int
}

func (s *snapshotLedger) ReadSnapshot(ctx context.Context, fn func(storage.LedgerReader) error) error {
	s.snapshots++
	return fn(s.fakeLedger)
}

// fakePools is an in-memory PoolStore.
type fakePools struct {
	mu            sync.Mutex
	pools         map[int64]*models.Pool
	contributions []models.Contribution
	nextID        int64

	// users, when set, lists the contributors the foreign key accepts.
	users map[int64]bool
}

func newFakePools(poolIDs ...int64) *fakePools {
	f := &fakePools{pools: map[int64]*models.Pool{}, nextID: 1}
	for _, id := range poolIDs {
		f.pools[id] = &models.Pool{ID: id, Name: "pool"}
	}
	return f
}

func (f *fakePools) CreatePool(ctx context.Context, pool *models.Pool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pool.ID = int64(len(f.pools) + 100)
	f.pools[pool.ID] = pool
	return nil
}

func (f *fakePools) GetPool(ctx context.Context, poolID int64) (*models.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolID]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return p, nil
}

func (f *fakePools) ListPoolsByEvent(ctx context.Context, eventID int64) ([]*models.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Pool
	for _, p := range f.pools {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePools) InsertContribution(ctx context.Context, c *models.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pools[c.PoolID]; !ok {
		return fmt.Errorf("referenced row missing: %w", apperror.ErrNotFound)
	}
	if f.users != nil && !f.users[c.ContributorID] {
		return fmt.Errorf("referenced row missing: %w", apperror.ErrNotFound)
	}
	c.ID = f.nextID
	f.nextID++
	f.contributions = append(f.contributions, *c)
	return nil
}

func (f *fakePools) FindPoolContributions(ctx context.Context, poolID int64) ([]models.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Contribution
	for _, c := range f.contributions {
		if c.PoolID == poolID {
			out = append(out, c)
		}
	}
	return out, nil
}
