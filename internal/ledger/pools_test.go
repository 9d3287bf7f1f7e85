package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
)

func TestPoolTotalScenario(t *testing.T) {
	pools := NewPools(newFakePools(1))
	ctx := context.Background()

	for _, amount := range []int64{20, 15, 5} {
		_, err := pools.AddContribution(ctx, 1, 7, decimal.NewFromInt(amount))
		require.NoError(t, err)
	}

	total, err := pools.PoolTotal(ctx, 1)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(40)), "total = %s", total)
}

func TestPoolTotalEmptyAndUnknown(t *testing.T) {
	pools := NewPools(newFakePools(1))
	ctx := context.Background()

	for _, poolID := range []int64{1, 999} {
		total, err := pools.PoolTotal(ctx, poolID)
		require.NoError(t, err)
		assert.True(t, total.IsZero(), "pool %d total = %s", poolID, total)
	}
}

func TestAddContributionRejectsNegative(t *testing.T) {
	store := newFakePools(1)
	pools := NewPools(store)
	ctx := context.Background()

	_, err := pools.AddContribution(ctx, 1, 7, decimal.NewFromInt(10))
	require.NoError(t, err)

	_, err = pools.AddContribution(ctx, 1, 7, decimal.NewFromInt(-3))
	assert.True(t, apperror.IsValidation(err))

	total, err := pools.PoolTotal(ctx, 1)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(10)), "rejected contribution must not change the total")
	assert.Len(t, store.contributions, 1)
}

func TestAddContributionUnknownPool(t *testing.T) {
	pools := NewPools(newFakePools())

	_, err := pools.AddContribution(context.Background(), 999, 7, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddContributionNamesTheMissingRow(t *testing.T) {
	store := newFakePools(1)
	store.users = map[int64]bool{7: true}
	pools := NewPools(store)
	ctx := context.Background()

	_, err := pools.AddContribution(ctx, 999, 7, decimal.NewFromInt(10))
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, err.Error(), "pool 999")

	_, err = pools.AddContribution(ctx, 1, 8, decimal.NewFromInt(10))
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, err.Error(), "user 8")
	assert.NotContains(t, err.Error(), "pool 1: not found")
	assert.Empty(t, store.contributions)
}

func TestAddContributionZeroIsAllowed(t *testing.T) {
	pools := NewPools(newFakePools(1))

	c, err := pools.AddContribution(context.Background(), 1, 7, decimal.Zero)
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
}

func TestContributionsByPoolKeepsOrder(t *testing.T) {
	pools := NewPools(newFakePools(1, 2))
	ctx := context.Background()

	for _, step := range []struct {
		pool   int64
		amount string
	}{{1, "1"}, {2, "50"}, {1, "2"}, {1, "3"}} {
		_, err := pools.AddContribution(ctx, step.pool, 7, decimal.RequireFromString(step.amount))
		require.NoError(t, err)
	}

	list, err := pools.ContributionsByPool(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.True(t, list[i].Amount.Equal(decimal.RequireFromString(want)))
	}

	empty, err := pools.ContributionsByPool(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCreatePoolValidation(t *testing.T) {
	pools := NewPools(newFakePools())
	negative := decimal.NewFromInt(-1)

	_, err := pools.CreatePool(context.Background(), 1, 7, "", &negative)
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "name")
	assert.Contains(t, verr.FieldErrors, "target_amount")
}
