package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	assert.Equal(t, []Range{{1, 5000}, {5001, 10000}, {10001, 12345}}, SplitRange(1, 12345, 5000))
	assert.Equal(t, []Range{{1, 1}}, SplitRange(1, 1, 5000))
	assert.Nil(t, SplitRange(5, 4, 10))
	assert.Nil(t, SplitRange(1, 10, 0))

	total := 0
	for _, r := range SplitRange(1, 12345, 5000) {
		total += r.Len()
	}
	assert.Equal(t, 12345, total)
}

func TestPlanBackfill(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON("orders", `{"orders":[{"id":23}]}`)

	maxID, chunks, err := f.collector.PlanBackfill(context.Background(), f.boutique)
	require.NoError(t, err)
	assert.Equal(t, 23, maxID)
	assert.Equal(t, []Range{{1, 10}, {11, 20}, {21, 23}}, chunks)
}

func TestPlanBackfillEmptyShop(t *testing.T) {
	f := newFixture(t)

	maxID, chunks, err := f.collector.PlanBackfill(context.Background(), f.boutique)
	require.NoError(t, err)
	assert.Zero(t, maxID)
	assert.Empty(t, chunks)
}

func TestCollectOrdersChunk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(2, "2015-03-01 10:00:00")
	f.order(11, "2024-06-01 10:00:00")
	f.order(13, "2024-06-01 10:00:00")
	f.customerAndAddress()

	res := f.collector.CollectOrdersChunk(ctx, f.boutique, 1, 12)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.StartID)
	assert.Equal(t, 12, res.EndID)
	assert.Equal(t, 2, res.OrdersFound)
	assert.Equal(t, 2, res.SavedCount)
	assert.Zero(t, f.srv.Hits("orders/13"))

	// Old orders are kept: chunks have no date filter.
	old, err := f.orders.FindByRemoteID(ctx, f.boutique.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, old)
}

func TestCollectOrdersChunkRejectsInvalidRange(t *testing.T) {
	f := newFixture(t)

	res := f.collector.CollectOrdersChunk(context.Background(), f.boutique, 10, 5)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid order id range")

	res = f.collector.CollectOrdersChunk(context.Background(), f.boutique, 0, 5)
	assert.False(t, res.Success)
}
