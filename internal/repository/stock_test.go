package repository

import (
	"context"
	"testing"
	"time"

	"prestaboost/internal/database/dbtest"
	"prestaboost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotRow(boutiqueID string, productID int, name string, qty int, at time.Time) models.StockSnapshot {
	return models.StockSnapshot{
		BoutiqueID:      boutiqueID,
		RemoteProductID: productID,
		Name:            name,
		Quantity:        qty,
		CollectedAt:     at,
	}
}

func TestStockLatestUsesMaxCollectedAtPerProduct(t *testing.T) {
	db := dbtest.New(t)
	repo := NewStockRepository(db)
	ctx := context.Background()

	first := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(30 * time.Minute)

	_, err := repo.InsertSnapshot(ctx, []models.StockSnapshot{
		snapshotRow("b1", 1, "A", 5, first),
		snapshotRow("b1", 2, "B", 3, first),
		snapshotRow("b2", 1, "Other", 99, second),
	}, 100)
	require.NoError(t, err)
	// The second run only saw product 1.
	_, err = repo.InsertSnapshot(ctx, []models.StockSnapshot{snapshotRow("b1", 1, "A", 4, second)}, 100)
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 4, latest[0].Quantity)
	assert.True(t, latest[0].CollectedAt.Equal(second))
	assert.Equal(t, 3, latest[1].Quantity)

	at, err := repo.LatestCollectedAt(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, at.Equal(second))

	snap, err := repo.SnapshotAt(ctx, "b1", first)
	require.NoError(t, err)
	assert.Len(t, snap, 2)

	history, err := repo.ProductHistory(ctx, "b1", 1, first)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 5, history[0].Quantity)
}

func TestInsertSnapshotFlushesInBatches(t *testing.T) {
	db := dbtest.New(t)
	repo := NewStockRepository(db)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	rows := make([]models.StockSnapshot, 0, 250)
	for i := 1; i <= 250; i++ {
		rows = append(rows, snapshotRow("b1", i, "P", i, at))
	}
	saved, err := repo.InsertSnapshot(context.Background(), rows, 100)
	require.NoError(t, err)
	assert.Equal(t, 250, saved)

	var count int64
	require.NoError(t, db.Model(&models.StockSnapshot{}).Count(&count).Error)
	assert.EqualValues(t, 250, count)
}

func TestLowStockSplitsOutOfStock(t *testing.T) {
	db := dbtest.New(t)
	repo := NewStockRepository(db)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.InsertSnapshot(ctx, []models.StockSnapshot{
		snapshotRow("b1", 1, "A", 5, at),
		snapshotRow("b1", 2, "B", 0, at),
		snapshotRow("b1", 3, "C", 12, at),
	}, 100)
	require.NoError(t, err)

	report, err := repo.LowStock(ctx, "b1", 10)
	require.NoError(t, err)
	require.Len(t, report.OutOfStock, 1)
	assert.Equal(t, 2, report.OutOfStock[0].RemoteProductID)
	require.Len(t, report.LowStock, 1)
	assert.Equal(t, 1, report.LowStock[0].RemoteProductID)

	stats, err := repo.LatestStats(ctx, "b1", 10)
	require.NoError(t, err)
	assert.Equal(t, StockStats{TotalProducts: 3, TotalQuantity: 17, OutOfStock: 1, LowStock: 1}, stats)
}
