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

func TestBoutiqueThresholdIsClamped(t *testing.T) {
	db := dbtest.New(t)
	repo := NewBoutiqueRepository(db)
	ctx := context.Background()

	b := &models.Boutique{Name: "Shop", Domain: "https://shop.example", APIKey: "k"}
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, models.DefaultLowStockThreshold, b.LowStockThreshold)

	b.LowStockThreshold = 500
	require.NoError(t, repo.Update(ctx, b))

	loaded, err := repo.Find(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, loaded.LowStockThreshold)

	missing, err := repo.Find(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBoutiqueDeleteCascades(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	boutiques := NewBoutiqueRepository(db)
	orders := NewOrderRepository(db)
	stocks := NewStockRepository(db)
	jobs := NewSyncJobRepository(db)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	b := &models.Boutique{Name: "Shop", Domain: "https://shop.example", APIKey: "k"}
	require.NoError(t, boutiques.Create(ctx, b))
	order := newOrder(b.ID, 1, "5", at)
	order.Items = []models.OrderItem{{ProductName: "A", Quantity: 1}}
	require.NoError(t, orders.Save(ctx, order))
	_, err := stocks.InsertSnapshot(ctx, []models.StockSnapshot{snapshotRow(b.ID, 1, "A", 1, at)}, 100)
	require.NoError(t, err)
	require.NoError(t, jobs.Create(ctx, &models.SyncJob{BoutiqueID: b.ID, Type: models.SyncJobTypeBoth, StartedAt: at}))

	require.NoError(t, boutiques.Delete(ctx, b.ID))

	for _, m := range []interface{}{&models.Boutique{}, &models.Order{}, &models.OrderItem{}, &models.StockSnapshot{}, &models.SyncJob{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}
