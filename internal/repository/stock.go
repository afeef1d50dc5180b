package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prestaboost/internal/models"

	"gorm.io/gorm"
)

// latestPerProduct selects, for each product, the row with the highest collected_at.
const latestPerProduct = `collected_at = (
	SELECT MAX(s2.collected_at) FROM stock_snapshots s2
	WHERE s2.boutique_id = stock_snapshots.boutique_id
	AND s2.remote_product_id = stock_snapshots.remote_product_id)`

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// InsertSnapshot appends rows in flushSize groups and returns how many were
// written. Rows written before a failure stay written.
func (r *StockRepository) InsertSnapshot(ctx context.Context, rows []models.StockSnapshot, flushSize int) (int, error) {
	if flushSize <= 0 {
		flushSize = 100
	}
	saved := 0
	for start := 0; start < len(rows); start += flushSize {
		end := start + flushSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		if err := r.db.WithContext(ctx).Create(&batch).Error; err != nil {
			return saved, fmt.Errorf("failed to insert stock snapshot rows: %w", err)
		}
		saved += len(batch)
	}
	return saved, nil
}

// Latest returns the current stock row of every product of the boutique.
func (r *StockRepository) Latest(ctx context.Context, boutiqueID string) ([]models.StockSnapshot, error) {
	var rows []models.StockSnapshot
	err := r.db.WithContext(ctx).
		Where("boutique_id = ?", boutiqueID).
		Where(latestPerProduct).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load latest stock: %w", err)
	}
	return rows, nil
}

// LatestCollectedAt is nil when nothing was ever collected.
func (r *StockRepository) LatestCollectedAt(ctx context.Context, boutiqueID string) (*time.Time, error) {
	var row models.StockSnapshot
	err := r.db.WithContext(ctx).
		Where("boutique_id = ?", boutiqueID).
		Order("collected_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest collection time: %w", err)
	}
	at := row.CollectedAt
	return &at, nil
}

// SnapshotAt returns every row written by the run stamped at.
func (r *StockRepository) SnapshotAt(ctx context.Context, boutiqueID string, at time.Time) ([]models.StockSnapshot, error) {
	var rows []models.StockSnapshot
	err := r.db.WithContext(ctx).
		Where("boutique_id = ? AND collected_at = ?", boutiqueID, at).
		Order("remote_product_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return rows, nil
}

func (r *StockRepository) ProductHistory(ctx context.Context, boutiqueID string, productID int, since time.Time) ([]models.StockSnapshot, error) {
	var rows []models.StockSnapshot
	err := r.db.WithContext(ctx).
		Where("boutique_id = ? AND remote_product_id = ? AND collected_at >= ?", boutiqueID, productID, since).
		Order("collected_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product history: %w", err)
	}
	return rows, nil
}

type StockStats struct {
	TotalProducts int   `json:"total_products"`
	TotalQuantity int64 `json:"total_quantity"`
	OutOfStock    int   `json:"out_of_stock"`
	LowStock      int   `json:"low_stock"`
}

func (r *StockRepository) LatestStats(ctx context.Context, boutiqueID string, threshold int) (StockStats, error) {
	rows, err := r.Latest(ctx, boutiqueID)
	if err != nil {
		return StockStats{}, err
	}
	stats := StockStats{TotalProducts: len(rows)}
	for i := range rows {
		stats.TotalQuantity += int64(rows[i].Quantity)
		switch {
		case rows[i].IsOutOfStock():
			stats.OutOfStock++
		case rows[i].IsLowStock(threshold):
			stats.LowStock++
		}
	}
	return stats, nil
}

type LowStockReport struct {
	Threshold  int                    `json:"threshold"`
	OutOfStock []models.StockSnapshot `json:"out_of_stock"`
	LowStock   []models.StockSnapshot `json:"low_stock"`
}

// LowStock splits the current stock into out-of-stock products and products
// with 0 < quantity < threshold, each ordered by quantity.
func (r *StockRepository) LowStock(ctx context.Context, boutiqueID string, threshold int) (LowStockReport, error) {
	report := LowStockReport{
		Threshold:  threshold,
		OutOfStock: []models.StockSnapshot{},
		LowStock:   []models.StockSnapshot{},
	}
	var rows []models.StockSnapshot
	err := r.db.WithContext(ctx).
		Where("boutique_id = ?", boutiqueID).
		Where(latestPerProduct).
		Where("quantity < ?", threshold).
		Order("quantity ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return report, fmt.Errorf("failed to load low stock: %w", err)
	}
	for _, row := range rows {
		if row.IsOutOfStock() {
			report.OutOfStock = append(report.OutOfStock, row)
		} else {
			report.LowStock = append(report.LowStock, row)
		}
	}
	return report, nil
}
