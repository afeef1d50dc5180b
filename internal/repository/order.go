package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prestaboost/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByRemoteID loads an order with its items, or (nil, nil) if unknown.
func (r *OrderRepository) FindByRemoteID(ctx context.Context, boutiqueID string, remoteID int) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("boutique_id = ? AND remote_order_id = ?", boutiqueID, remoteID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", remoteID, err)
	}
	return &order, nil
}

// Save inserts or updates the order row and inserts any items that have no
// id yet. Existing items are left alone.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.ID == "" {
			if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
				return fmt.Errorf("failed to create order %d: %w", order.RemoteOrderID, err)
			}
		} else if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return fmt.Errorf("failed to update order %d: %w", order.RemoteOrderID, err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.ID != "" {
				continue
			}
			item.OrderID = order.ID
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to create item for order %d: %w", order.RemoteOrderID, err)
			}
		}
		return nil
	})
}

// Delete removes an order and its items.
func (r *OrderRepository) Delete(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Delete(&models.Order{}, "id = ?", order.ID).Error; err != nil {
			return fmt.Errorf("failed to delete order %d: %w", order.RemoteOrderID, err)
		}
		return nil
	})
}

func (r *OrderRepository) CountItems(ctx context.Context, orderID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

// Count counts orders dated in [from, to).
func (r *OrderRepository) Count(ctx context.Context, boutiqueID string, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("boutique_id = ? AND order_date >= ? AND order_date < ?", boutiqueID, from, to).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) CountAll(ctx context.Context, boutiqueID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("boutique_id = ?", boutiqueID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

// Revenue sums total_paid of orders dated in [from, to).
func (r *OrderRepository) Revenue(ctx context.Context, boutiqueID string, from, to time.Time) (decimal.Decimal, error) {
	var paid []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("boutique_id = ? AND order_date >= ? AND order_date < ?", boutiqueID, from, to).
		Pluck("total_paid", &paid).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	total := decimal.Zero
	for _, p := range paid {
		total = total.Add(p)
	}
	return total, nil
}

func (r *OrderRepository) Recent(ctx context.Context, boutiqueID string, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("boutique_id = ?", boutiqueID).
		Order("order_date DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	return orders, nil
}
