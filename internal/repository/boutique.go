package repository

import (
	"context"
	"errors"
	"fmt"

	"prestaboost/internal/models"

	"gorm.io/gorm"
)

type BoutiqueRepository struct {
	db *gorm.DB
}

func NewBoutiqueRepository(db *gorm.DB) *BoutiqueRepository {
	return &BoutiqueRepository{db: db}
}

// Find returns (nil, nil) when the boutique does not exist.
func (r *BoutiqueRepository) Find(ctx context.Context, id string) (*models.Boutique, error) {
	var b models.Boutique
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load boutique %s: %w", id, err)
	}
	return &b, nil
}

func (r *BoutiqueRepository) List(ctx context.Context) ([]models.Boutique, error) {
	var boutiques []models.Boutique
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&boutiques).Error; err != nil {
		return nil, fmt.Errorf("failed to list boutiques: %w", err)
	}
	return boutiques, nil
}

func (r *BoutiqueRepository) Create(ctx context.Context, b *models.Boutique) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create boutique: %w", err)
	}
	return nil
}

func (r *BoutiqueRepository) Update(ctx context.Context, b *models.Boutique) error {
	if err := r.db.WithContext(ctx).Save(b).Error; err != nil {
		return fmt.Errorf("failed to update boutique %s: %w", b.ID, err)
	}
	return nil
}

// Delete removes the boutique and everything collected for it.
func (r *BoutiqueRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderIDs := tx.Model(&models.Order{}).Select("id").Where("boutique_id = ?", id)
		if err := tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		for _, m := range []interface{}{&models.Order{}, &models.StockSnapshot{}, &models.SyncJob{}} {
			if err := tx.Where("boutique_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("failed to delete boutique data: %w", err)
			}
		}
		if err := tx.Delete(&models.Boutique{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete boutique %s: %w", id, err)
		}
		return nil
	})
}
