package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockSnapshot is one product's stock level as seen by one collection run.
// Rows are written once and never updated; all rows of a run share CollectedAt.
type StockSnapshot struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	BoutiqueID      string    `json:"boutique_id" gorm:"type:uuid;not null;index:idx_stock_boutique_product,priority:1;index:idx_stock_boutique_collected,priority:1"`
	RemoteProductID int       `json:"product_id" gorm:"not null;index:idx_stock_boutique_product,priority:2"`
	Reference       *string   `json:"reference"`
	Name            string    `json:"name" gorm:"not null"`
	Category        *string   `json:"category"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	CollectedAt     time.Time `json:"collected_at" gorm:"not null;index:idx_stock_boutique_collected,priority:2"`
}

func (s *StockSnapshot) IsOutOfStock() bool {
	return s.Quantity <= 0
}

// IsLowStock reports 0 < quantity < threshold.
func (s *StockSnapshot) IsLowStock(threshold int) bool {
	return s.Quantity > 0 && s.Quantity < threshold
}

func (s *StockSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
