package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLowStockThreshold = 10
	MinLowStockThreshold     = 1
	MaxLowStockThreshold     = 100
)

// Boutique is one tenant: a connected PrestaShop shop.
type Boutique struct {
	ID                string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string    `json:"name" gorm:"not null"`
	Domain            string    `json:"domain" gorm:"not null"`
	APIKey            string    `json:"-" gorm:"column:api_key;not null"`
	Logo              *string   `json:"logo"`
	Favicon           *string   `json:"favicon"`
	ThemeColor        *string   `json:"theme_color"`
	PrimaryColor      *string   `json:"primary_color"`
	FontFamily        *string   `json:"font_family"`
	CustomCSS         *string   `json:"custom_css" gorm:"column:custom_css"`
	LowStockThreshold int       `json:"low_stock_threshold" gorm:"not null;default:10"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BaseURL is the shop root without a trailing slash.
func (b *Boutique) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(b.Domain), "/")
}

// SetLowStockThreshold stores the threshold clamped to the accepted range.
func (b *Boutique) SetLowStockThreshold(v int) {
	b.LowStockThreshold = ClampThreshold(v)
}

func ClampThreshold(v int) int {
	if v < MinLowStockThreshold {
		return MinLowStockThreshold
	}
	if v > MaxLowStockThreshold {
		return MaxLowStockThreshold
	}
	return v
}

func (b *Boutique) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave applies the default threshold and clamps it to 1..100.
func (b *Boutique) BeforeSave(tx *gorm.DB) error {
	if b.LowStockThreshold == 0 {
		b.LowStockThreshold = DefaultLowStockThreshold
	}
	b.LowStockThreshold = ClampThreshold(b.LowStockThreshold)
	return nil
}
