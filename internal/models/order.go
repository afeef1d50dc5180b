package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Order is the local copy of a remote order. (BoutiqueID, RemoteOrderID) is unique.
type Order struct {
	ID               string          `json:"id" gorm:"type:uuid;primaryKey"`
	BoutiqueID       string          `json:"boutique_id" gorm:"type:uuid;not null;uniqueIndex:idx_orders_boutique_remote,priority:1;index:idx_orders_boutique_date,priority:1"`
	RemoteOrderID    int             `json:"order_id" gorm:"not null;uniqueIndex:idx_orders_boutique_remote,priority:2"`
	Reference        string          `json:"reference"`
	TotalPaid        decimal.Decimal `json:"total_paid" gorm:"type:decimal(12,2);not null"`
	CurrentState     string          `json:"current_state"`
	PaymentMethod    string          `json:"payment_method"`
	OrderDate        time.Time       `json:"order_date" gorm:"not null;index:idx_orders_boutique_date,priority:2"`
	CollectedAt      time.Time       `json:"collected_at" gorm:"not null"`
	CustomerName     *string         `json:"customer_name"`
	CustomerEmail    *string         `json:"customer_email"`
	CustomerPhone    *string         `json:"customer_phone"`
	DeliveryAddress  *string         `json:"delivery_address"`
	DeliveryPostcode *string         `json:"delivery_postcode"`
	DeliveryCity     *string         `json:"delivery_city"`
	DeliveryCountry  *string         `json:"delivery_country"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is one line of an order. WholesalePrice is nil when the cost
// price could not be fetched.
type OrderItem struct {
	ID               string           `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID          string           `json:"order_id" gorm:"type:uuid;not null;index"`
	RemoteProductID  int              `json:"product_id"`
	ProductName      string           `json:"product_name" gorm:"not null"`
	ProductReference *string          `json:"product_reference"`
	Quantity         int              `json:"quantity" gorm:"not null"`
	UnitPrice        decimal.Decimal  `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	TotalPrice       decimal.Decimal  `json:"total_price" gorm:"type:decimal(12,2);not null"`
	WholesalePrice   *decimal.Decimal `json:"wholesale_price" gorm:"type:decimal(12,2)"`
}

func (o *Order) HasItems() bool {
	return len(o.Items) > 0
}

func (o *Order) HasCustomerName() bool {
	return o.CustomerName != nil && strings.TrimSpace(*o.CustomerName) != ""
}

// IsComplete reports whether a rescan can skip the detail fetch.
func (o *Order) IsComplete() bool {
	return o.HasItems() && o.HasCustomerName()
}

// HasMarginData is true when every item carries a wholesale price.
func (o *Order) HasMarginData() bool {
	if len(o.Items) == 0 {
		return false
	}
	for i := range o.Items {
		if o.Items[i].WholesalePrice == nil {
			return false
		}
	}
	return true
}

// TotalCost sums wholesale price * quantity, or nil if any item lacks a cost.
func (o *Order) TotalCost() *decimal.Decimal {
	if !o.HasMarginData() {
		return nil
	}
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].WholesalePrice.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity))))
	}
	total = total.Round(2)
	return &total
}

func (o *Order) Profit() *decimal.Decimal {
	cost := o.TotalCost()
	if cost == nil {
		return nil
	}
	p := o.TotalPaid.Sub(*cost).Round(2)
	return &p
}

// MarginPercent is (paid - cost) / paid * 100, rounded to one decimal.
func (o *Order) MarginPercent() *decimal.Decimal {
	if !o.TotalPaid.IsPositive() {
		return nil
	}
	cost := o.TotalCost()
	if cost == nil {
		return nil
	}
	m := o.TotalPaid.Sub(*cost).Div(o.TotalPaid).Mul(hundred).Round(1)
	return &m
}

func (i *OrderItem) ProfitPerUnit() *decimal.Decimal {
	if i.WholesalePrice == nil || i.WholesalePrice.IsZero() || i.UnitPrice.IsZero() {
		return nil
	}
	p := i.UnitPrice.Sub(*i.WholesalePrice).Round(2)
	return &p
}

func (i *OrderItem) TotalProfit() *decimal.Decimal {
	p := i.ProfitPerUnit()
	if p == nil {
		return nil
	}
	t := p.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
	return &t
}

func (i *OrderItem) MarginPercent() *decimal.Decimal {
	if i.WholesalePrice == nil || i.WholesalePrice.IsZero() || !i.UnitPrice.IsPositive() {
		return nil
	}
	m := i.UnitPrice.Sub(*i.WholesalePrice).Div(i.UnitPrice).Mul(hundred).Round(1)
	return &m
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
