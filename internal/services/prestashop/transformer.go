package prestashop

import (
	"strings"
	"time"

	"prestaboost/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultOrderItemName = "Produit inconnu"
	DefaultOrderState    = "unknown"
	OrderDateLayout      = "2006-01-02 15:04:05"
)

// Transformer converts webservice payloads into our models.
type Transformer struct {
	location *time.Location
}

// NewTransformer interprets order dates in loc (the shop's timezone); nil means UTC.
func NewTransformer(loc *time.Location) *Transformer {
	if loc == nil {
		loc = time.UTC
	}
	return &Transformer{location: loc}
}

// StockSnapshots left-joins products with stock levels by product id. A
// product without a stock row gets quantity 0; when several stock rows exist
// for a product the last one wins.
func (t *Transformer) StockSnapshots(boutiqueID string, products []Product, stocks []StockAvailable, categories CategoryIndex, collectedAt time.Time) []models.StockSnapshot {
	quantities := make(map[int]int, len(stocks))
	for _, s := range stocks {
		quantities[s.ProductID.Int()] = s.Quantity.Int()
	}

	rows := make([]models.StockSnapshot, 0, len(products))
	for _, p := range products {
		id := p.ID.Int()
		rows = append(rows, models.StockSnapshot{
			BoutiqueID:      boutiqueID,
			RemoteProductID: id,
			Reference:       NormalizeReference(p.Reference),
			Name:            NormalizeLocalizedText(p.Name, DefaultProductName),
			Category:        categories.Lookup(p.DefaultCategoryID.Int()),
			Quantity:        quantities[id],
			CollectedAt:     collectedAt,
		})
	}
	return rows
}

// ApplyOrder copies the scalar order fields onto dst. Status and totals are
// always overwritten so state changes are picked up on every sync.
func (t *Transformer) ApplyOrder(dst *models.Order, src *Order, collectedAt time.Time) {
	dst.Reference = src.Reference.String()
	if paid, ok := ParseDecimal(src.TotalPaid); ok {
		dst.TotalPaid = paid
	} else {
		dst.TotalPaid = decimal.Zero
	}
	dst.CurrentState = strings.TrimSpace(src.CurrentState.String())
	if dst.CurrentState == "" {
		dst.CurrentState = DefaultOrderState
	}
	dst.PaymentMethod = src.Payment.String()
	dst.OrderDate = t.ParseOrderDate(src.DateAdd, collectedAt)
	dst.CollectedAt = collectedAt
}

// ParseOrderDate parses a webservice timestamp, falling back to fallback.
func (t *Transformer) ParseOrderDate(v FlexString, fallback time.Time) time.Time {
	parsed, ok := t.OrderDate(v)
	if !ok {
		return fallback
	}
	return parsed
}

// OrderDate parses a webservice timestamp. ok is false when v is empty or
// not in OrderDateLayout.
func (t *Transformer) OrderDate(v FlexString) (time.Time, bool) {
	parsed, err := time.ParseInLocation(OrderDateLayout, strings.TrimSpace(v.String()), t.location)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// OrderItems maps order rows to items. Wholesale prices are filled in later.
func (t *Transformer) OrderItems(src *Order) []models.OrderItem {
	rows := src.Associations.OrderRows
	items := make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.ProductName.String())
		if name == "" {
			name = DefaultOrderItemName
		}

		qty := 1
		if raw := strings.TrimSpace(row.ProductQuantity.String()); raw != "" {
			var q FlexInt
			if err := q.UnmarshalJSON([]byte(raw)); err == nil {
				qty = q.Int()
			}
		}

		unit, _ := ParseDecimal(row.ProductPrice)
		total, ok := ParseDecimal(row.TotalPriceTaxIncl)
		if !ok {
			total = unit
		}

		items = append(items, models.OrderItem{
			RemoteProductID:  row.ProductID.Int(),
			ProductName:      name,
			ProductReference: row.ProductReference.OrEmpty(),
			Quantity:         qty,
			UnitPrice:        unit,
			TotalPrice:       total,
		})
	}
	return items
}

// ApplyCustomer sets name and email. A blank name leaves the field nil.
func (t *Transformer) ApplyCustomer(dst *models.Order, c *Customer) {
	if c == nil {
		return
	}
	name := strings.TrimSpace(c.Firstname.String() + " " + c.Lastname.String())
	if name != "" {
		dst.CustomerName = &name
	}
	if email := c.Email.OrEmpty(); email != nil {
		dst.CustomerEmail = email
	}
}

func (t *Transformer) ApplyAddress(dst *models.Order, a *Address) {
	if a == nil {
		return
	}
	var lines []string
	for _, l := range []FlexString{a.Address1, a.Address2} {
		if s := strings.TrimSpace(l.String()); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) > 0 {
		joined := strings.Join(lines, ", ")
		dst.DeliveryAddress = &joined
	}
	if v := a.Postcode.OrEmpty(); v != nil {
		dst.DeliveryPostcode = v
	}
	if v := a.City.OrEmpty(); v != nil {
		dst.DeliveryCity = v
	}
	if v := a.Country.OrEmpty(); v != nil {
		dst.DeliveryCountry = v
	}
	phone := a.Phone.OrEmpty()
	if phone == nil {
		phone = a.PhoneMobile.OrEmpty()
	}
	if phone != nil {
		dst.CustomerPhone = phone
	}
}

// ParseDecimal parses a money field. ok is false for blank or non-numeric input.
func ParseDecimal(v FlexString) (decimal.Decimal, bool) {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
