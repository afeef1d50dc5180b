package collector

import (
	"context"
	"errors"
	"time"

	"prestaboost/internal/models"
	"prestaboost/internal/services/prestashop"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderRun carries the state of one order collection: the client, a
// wholesale price cache and the running saved count.
type orderRun struct {
	c         *Collector
	boutique  *models.Boutique
	api       RemoteAPI
	progress  ProgressFunc
	wholesale map[int]*decimal.Decimal
	saved     int
}

func (c *Collector) newOrderRun(b *models.Boutique, api RemoteAPI, rc runConfig) *orderRun {
	return &orderRun{
		c:         c,
		boutique:  b,
		api:       api,
		progress:  rc.progress,
		wholesale: make(map[int]*decimal.Decimal),
	}
}

// save upserts each order. A failing order is logged and skipped. Orders
// that were already complete are refreshed but not counted as saved.
func (r *orderRun) save(ctx context.Context, orders []*prestashop.Order) {
	if len(orders) == 0 {
		return
	}
	collectedAt := r.c.now()
	for _, o := range orders {
		enriched, err := r.upsert(ctx, o, collectedAt)
		if err != nil {
			r.c.logger.Warn("failed to save order",
				boutiqueField(r.boutique),
				zap.Int("order_id", o.ID.Int()),
				zap.Error(err),
			)
			continue
		}
		if enriched {
			r.saved++
		}
	}
}

// upsert finds the order by (boutique, remote id) or creates it, refreshes
// its scalar fields, and enriches it unless it already has items and a
// customer name. enriched is false for an existing complete order.
func (r *orderRun) upsert(ctx context.Context, src *prestashop.Order, collectedAt time.Time) (enriched bool, err error) {
	remoteID := src.ID.Int()
	if remoteID <= 0 {
		return false, errors.New("order payload without id")
	}

	order, err := r.c.orders.FindByRemoteID(ctx, r.boutique.ID, remoteID)
	if err != nil {
		return false, err
	}
	isNew := order == nil
	if isNew {
		order = &models.Order{BoutiqueID: r.boutique.ID, RemoteOrderID: remoteID}
	}

	r.c.transformer.ApplyOrder(order, src, collectedAt)

	enriched = true
	switch {
	case !isNew && order.IsComplete():
		enriched = false
	case isNew || !order.HasItems():
		r.enrichDetails(ctx, order)
	default:
		r.enrichCustomer(ctx, order)
	}

	if err := r.c.orders.Save(ctx, order); err != nil {
		return false, err
	}
	return enriched, nil
}

// enrichDetails fetches the order detail for its rows, then customer and address.
func (r *orderRun) enrichDetails(ctx context.Context, order *models.Order) {
	detail, ok := r.fetchDetail(ctx, order.RemoteOrderID)
	if !ok {
		return
	}

	items := r.c.transformer.OrderItems(detail)
	for i := range items {
		items[i].WholesalePrice = r.wholesalePrice(ctx, items[i].RemoteProductID)
	}
	order.Items = append(order.Items, items...)

	r.applyCustomer(ctx, order, detail)
	r.applyAddress(ctx, order, detail)
}

// enrichCustomer retries customer and address for an order that already has items.
func (r *orderRun) enrichCustomer(ctx context.Context, order *models.Order) {
	detail, ok := r.fetchDetail(ctx, order.RemoteOrderID)
	if !ok {
		return
	}
	r.applyCustomer(ctx, order, detail)
	r.applyAddress(ctx, order, detail)
}

func (r *orderRun) fetchDetail(ctx context.Context, remoteID int) (*prestashop.Order, bool) {
	detail, err := r.api.GetOrder(ctx, remoteID)
	if err != nil || detail == nil {
		r.c.logger.Warn("failed to fetch order details",
			boutiqueField(r.boutique),
			zap.Int("order_id", remoteID),
			zap.Error(err),
		)
		return nil, false
	}
	return detail, true
}

func (r *orderRun) applyCustomer(ctx context.Context, order *models.Order, detail *prestashop.Order) {
	id := detail.CustomerID.Int()
	if id <= 0 {
		return
	}
	customer, err := r.api.GetCustomer(ctx, id)
	if err != nil {
		r.c.logger.Debug("customer lookup failed", boutiqueField(r.boutique), zap.Int("customer_id", id), zap.Error(err))
		return
	}
	r.c.transformer.ApplyCustomer(order, customer)
}

func (r *orderRun) applyAddress(ctx context.Context, order *models.Order, detail *prestashop.Order) {
	id := detail.AddressDeliveryID.Int()
	if id <= 0 {
		return
	}
	address, err := r.api.GetAddress(ctx, id)
	if err != nil {
		r.c.logger.Debug("address lookup failed", boutiqueField(r.boutique), zap.Int("address_id", id), zap.Error(err))
		return
	}
	r.c.transformer.ApplyAddress(order, address)
}

// wholesalePrice is cached per product for the run; failures cache as nil.
func (r *orderRun) wholesalePrice(ctx context.Context, productID int) *decimal.Decimal {
	if productID <= 0 {
		return nil
	}
	if price, ok := r.wholesale[productID]; ok {
		return price
	}
	price, err := r.api.GetWholesalePrice(ctx, productID)
	if err != nil {
		r.c.logger.Debug("wholesale price lookup failed", boutiqueField(r.boutique), zap.Int("product_id", productID), zap.Error(err))
		price = nil
	}
	r.wholesale[productID] = price
	return price
}
