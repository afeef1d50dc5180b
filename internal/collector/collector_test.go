package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"prestaboost/internal/clock"
	"prestaboost/internal/database/dbtest"
	"prestaboost/internal/logger"
	"prestaboost/internal/models"
	"prestaboost/internal/repository"
	"prestaboost/internal/services/prestashop"
	"prestaboost/internal/services/prestashop/pstest"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	srv       *pstest.Server
	db        *gorm.DB
	clock     *clock.FakeClock
	boutique  *models.Boutique
	boutiques *repository.BoutiqueRepository
	stocks    *repository.StockRepository
	orders    *repository.OrderRepository
	collector *Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		srv:   pstest.NewServer(t),
		db:    dbtest.New(t),
		clock: clock.NewFakeClock(testNow),
	}
	f.boutiques = repository.NewBoutiqueRepository(f.db)
	f.stocks = repository.NewStockRepository(f.db)
	f.orders = repository.NewOrderRepository(f.db)

	f.boutique = &models.Boutique{Name: "Test shop", Domain: f.srv.URL + "/", APIKey: pstest.APIKey}
	require.NoError(t, f.boutiques.Create(context.Background(), f.boutique))

	timeouts := prestashop.Timeouts{List: time.Second, Detail: time.Second, Probe: time.Second, Secondary: time.Second}
	f.collector = New(
		NewClientFactory(logger.NewNop(), timeouts),
		f.stocks, f.orders, f.boutiques,
		logger.NewNop(),
		WithClock(f.clock),
		WithOptions(Options{BatchSize: 5, OrderFlushSize: 3, StockFlushSize: 2, ChunkSize: 10}),
	)
	return f
}

// order registers GET orders/{id} with one row and a customer and address.
func (f *fixture) order(id int, date string) {
	f.srv.JSON(fmt.Sprintf("orders/%d", id), fmt.Sprintf(`{"order":{
		"id":%d,"reference":"REF%d","total_paid":"59.90","current_state":"2","payment":"Card",
		"date_add":%q,"id_customer":"7","id_address_delivery":"9",
		"associations":{"order_rows":[{"id":"1","product_id":"3","product_name":"Shirt",
			"product_reference":"SH-1","product_quantity":"2","product_price":"24.95","total_price_tax_incl":"49.90"}]}}}`,
		id, id, date))
}

func (f *fixture) customerAndAddress() {
	f.srv.JSON("customers/7", `{"customer":{"id":7,"firstname":"Jane","lastname":"Doe","email":"jane@example.com"}}`)
	f.srv.JSON("addresses/9", `{"address":{"id":9,"address1":"1 Main St","address2":"","postcode":"75001","city":"Paris","country":"France","phone":"","phone_mobile":"0600"}}`)
	f.srv.JSON("products/3", `{"product":{"wholesale_price":"10.000000"}}`)
}
