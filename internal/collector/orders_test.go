package collector

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"prestaboost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectOrdersDataIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.HandleFunc("orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "[2024-05-16,]", r.URL.Query().Get("filter[date_add]"))
		_, _ = w.Write([]byte(`{"orders":[{"id":42}]}`))
	})
	f.order(42, "2024-06-10 10:00:00")
	f.customerAndAddress()

	res := f.collector.CollectOrdersData(ctx, f.boutique, 30)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, StrategyDateFilter, res.Strategy)
	assert.Equal(t, 1, res.OrdersCount)
	assert.Equal(t, 1, res.SavedCount)
	assert.Equal(t, 2, f.srv.Hits("orders/42"))

	order, err := f.orders.FindByRemoteID(ctx, f.boutique.ID, 42)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "REF42", order.Reference)
	assert.Equal(t, "59.9", order.TotalPaid.String())
	assert.Equal(t, "2", order.CurrentState)
	require.NotNil(t, order.CustomerName)
	assert.Equal(t, "Jane Doe", *order.CustomerName)
	require.NotNil(t, order.CustomerPhone)
	assert.Equal(t, "0600", *order.CustomerPhone)
	require.NotNil(t, order.DeliveryAddress)
	assert.Equal(t, "1 Main St", *order.DeliveryAddress)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Shirt", item.ProductName)
	assert.Equal(t, 2, item.Quantity)
	require.NotNil(t, item.WholesalePrice)
	assert.Equal(t, "10", item.WholesalePrice.String())

	// A complete order is not fetched again for details nor counted as saved.
	f.srv.ResetHits()
	res = f.collector.CollectOrdersData(ctx, f.boutique, 30)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, f.srv.Hits("orders/42"))
	assert.Equal(t, 1, res.OrdersCount)
	assert.Zero(t, res.SavedCount)

	n, err := f.orders.CountItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCollectOrdersDataRetriesMissingCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.JSON("orders", `{"orders":[{"id":"42"}]}`)
	f.order(42, "2024-06-10 10:00:00")
	f.customerAndAddress()
	f.srv.Remove("customers/7")

	require.True(t, f.collector.CollectOrdersData(ctx, f.boutique, 7).Success)
	order, err := f.orders.FindByRemoteID(ctx, f.boutique.ID, 42)
	require.NoError(t, err)
	assert.Nil(t, order.CustomerName)
	require.Len(t, order.Items, 1)

	f.customerAndAddress()
	f.srv.ResetHits()
	require.True(t, f.collector.CollectOrdersData(ctx, f.boutique, 7).Success)
	assert.Equal(t, 2, f.srv.Hits("orders/42"))

	order, err = f.orders.FindByRemoteID(ctx, f.boutique.ID, 42)
	require.NoError(t, err)
	require.NotNil(t, order.CustomerName)
	assert.Equal(t, "Jane Doe", *order.CustomerName)
	assert.Len(t, order.Items, 1)
}

func TestCollectOrdersDataFallsBackToIDScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.HandleFunc("orders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter[date_add]") != "" {
			http.Error(w, "filter not allowed", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"orders":[{"id":25}]}`))
	})
	f.order(25, "2024-06-14 09:00:00")
	f.order(20, "2020-01-01 09:00:00")
	f.order(3, "2024-06-01 09:00:00")
	f.customerAndAddress()

	res := f.collector.CollectOrdersData(ctx, f.boutique, 30)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, StrategyIDScan, res.Strategy)
	assert.Equal(t, 2, res.OrdersCount)
	assert.Equal(t, 2, res.SavedCount)

	old, err := f.orders.FindByRemoteID(ctx, f.boutique.ID, 20)
	require.NoError(t, err)
	assert.Nil(t, old)

	n, err := f.orders.CountAll(ctx, f.boutique.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestIDScanSkipsOrdersWithUnreadableDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.HandleFunc("orders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter[date_add]") != "" {
			http.Error(w, "filter not allowed", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"orders":[{"id":12}]}`))
	})
	f.order(12, "2024-06-14 09:00:00")
	f.order(11, "0000-00-00 00:00:00")
	f.order(10, "")
	f.customerAndAddress()

	res := f.collector.CollectOrdersData(ctx, f.boutique, 30)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, StrategyIDScan, res.Strategy)
	assert.Equal(t, 1, res.OrdersCount)
	assert.Equal(t, 1, res.SavedCount)

	for _, id := range []int{10, 11} {
		order, err := f.orders.FindByRemoteID(ctx, f.boutique.ID, id)
		require.NoError(t, err)
		assert.Nil(t, order, "order %d", id)
	}
}

func TestCollectOrdersDataWithNoOrders(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON("orders", `[]`)

	res := f.collector.CollectOrdersData(context.Background(), f.boutique, 1)
	require.True(t, res.Success, res.Error)
	assert.Zero(t, res.OrdersCount)
	assert.Zero(t, f.srv.Hits("customers/7"))
}

func TestCollectOrdersDataReportsProgress(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON("orders", `{"orders":[{"id":7},{"id":6},{"id":5},{"id":4},{"id":3},{"id":2},{"id":1}]}`)
	for id := 1; id <= 7; id++ {
		f.order(id, "2024-06-14 09:00:00")
	}
	f.customerAndAddress()

	var mu sync.Mutex
	var calls [][2]int
	res := f.collector.CollectOrdersData(context.Background(), f.boutique, 1, WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 7, res.SavedCount)
	assert.Equal(t, [][2]int{{5, 7}, {7, 7}}, calls)
}

func TestCollectOrdersDataCancelled(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON("orders", `{"orders":[{"id":1}]}`)
	f.order(1, "2024-06-14 09:00:00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.collector.CollectOrdersData(ctx, f.boutique, 1)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestCollectOrdersDataAttachesItemsToExistingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := &models.Order{
		BoutiqueID:    f.boutique.ID,
		RemoteOrderID: 42,
		Reference:     "OLD",
		CurrentState:  "1",
		OrderDate:     testNow.AddDate(0, 0, -2),
		CollectedAt:   testNow.AddDate(0, 0, -2),
	}
	require.NoError(t, f.orders.Save(ctx, existing))

	f.srv.JSON("orders", `{"orders":[{"id":42}]}`)
	f.srv.JSON("orders/42", `{"order":{"id":"42","reference":"REF42","total_paid":"80.00","current_state":"5",
		"payment":"PayPal","date_add":"2024-06-13 08:00:00","id_customer":"7","id_address_delivery":"0",
		"associations":{"order_rows":[
			{"product_id":"1","product_name":"Mug","product_quantity":"1","product_price":"30.00","total_price_tax_incl":"30.00"},
			{"product_id":"2","product_name":"","product_quantity":"2","product_price":"25.00","total_price_tax_incl":""}]}}}`)
	f.srv.JSON("customers/7", `{"customer":{"firstname":"Jean","lastname":"Dupont","email":""}}`)

	require.True(t, f.collector.CollectOrdersData(ctx, f.boutique, 7).Success)

	order, err := f.orders.FindByRemoteID(ctx, f.boutique.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, order.ID)
	assert.Equal(t, "5", order.CurrentState)
	require.NotNil(t, order.CustomerName)
	assert.Equal(t, "Jean Dupont", *order.CustomerName)
	assert.Nil(t, order.CustomerEmail)
	require.Len(t, order.Items, 2)
	assert.False(t, order.HasMarginData())

	f.srv.ResetHits()
	res := f.collector.CollectOrdersData(ctx, f.boutique, 7)
	require.True(t, res.Success, res.Error)
	assert.Zero(t, res.SavedCount)
	assert.Equal(t, 1, f.srv.Hits("orders/42"))
	assert.Zero(t, f.srv.Hits("customers/7"))

	order, err = f.orders.FindByRemoteID(ctx, f.boutique.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, "5", order.CurrentState)

	n, err := f.orders.CountItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	total, err := f.orders.CountAll(ctx, f.boutique.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
