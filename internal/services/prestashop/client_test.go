package prestashop

import (
	"context"
	"net/http"
	"testing"
	"time"

	"prestaboost/internal/logger"
	"prestaboost/internal/services/prestashop/pstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *pstest.Server, timeouts Timeouts) *Client {
	return NewClient(srv.URL+"/", pstest.APIKey, logger.NewNop(), WithTimeouts(timeouts))
}

func fastTimeouts() Timeouts {
	return Timeouts{List: time.Second, Detail: time.Second, Probe: time.Second, Secondary: time.Second}
}

func TestClientSendsBasicAuthAndJSONFormat(t *testing.T) {
	srv := pstest.NewServer(t)
	srv.HandleFunc("products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "JSON", r.URL.Query().Get("output_format"))
		assert.Equal(t, "[id,reference,name,id_category_default]", r.URL.Query().Get("display"))
		_, _ = w.Write([]byte(`{"products":[{"id":1,"name":"A"},{"id":"2","name":"B"}]}`))
	})

	products, err := newTestClient(srv, fastTimeouts()).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 2, products[1].ID.Int())
}

func TestClientRejectsWrongKey(t *testing.T) {
	srv := pstest.NewServer(t)
	srv.JSON("products", `{"products":[]}`)

	c := NewClient(srv.URL, "WRONG", logger.NewNop(), WithTimeouts(fastTimeouts()))
	_, err := c.ListProducts(context.Background())

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindStatus, re.Kind)
	assert.Equal(t, http.StatusUnauthorized, re.Status)
}

func TestClientTreatsBareArrayAsEmpty(t *testing.T) {
	srv := pstest.NewServer(t)
	srv.JSON("orders", `[]`)

	ids, err := newTestClient(srv, fastTimeouts()).ListOrderIDsSince(context.Background(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClientErrors(t *testing.T) {
	srv := pstest.NewServer(t)
	srv.Respond("categories", http.StatusInternalServerError, `boom`)
	srv.JSON("stock_availables", `{"stock_availables": [`)
	srv.HandleFunc("orders/1", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"order":{"id":1}}`))
	})

	c := newTestClient(srv, Timeouts{List: time.Second, Detail: time.Second, Probe: 20 * time.Millisecond, Secondary: time.Second})

	_, err := c.ListCategories(context.Background())
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.Status)
	assert.Contains(t, err.Error(), "boom")

	_, err = c.ListStockAvailables(context.Background())
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindDecode, re.Kind)

	exists, err := c.OrderExists(context.Background(), 1)
	assert.False(t, exists)
	assert.True(t, IsTimeout(err))

	_, err = c.GetOrder(context.Background(), 2)
	assert.True(t, IsNotFound(err))
}

func TestGetWholesalePrice(t *testing.T) {
	srv := pstest.NewServer(t)
	srv.JSON("products/1", `{"product":{"wholesale_price":"4.250000"}}`)
	srv.JSON("products/2", `{"product":{"wholesale_price":"0.000000"}}`)
	srv.JSON("products/3", `{"product":{"wholesale_price":"n/a"}}`)
	c := newTestClient(srv, fastTimeouts())

	price, err := c.GetWholesalePrice(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "4.25", price.String())

	price, err = c.GetWholesalePrice(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, price)

	price, err = c.GetWholesalePrice(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, price)
}
