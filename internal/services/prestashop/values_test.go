package prestashop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexInt(t *testing.T) {
	var v struct {
		A FlexInt `json:"a"`
		B FlexInt `json:"b"`
		C FlexInt `json:"c"`
		D FlexInt `json:"d"`
		E FlexInt `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"34","c":null,"d":"x","e":"7.0"}`), &v))
	assert.Equal(t, 12, v.A.Int())
	assert.Equal(t, 34, v.B.Int())
	assert.Equal(t, 0, v.C.Int())
	assert.Equal(t, 0, v.D.Int())
	assert.Equal(t, 7, v.E.Int())
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.50","b":12.5,"c":null,"d":{"x":1}}`), &v))
	assert.Equal(t, "12.50", v.A.String())
	assert.Equal(t, "12.5", v.B.String())
	assert.Equal(t, "", v.C.String())
	assert.Equal(t, "", v.D.String())
	assert.Nil(t, v.C.OrEmpty())
}

func TestOneOrManyAcceptsSingleObject(t *testing.T) {
	var order Order
	raw := `{"id":"9","associations":{"order_rows":{"id":"1","product_id":"3","product_name":"Mug"}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &order))

	require.Len(t, order.Associations.OrderRows, 1)
	assert.Equal(t, 3, order.Associations.OrderRows[0].ProductID.Int())

	raw = `{"id":"9","associations":{"order_rows":[{"id":"1"},{"id":"2"}]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &order))
	assert.Len(t, order.Associations.OrderRows, 2)

	var bare Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":"9"}`), &bare))
	assert.Empty(t, bare.Associations.OrderRows)
}

func TestTextValuePreservesOrder(t *testing.T) {
	var v TextValue
	require.NoError(t, json.Unmarshal([]byte(`{"b":"2","a":"1","c":{"value":"3"}}`), &v))

	require.True(t, v.IsLocalized())
	entries := v.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Key)
	assert.Equal(t, "a", entries[1].Key)
	inner, ok := entries[2].Value.Get("value")
	require.True(t, ok)
	assert.True(t, inner.IsScalar())
}
