package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecode(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	msg := CollectOrdersChunkMessage{BoutiqueID: "b1", StartID: 1, EndID: 5000, SyncJobID: "j1"}

	env, err := NewEnvelope(msg, now)
	require.NoError(t, err)
	assert.Equal(t, TypeCollectOrdersChunk, env.Type)
	assert.Equal(t, "b1", env.Key)
	assert.Equal(t, 1, env.Attempt)
	assert.NotEmpty(t, env.ID)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	parsed, err := ParseEnvelope(raw)
	require.NoError(t, err)

	decoded, err := parsed.Decode()
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestEnvelopeDecodeErrors(t *testing.T) {
	_, err := Envelope{Type: "reindex", Payload: []byte(`{}`)}.Decode()
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = Envelope{Type: TypeCollectOrdersChunk, Payload: []byte(`{"boutique_id":"b1","start_id":10,"end_id":5}`)}.Decode()
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = Envelope{Type: TypeCollectBoutiqueData, Payload: []byte(`{"boutique_id":"b1","orders_days":"x"}`)}.Decode()
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = Envelope{Type: TypeCollectBoutiqueData, Payload: []byte(`{"boutique_id":"b1"}`)}.Decode()
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = ParseEnvelope([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestSyncMessagesKeyAllWithoutBoutique(t *testing.T) {
	assert.Equal(t, "all", SyncStocksMessage{}.Key())
	assert.Equal(t, "b1", SyncOrdersMessage{BoutiqueID: "b1", Days: 1}.Key())
	assert.Error(t, SyncOrdersMessage{Days: -1}.Validate())
}

func TestDelivery(t *testing.T) {
	env := Envelope{Attempt: 1}
	env = env.Retry().Retry()
	assert.Equal(t, 3, env.Attempt)

	ctx := WithDelivery(context.Background(), Delivery{Attempt: 2, MaxAttempts: 3})
	assert.False(t, DeliveryFrom(ctx).Final())
	assert.True(t, DeliveryFrom(context.Background()).Final())
	assert.True(t, Delivery{Attempt: 3, MaxAttempts: 3}.Final())
}
