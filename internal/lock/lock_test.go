package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "lock:boutique:b1:orders", Key("b1", "orders"))
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	lk, err := m.Obtain(ctx, "k", time.Minute)
	require.NoError(t, err)

	_, err = m.Obtain(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotObtained)

	_, err = m.Obtain(ctx, "other", time.Minute)
	assert.NoError(t, err)

	require.NoError(t, lk.Release(ctx))
	_, err = m.Obtain(ctx, "k", time.Minute)
	assert.NoError(t, err)
}

func TestMemoryLockerExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Obtain(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = m.Obtain(ctx, "k", time.Minute)
	assert.NoError(t, err)
}

func TestNoop(t *testing.T) {
	lk, err := Noop{}.Obtain(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.NoError(t, lk.Release(context.Background()))
}
