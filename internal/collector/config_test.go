package collector

import (
	"testing"
	"time"

	"prestaboost/internal/config"
	"prestaboost/internal/services/prestashop"

	"github.com/stretchr/testify/assert"
)

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.CollectorConfig{BatchSize: 20, ChunkSize: 1000, BatchDelay: -time.Second})

	assert.Equal(t, 20, opts.BatchSize)
	assert.Equal(t, 1000, opts.ChunkSize)
	assert.Equal(t, DefaultOptions().OrderFlushSize, opts.OrderFlushSize)
	assert.Equal(t, DefaultOptions().StockFlushSize, opts.StockFlushSize)
	assert.Zero(t, opts.BatchDelay)
}

func TestTimeoutsFromConfig(t *testing.T) {
	got := TimeoutsFromConfig(config.CollectorConfig{ProbeTimeout: 2 * time.Second})

	want := prestashop.DefaultTimeouts()
	want.Probe = 2 * time.Second
	assert.Equal(t, want, got)
}
