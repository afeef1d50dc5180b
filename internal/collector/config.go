package collector

import (
	"prestaboost/internal/config"
	"prestaboost/internal/services/prestashop"
)

// OptionsFromConfig maps the environment configuration to collector options.
func OptionsFromConfig(c config.CollectorConfig) Options {
	return Options{
		BatchSize:      c.BatchSize,
		OrderFlushSize: c.OrderFlushSize,
		StockFlushSize: c.StockFlushSize,
		ChunkSize:      c.ChunkSize,
		BatchDelay:     c.BatchDelay,
	}.withDefaults()
}

// TimeoutsFromConfig fills unset timeouts with the client defaults.
func TimeoutsFromConfig(c config.CollectorConfig) prestashop.Timeouts {
	t := prestashop.DefaultTimeouts()
	if c.ListTimeout > 0 {
		t.List = c.ListTimeout
	}
	if c.DetailTimeout > 0 {
		t.Detail = c.DetailTimeout
	}
	if c.ProbeTimeout > 0 {
		t.Probe = c.ProbeTimeout
	}
	if c.SecondaryTimeout > 0 {
		t.Secondary = c.SecondaryTimeout
	}
	return t
}
