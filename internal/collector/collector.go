// Package collector pulls stock and order data from boutiques' PrestaShop
// webservices and persists it. Collection methods never return errors: a
// failed run is reported in its result so callers can record it.
package collector

import (
	"context"
	"time"

	"prestaboost/internal/clock"
	"prestaboost/internal/logger"
	"prestaboost/internal/metrics"
	"prestaboost/internal/models"
	"prestaboost/internal/services/prestashop"

	"github.com/shopspring/decimal"
)

// RemoteAPI is the part of the PrestaShop client used by the collector.
type RemoteAPI interface {
	OrderProber

	ListProducts(ctx context.Context) ([]prestashop.Product, error)
	ListStockAvailables(ctx context.Context) ([]prestashop.StockAvailable, error)
	ListCategories(ctx context.Context) ([]prestashop.Category, error)
	ListOrderIDsSince(ctx context.Context, since time.Time) ([]int, error)
	GetOrder(ctx context.Context, id int) (*prestashop.Order, error)
	GetCustomer(ctx context.Context, id int) (*prestashop.Customer, error)
	GetAddress(ctx context.Context, id int) (*prestashop.Address, error)
	GetWholesalePrice(ctx context.Context, productID int) (*decimal.Decimal, error)
	ListShops(ctx context.Context) ([]prestashop.Shop, error)
}

// ClientFactory builds the webservice client for one boutique.
type ClientFactory func(b *models.Boutique) RemoteAPI

// NewClientFactory returns a factory producing real clients with the given timeouts.
func NewClientFactory(log *logger.Logger, timeouts prestashop.Timeouts) ClientFactory {
	return func(b *models.Boutique) RemoteAPI {
		return prestashop.NewClient(b.BaseURL(), b.APIKey, log.With(boutiqueField(b)), prestashop.WithTimeouts(timeouts))
	}
}

type StockStore interface {
	InsertSnapshot(ctx context.Context, rows []models.StockSnapshot, flushSize int) (int, error)
}

type OrderStore interface {
	FindByRemoteID(ctx context.Context, boutiqueID string, remoteID int) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
}

type BoutiqueStore interface {
	Update(ctx context.Context, b *models.Boutique) error
}

// Options bound how much work is in flight and how fast shops are hit.
type Options struct {
	// BatchSize is the number of order ids fetched concurrently.
	BatchSize      int
	OrderFlushSize int
	StockFlushSize int
	// ChunkSize is the id span of one backfill task.
	ChunkSize  int
	BatchDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		BatchSize:      50,
		OrderFlushSize: 50,
		StockFlushSize: 100,
		ChunkSize:      5000,
		BatchDelay:     100 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.OrderFlushSize <= 0 {
		o.OrderFlushSize = d.OrderFlushSize
	}
	if o.StockFlushSize <= 0 {
		o.StockFlushSize = d.StockFlushSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	return o
}

type Collector struct {
	clients     ClientFactory
	stocks      StockStore
	orders      OrderStore
	boutiques   BoutiqueStore
	transformer *prestashop.Transformer
	metrics     *metrics.Metrics
	clock       clock.Clock
	logger      *logger.Logger
	opts        Options
}

type Option func(*Collector)

func WithOptions(o Options) Option {
	return func(c *Collector) { c.opts = o.withDefaults() }
}

func WithClock(cl clock.Clock) Option {
	return func(c *Collector) { c.clock = cl }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithLocation sets the timezone order dates are reported in by the shops.
func WithLocation(loc *time.Location) Option {
	return func(c *Collector) { c.transformer = prestashop.NewTransformer(loc) }
}

func New(clients ClientFactory, stocks StockStore, orders OrderStore, boutiques BoutiqueStore, log *logger.Logger, opts ...Option) *Collector {
	c := &Collector{
		clients:     clients,
		stocks:      stocks,
		orders:      orders,
		boutiques:   boutiques,
		transformer: prestashop.NewTransformer(nil),
		clock:       clock.System,
		logger:      log.Named("collector"),
		opts:        DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) Options() Options {
	return c.opts
}

// ProgressFunc receives the number of processed units and the expected total.
type ProgressFunc func(processed, total int)

type RunOption func(*runConfig)

type runConfig struct {
	progress ProgressFunc
}

func WithProgress(fn ProgressFunc) RunOption {
	return func(rc *runConfig) { rc.progress = fn }
}

func newRunConfig(opts []RunOption) runConfig {
	rc := runConfig{progress: func(int, int) {}}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

// now is truncated to microseconds so timestamps round-trip through Postgres.
func (c *Collector) now() time.Time {
	return c.clock.Now().UTC().Truncate(time.Microsecond)
}

// pause sleeps between batches, returning early if ctx is done.
func (c *Collector) pause(ctx context.Context) {
	if c.opts.BatchDelay <= 0 {
		return
	}
	t := time.NewTimer(c.opts.BatchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *Collector) observe(kind string, success bool, started time.Time, records int) {
	c.metrics.ObserveCollection(kind, success, time.Since(started))
	if success {
		c.metrics.AddRecords(kind, records)
	}
}
