// Package scheduler dispatches the periodic sync tasks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"prestaboost/internal/clock"
	"prestaboost/internal/config"
	"prestaboost/internal/logger"
	"prestaboost/internal/queue"

	"go.uber.org/zap"
)

// Scheduler publishes SyncOrders{days: 1} and SyncStocks{} on their
// intervals, plus a daily SyncOrders over a longer window.
type Scheduler struct {
	cfg       config.SchedulerConfig
	publisher queue.Publisher
	clock     clock.Clock
	location  *time.Location
	tick      time.Duration
	logger    *logger.Logger

	mu         sync.Mutex
	lastOrders time.Time
	lastStocks time.Time
	lastDaily  string
}

type Option func(*Scheduler)

func WithClock(cl clock.Clock) Option {
	return func(s *Scheduler) { s.clock = cl }
}

// WithLocation sets the timezone of the daily run hour.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

func WithTick(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

func New(cfg config.SchedulerConfig, publisher queue.Publisher, log *logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:       cfg,
		publisher: publisher,
		clock:     clock.System,
		location:  time.UTC,
		tick:      30 * time.Second,
		logger:    log.Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type taskKind int

const (
	taskOrders taskKind = iota
	taskStocks
	taskDaily
)

type task struct {
	kind taskKind
	msg  queue.Message
}

// Due returns the tasks to dispatch at now. Nothing is marked: a task stays
// due until a publish of it succeeds.
func (s *Scheduler) Due(now time.Time) []queue.Message {
	tasks := s.due(now)
	msgs := make([]queue.Message, 0, len(tasks))
	for _, t := range tasks {
		msgs = append(msgs, t.msg)
	}
	return msgs
}

func (s *Scheduler) due(now time.Time) []task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []task
	if s.cfg.OrdersInterval > 0 && (s.lastOrders.IsZero() || now.Sub(s.lastOrders) >= s.cfg.OrdersInterval) {
		due = append(due, task{taskOrders, queue.SyncOrdersMessage{Days: 1}})
	}
	if s.cfg.StocksInterval > 0 && (s.lastStocks.IsZero() || now.Sub(s.lastStocks) >= s.cfg.StocksInterval) {
		due = append(due, task{taskStocks, queue.SyncStocksMessage{}})
	}

	local := now.In(s.location)
	if local.Hour() == s.cfg.DailyHour && s.lastDaily != local.Format("2006-01-02") {
		due = append(due, task{taskDaily, queue.SyncOrdersMessage{Days: s.cfg.DailyDays}})
	}
	return due
}

func (s *Scheduler) markDispatched(now time.Time, tasks []task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tasks {
		switch t.kind {
		case taskOrders:
			s.lastOrders = now
		case taskStocks:
			s.lastStocks = now
		case taskDaily:
			s.lastDaily = now.In(s.location).Format("2006-01-02")
		}
	}
}

// Run dispatches due tasks on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		zap.Duration("orders_interval", s.cfg.OrdersInterval),
		zap.Duration("stocks_interval", s.cfg.StocksInterval),
		zap.Int("daily_hour", s.cfg.DailyHour),
	)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.dispatch(ctx)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	_ = s.dispatchAt(ctx, s.clock.Now())
}

// dispatchAt publishes the tasks due at now. On failure they stay due and
// the next tick tries again.
func (s *Scheduler) dispatchAt(ctx context.Context, now time.Time) error {
	tasks := s.due(now)
	if len(tasks) == 0 {
		return nil
	}
	msgs := make([]queue.Message, 0, len(tasks))
	for _, t := range tasks {
		msgs = append(msgs, t.msg)
	}
	if err := s.publisher.Publish(ctx, msgs...); err != nil {
		s.logger.Error("failed to dispatch scheduled tasks", zap.Int("count", len(msgs)), zap.Error(err))
		return err
	}
	s.markDispatched(now, tasks)
	for _, m := range msgs {
		s.logger.Info("scheduled task dispatched", zap.String("type", m.Type()))
	}
	return nil
}
