package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"prestaboost/internal/config"
	"prestaboost/internal/logger"
	"prestaboost/internal/metrics"
	"prestaboost/internal/queue"
	"prestaboost/internal/worker/processors"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the consumer side of kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EnvelopePublisher writes envelopes as they are, used for retries and the DLQ.
type EnvelopePublisher interface {
	PublishEnvelopes(ctx context.Context, envs ...queue.Envelope) error
}

type Worker struct {
	logger      *logger.Logger
	reader      MessageReader
	processor   *processors.EventProcessor
	retries     EnvelopePublisher
	deadLetters EnvelopePublisher
	metrics     *metrics.Metrics
	maxAttempts int
	backoff     time.Duration
}

// NewKafkaReader is the group reader for the task topic.
func NewKafkaReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
}

func New(cfg *config.Config, logger *logger.Logger, reader MessageReader, processor *processors.EventProcessor, retries, deadLetters EnvelopePublisher, m *metrics.Metrics) *Worker {
	maxAttempts := cfg.Worker.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Worker{
		logger:      logger.Named("worker"),
		reader:      reader,
		processor:   processor,
		retries:     retries,
		deadLetters: deadLetters,
		metrics:     m,
		maxAttempts: maxAttempts,
		backoff:     time.Second,
	}
}

// Start consumes until ctx is cancelled. Each message is committed only
// after it was handled, requeued or dead-lettered.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("worker started, listening for tasks", zap.Int("max_attempts", w.maxAttempts))

	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopping")
				return
			}
			w.logger.Error("failed to read message", zap.Error(err))
			w.sleep(ctx)
			continue
		}

		w.handle(ctx, msg)
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) Stop() error {
	w.logger.Info("closing task reader")
	return w.reader.Close()
}

// handle runs one message and settles it. Settling is retried until it
// succeeds so no message is committed without a successor.
func (w *Worker) handle(ctx context.Context, msg kafka.Message) {
	env, err := queue.ParseEnvelope(msg.Value)
	if err != nil {
		w.logger.Warn("undecodable message", zap.Int64("offset", msg.Offset), zap.Error(err))
		env = rawEnvelope(msg)
		w.settle(ctx, msg, func(ctx context.Context) error {
			return w.deadLetters.PublishEnvelopes(ctx, env.DeadLetter(err))
		})
		w.metrics.ObserveMessage(env.Type, metrics.OutcomeDead)
		return
	}

	log := w.logger.With(
		zap.String("message_id", env.ID),
		zap.String("type", env.Type),
		zap.Int("attempt", env.Attempt),
	)
	delivery := queue.Delivery{MessageID: env.ID, Attempt: env.Attempt, MaxAttempts: w.maxAttempts}

	started := time.Now()
	err = w.processor.Process(queue.WithDelivery(ctx, delivery), env)

	var outcome string
	var next func(context.Context) error
	switch {
	case err == nil:
		outcome = metrics.OutcomeSuccess
		log.Debug("message handled", zap.Duration("elapsed", time.Since(started)))
	case errors.Is(err, queue.ErrUnknownMessage), errors.Is(err, queue.ErrInvalidMessage):
		outcome = metrics.OutcomeDead
		log.Warn("rejected message sent to dead letter queue", zap.Error(err))
		next = func(ctx context.Context) error { return w.deadLetters.PublishEnvelopes(ctx, env.DeadLetter(err)) }
	case ctx.Err() != nil:
		// Shutdown interrupted the handler: leave it uncommitted for redelivery.
		log.Warn("handler interrupted by shutdown", zap.Error(err))
		return
	case delivery.Final():
		outcome = metrics.OutcomeDead
		log.Error("message exhausted its attempts", zap.Error(err))
		next = func(ctx context.Context) error { return w.deadLetters.PublishEnvelopes(ctx, env.DeadLetter(err)) }
	default:
		outcome = metrics.OutcomeRetry
		log.Warn("message failed, requeueing", zap.Error(err))
		next = func(ctx context.Context) error { return w.retries.PublishEnvelopes(ctx, env.Retry()) }
	}

	w.settle(ctx, msg, next)
	w.metrics.ObserveMessage(env.Type, outcome)
}

func (w *Worker) settle(ctx context.Context, msg kafka.Message, publish func(context.Context) error) {
	published := publish == nil
	for {
		var err error
		if !published {
			if err = publish(ctx); err == nil {
				published = true
			}
		}
		if published {
			if err = w.reader.CommitMessages(ctx, msg); err == nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("failed to settle message", zap.Int64("offset", msg.Offset), zap.Error(err))
		w.sleep(ctx)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// rawEnvelope wraps a payload that is not an envelope so it can be dead-lettered.
func rawEnvelope(msg kafka.Message) queue.Envelope {
	payload, _ := json.Marshal(string(msg.Value))
	return queue.Envelope{
		ID:        uuid.New().String(),
		Type:      "undecodable",
		Attempt:   1,
		Key:       string(msg.Key),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
