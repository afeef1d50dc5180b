package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prestaboost/internal/clock"
	"prestaboost/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher dispatches collection tasks.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// KafkaPublisher writes envelopes keyed by boutique id, so one boutique's
// tasks stay ordered on one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	clock  clock.Clock
	logger *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		clock:  clock.System,
		logger: log.Named("publisher"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	envs := make([]Envelope, 0, len(msgs))
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			return err
		}
		env, err := NewEnvelope(m, p.clock.Now())
		if err != nil {
			return err
		}
		envs = append(envs, env)
	}
	return p.PublishEnvelopes(ctx, envs...)
}

// PublishEnvelopes writes already built envelopes, as the worker does for retries.
func (p *KafkaPublisher) PublishEnvelopes(ctx context.Context, envs ...Envelope) error {
	if len(envs) == 0 {
		return nil
	}
	kmsgs := make([]kafka.Message, 0, len(envs))
	for _, env := range envs {
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to encode envelope %s: %w", env.ID, err)
		}
		kmsgs = append(kmsgs, kafka.Message{Key: []byte(env.Key), Value: value})
	}
	if err := p.writer.WriteMessages(ctx, kmsgs...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.writer.Topic, err)
	}
	for _, env := range envs {
		p.logger.Debug("message published",
			zap.String("topic", p.writer.Topic),
			zap.String("type", env.Type),
			zap.String("key", env.Key),
			zap.Int("attempt", env.Attempt),
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
