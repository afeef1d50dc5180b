package processors

import (
	"context"
	"fmt"

	"prestaboost/internal/logger"
	"prestaboost/internal/queue"

	"go.uber.org/zap"
)

// Handler runs one decoded message. A returned error asks for a retry.
type Handler func(ctx context.Context, msg queue.Message) error

// EventProcessor routes envelopes to the handler registered for their type.
type EventProcessor struct {
	logger   *logger.Logger
	handlers map[string]Handler
}

func NewEventProcessor(logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		logger:   logger.Named("processor"),
		handlers: make(map[string]Handler),
	}
}

func (ep *EventProcessor) Register(messageType string, h Handler) {
	ep.handlers[messageType] = h
}

// Process decodes env and runs its handler. Decode failures wrap
// queue.ErrUnknownMessage or queue.ErrInvalidMessage.
func (ep *EventProcessor) Process(ctx context.Context, env queue.Envelope) error {
	msg, err := env.Decode()
	if err != nil {
		return err
	}
	h, ok := ep.handlers[env.Type]
	if !ok {
		return fmt.Errorf("%w: no handler for %q", queue.ErrUnknownMessage, env.Type)
	}

	ep.logger.Debug("processing message",
		zap.String("message_id", env.ID),
		zap.String("type", env.Type),
		zap.Int("attempt", env.Attempt),
	)
	if err := h(ctx, msg); err != nil {
		ep.logger.Error("message handler failed",
			zap.String("message_id", env.ID),
			zap.String("type", env.Type),
			zap.Int("attempt", env.Attempt),
			zap.Error(err),
		)
		return err
	}
	return nil
}
