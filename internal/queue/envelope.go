package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the JSON document written to the topic.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Attempt   int             `json:"attempt"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	// Error is set on dead-lettered envelopes.
	Error string `json:"error,omitempty"`
}

func NewEnvelope(m Message, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s: %w", m.Type(), err)
	}
	return Envelope{
		ID:        uuid.New().String(),
		Type:      m.Type(),
		Attempt:   1,
		Key:       m.Key(),
		Payload:   payload,
		CreatedAt: now.UTC(),
	}, nil
}

func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	if env.Attempt < 1 {
		env.Attempt = 1
	}
	return env, nil
}

// Decode returns the typed, validated message.
func (e Envelope) Decode() (Message, error) {
	var m Message
	switch e.Type {
	case TypeCollectBoutiqueData:
		m = decodeInto[CollectBoutiqueDataMessage](e.Payload)
	case TypeCollectOrdersChunk:
		m = decodeInto[CollectOrdersChunkMessage](e.Payload)
	case TypeSyncOrders:
		m = decodeInto[SyncOrdersMessage](e.Payload)
	case TypeSyncStocks:
		m = decodeInto[SyncStocksMessage](e.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, e.Type)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: undecodable %s payload", ErrInvalidMessage, e.Type)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeInto[T Message](payload json.RawMessage) Message {
	var m T
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil
	}
	return m
}

// Retry is the envelope redelivered after a failed attempt.
func (e Envelope) Retry() Envelope {
	e.Attempt++
	return e
}

// DeadLetter marks the envelope with the error that exhausted it.
func (e Envelope) DeadLetter(cause error) Envelope {
	if cause != nil {
		e.Error = cause.Error()
	}
	return e
}

// Delivery describes the attempt being handled.
type Delivery struct {
	MessageID   string
	Attempt     int
	MaxAttempts int
}

// Final reports whether a failure now sends the message to the DLQ.
func (d Delivery) Final() bool {
	return d.MaxAttempts > 0 && d.Attempt >= d.MaxAttempts
}

type deliveryKey struct{}

func WithDelivery(ctx context.Context, d Delivery) context.Context {
	return context.WithValue(ctx, deliveryKey{}, d)
}

// DeliveryFrom returns the delivery of ctx. Outside the worker every call is
// its own final attempt.
func DeliveryFrom(ctx context.Context) Delivery {
	if d, ok := ctx.Value(deliveryKey{}).(Delivery); ok {
		return d
	}
	return Delivery{Attempt: 1, MaxAttempts: 1}
}
