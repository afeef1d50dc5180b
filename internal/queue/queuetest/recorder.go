// Package queuetest provides an in-memory Publisher for tests.
package queuetest

import (
	"context"
	"sync"

	"prestaboost/internal/queue"
)

// Recorder keeps every published message. Setting Err makes Publish fail.
type Recorder struct {
	mu   sync.Mutex
	msgs []queue.Message
	Err  error
}

func (r *Recorder) Publish(ctx context.Context, msgs ...queue.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *Recorder) Messages() []queue.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}
