// Package dispatch maps user intents, from CLI commands or dashboard keys,
// onto coordinator operations. Front-ends build a Message and never call the
// coordinator directly.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cur8/internal/logging"
)

// Handler performs one intent.
type Handler func(ctx context.Context, msg Message) (Outcome, error)

// Table holds the registered intent handlers. It is safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	handlers map[Intent]Handler
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{handlers: make(map[Intent]Handler)}
}

// Register adds a handler for intent.
func (t *Table) Register(intent Intent, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: %s", ErrHandlerNil, intent)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.handlers[intent]; exists {
		return fmt.Errorf("%w: %s", ErrIntentAlreadyRegistered, intent)
	}
	t.handlers[intent] = h
	logging.DispatchDebug("Registered intent: %s", intent)
	return nil
}

// MustRegister registers a handler and panics on error.
func (t *Table) MustRegister(intent Intent, h Handler) {
	if err := t.Register(intent, h); err != nil {
		panic(fmt.Sprintf("failed to register intent %s: %v", intent, err))
	}
}

// Has reports whether intent has a handler.
func (t *Table) Has(intent Intent) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[intent]
	return ok
}

// Intents returns the registered intents, sorted.
func (t *Table) Intents() []Intent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Intent, 0, len(t.handlers))
	for i := range t.handlers {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Dispatch runs the handler of msg.Intent.
func (t *Table) Dispatch(ctx context.Context, msg Message) (Outcome, error) {
	t.mu.RLock()
	h, ok := t.handlers[msg.Intent]
	t.mu.RUnlock()
	if !ok {
		return Outcome{Intent: msg.Intent}, fmt.Errorf("%w: %q", ErrUnknownIntent, msg.Intent)
	}

	start := time.Now()
	out, err := h(ctx, msg)
	out.Intent = msg.Intent
	logging.DispatchDebug("Intent %s completed in %v (success=%v)", msg.Intent, time.Since(start), err == nil)
	return out, err
}
