package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Routing keys emitted by the service.
const (
	TypeCacheInvalidate    = "cache.invalidate"
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypePaymentSettled     = "payment.settled"
)

// Event is the envelope every message is wrapped in.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher delivers events to downstream consumers (cache, notifications).
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// CacheInvalidation names the cache keys a mutation made stale.
type CacheInvalidation struct {
	Keys []string `json:"keys"`
}

func newEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Emit publishes and logs failures instead of returning them. Events go out
// after the owning transaction committed, so a broker outage must not turn a
// successful operation into an error.
func Emit(ctx context.Context, p Publisher, log *slog.Logger, eventType string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, payload); err != nil && log != nil {
		log.Warn("event publish failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{ Log *slog.Logger }

func (p NopPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if p.Log != nil {
		p.Log.Debug("event dropped (no broker configured)", slog.String("event_type", eventType))
	}
	return nil
}

// Recorder keeps published events in memory. Tests use it to assert emission.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, newEvent(eventType, payload))
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type, oldest first.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
