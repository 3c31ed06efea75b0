package events

import (
	"context"
	"errors"
	"testing"

	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
	"github.com/oklog/ulid/v2"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	f.calls++
	return errors.New("broker down")
}

func TestRecorder_AssignsULIDs(t *testing.T) {
	rec := &Recorder{}
	ctx := context.Background()

	_ = rec.Publish(ctx, TypeCacheInvalidate, CacheInvalidation{Keys: []string{"menu_items"}})
	_ = rec.Publish(ctx, TypeOrderCreated, map[string]string{"tracking_code": "ORD-1"})

	all := rec.Events()
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	for _, e := range all {
		if _, err := ulid.Parse(e.ID); err != nil {
			t.Errorf("event id %q is not a ulid: %v", e.ID, err)
		}
	}
	if all[0].ID == all[1].ID {
		t.Error("event ids must be unique")
	}
	if got := rec.OfType(TypeCacheInvalidate); len(got) != 1 {
		t.Errorf("expected 1 invalidation event, got %d", len(got))
	}
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	p := &failingPublisher{}
	Emit(context.Background(), p, logger.Discard(), TypeOrderStatusChanged, nil)
	if p.calls != 1 {
		t.Fatalf("expected one publish attempt, got %d", p.calls)
	}
	// nil publisher is a no-op
	Emit(context.Background(), nil, logger.Discard(), TypeOrderStatusChanged, nil)
}
