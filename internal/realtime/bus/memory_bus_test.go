package bus

import (
	"context"
	"testing"
)

func TestMemoryBusDeliversInOrder(t *testing.T) {
	b := NewMemoryBus()
	var got []string
	if err := b.StartForwarder(context.Background(), func(ev Event) { got = append(got, ev.Scope) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	for _, scope := range []string{"categories:a->b", "variants:a->b"} {
		if err := b.Publish(context.Background(), Event{Type: EventMappingCommitted, Scope: scope}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if len(got) != 2 || got[0] != "categories:a->b" || got[1] != "variants:a->b" {
		t.Fatalf("unexpected delivery order: %v", got)
	}
	if n := len(b.Events()); n != 2 {
		t.Fatalf("Events: want 2, got %d", n)
	}
}

func TestMemoryBusRejectsCancelledPublish(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Publish(ctx, Event{Type: EventMappingCommitted}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if n := len(b.Events()); n != 0 {
		t.Fatalf("cancelled publish was recorded")
	}
	if err := b.StartForwarder(context.Background(), nil); err != nil {
		t.Fatalf("nil listener should be ignored: %v", err)
	}
}
