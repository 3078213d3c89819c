package fanout

import (
	"context"
	"testing"
)

func TestMemoryBus_PublishReachesAllSubscribers(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	var got1, got2 []EditMessage
	bus.Subscribe(ctx, func(m EditMessage) { got1 = append(got1, m) })
	bus.Subscribe(ctx, func(m EditMessage) { got2 = append(got2, m) })

	msg := EditMessage{Kind: KindEdit, DocumentID: "d1", Username: "alice", Content: "hello", Version: 1, Origin: "i1"}
	if err := bus.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(got1) != 1 || got1[0].Content != "hello" {
		t.Errorf("subscriber 1 got %v", got1)
	}
	if len(got2) != 1 || got2[0].Origin != "i1" {
		t.Errorf("subscriber 2 got %v", got2)
	}
}

func TestMemoryBus_ClosedBusDropsMessages(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	var got []EditMessage
	bus.Subscribe(ctx, func(m EditMessage) { got = append(got, m) })
	bus.Close()

	if err := bus.Publish(ctx, EditMessage{Kind: KindEdit, DocumentID: "d1"}); err != nil {
		t.Fatalf("Publish after close: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("closed bus delivered %v", got)
	}
}

func TestDocumentIDFromChannel(t *testing.T) {
	if got := documentIDFromChannel("document:abc-123:edits"); got != "abc-123" {
		t.Errorf("documentIDFromChannel = %q, want %q", got, "abc-123")
	}
}
