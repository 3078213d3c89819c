package producer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingProducer struct {
	mu     sync.Mutex
	events []ActivityEvent
}

func (r *recordingProducer) Emit(ctx context.Context, event ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingProducer) Close() error { return nil }

func (r *recordingProducer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestEmitAsync(t *testing.T) {
	rec := &recordingProducer{}
	EmitAsync(rec, ActivityEvent{Type: TypeUserJoined, DocumentID: "d1"})

	deadline := time.Now().Add(time.Second)
	for rec.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("async emit never arrived")
		}
		time.Sleep(time.Millisecond)
	}

	// Nil producer is a no-op, not a panic.
	EmitAsync(nil, ActivityEvent{Type: TypeUserLeft})
}

func TestKafkaProducer_NilWhenUnconfigured(t *testing.T) {
	p, err := NewKafkaProducer(nil, "topic")
	if err != nil || p != nil {
		t.Errorf("no brokers: (%v, %v), want (nil, nil)", p, err)
	}
	p, err = NewKafkaProducer([]string{"localhost:9092"}, "")
	if err != nil || p != nil {
		t.Errorf("no topic: (%v, %v), want (nil, nil)", p, err)
	}

	// Nil receiver emits and closes without error.
	var nilP *KafkaProducer
	if err := nilP.Emit(context.Background(), ActivityEvent{}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := nilP.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestLokiProducer_Push(t *testing.T) {
	var gotPath string
	var gotBody lokiPushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode push body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewLokiProducer(srv.URL + "/")
	event := ActivityEvent{
		Type:       TypeDocumentPersisted,
		DocumentID: "d1",
		Instance:   "host a", // space must be sanitized in the label
		At:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := p.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if gotPath != "/loki/api/v1/push" {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotBody.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(gotBody.Streams))
	}
	stream := gotBody.Streams[0]
	if stream.Stream["job"] != "codesync" || stream.Stream["event_type"] != TypeDocumentPersisted {
		t.Errorf("labels = %v", stream.Stream)
	}
	if stream.Stream["instance"] != "host_a" {
		t.Errorf("instance label = %q, want sanitized host_a", stream.Stream["instance"])
	}
	if len(stream.Values) != 1 || !strings.Contains(stream.Values[0][1], `"type":"document_persisted"`) {
		t.Errorf("values = %v", stream.Values)
	}
}

func TestLokiProducer_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewLokiProducer(srv.URL)
	if err := p.Emit(context.Background(), ActivityEvent{Type: TypeUserJoined}); err == nil {
		t.Error("non-2xx response not reported")
	}
}

func TestLokiProducer_NilWhenUnconfigured(t *testing.T) {
	if p := NewLokiProducer("  "); p != nil {
		t.Errorf("blank URL produced %v, want nil", p)
	}
}
