package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, zap.NewNop())

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		Type:       TypeSessionStarted,
		Key:        "42",
		OccurredAt: at,
		Payload:    map[string]any{"session_id": 7},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "42" {
		t.Errorf("key = %q, want 42", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != TypeSessionStarted {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var decoded struct {
		Type       string         `json:"type"`
		OccurredAt time.Time      `json:"occurred_at"`
		Payload    map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != TypeSessionStarted || !decoded.OccurredAt.Equal(at) {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Payload["session_id"] != float64(7) {
		t.Errorf("payload = %v", decoded.Payload)
	}
}

func TestKafkaPublisherStampsTime(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, zap.NewNop())
	if err := p.Publish(context.Background(), Event{Type: TypeCatalogSynced}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if w.msgs[0].Time.IsZero() {
		t.Error("expected occurred_at to be stamped")
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom}, zap.NewNop())
	err := p.Publish(context.Background(), Event{Type: TypeSessionCancelled})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped broker error", err)
	}
}

func TestNewWithoutBrokersIsNop(t *testing.T) {
	p, err := New(Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("publisher = %T, want NopPublisher", p)
	}
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("nop publish: %v", err)
	}
}

func TestNewRequiresTopic(t *testing.T) {
	if _, err := New(Config{Brokers: []string{"localhost:9092"}}, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing topic")
	}
}
