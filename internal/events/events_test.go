package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestNewWithoutBrokersIsNop(t *testing.T) {
	pub := New(nil, "")
	if _, ok := pub.(Nop); !ok {
		t.Fatalf("expected Nop publisher, got %T", pub)
	}
	if err := pub.Publish(context.Background(), Event{Type: NoteCreated}); err != nil {
		t.Fatalf("Nop.Publish: %v", err)
	}
}

func TestNewWithBrokersUsesKafka(t *testing.T) {
	pub := New([]string{"localhost:9092"}, "")
	kp, ok := pub.(*KafkaPublisher)
	if !ok {
		t.Fatalf("expected *KafkaPublisher, got %T", pub)
	}
	if kp.writer.Topic != DefaultTopic {
		t.Fatalf("expected default topic, got %q", kp.writer.Topic)
	}
}

func TestKafkaPublisherFlushesEachEvent(t *testing.T) {
	kp := NewKafkaPublisher([]string{"localhost:9092"}, "notes")
	if kp.writer.BatchSize != 1 {
		t.Fatalf("expected batch size 1, got %d", kp.writer.BatchSize)
	}
	if kp.writer.BatchTimeout <= 0 || kp.writer.BatchTimeout > 50*time.Millisecond {
		t.Fatalf("batch timeout %v would hold requests", kp.writer.BatchTimeout)
	}
	if kp.writer.Async {
		t.Fatal("writes must be synchronous so failures can be logged")
	}
}

func TestMessageKeyedByNote(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := message(Event{Type: NoteShared, NoteID: 17, ActorID: 1, TargetID: 2, Permission: "edit", At: at})
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if string(msg.Key) != "17" {
		t.Fatalf("expected key 17, got %q", msg.Key)
	}
	if !msg.Time.Equal(at) {
		t.Fatalf("expected time %v, got %v", at, msg.Time)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["type"] != NoteShared || decoded["permission"] != "edit" {
		t.Fatalf("unexpected payload %v", decoded)
	}
}
