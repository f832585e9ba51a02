package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types published for note changes.
const (
	NoteCreated  = "note.created"
	NoteUpdated  = "note.updated"
	NoteDeleted  = "note.deleted"
	NoteShared   = "note.shared"
	NoteUnshared = "note.unshared"
)

// DefaultTopic is the topic note events go to when none is configured.
const DefaultTopic = "notio.notes"

// Event describes a committed change to a note.
type Event struct {
	Type       string    `json:"type"`
	NoteID     uint      `json:"note_id"`
	ActorID    uint      `json:"actor_id"`
	TargetID   uint      `json:"target_id,omitempty"`
	Permission string    `json:"permission,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New returns a Kafka publisher for brokers, or a no-op publisher when no
// brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(brokers, topic)
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }
// Close does nothing.
func (Nop) Close() error { return nil }

// KafkaPublisher writes events as JSON messages keyed by note id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to topic on brokers. Every
// event is flushed on its own since Publish runs inside a request.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
		},
	}
}

// Publish writes event to Kafka.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := message(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// message encodes event so that all events of one note land in one partition.
func message(event Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.NoteID), 10)),
		Value: payload,
		Time:  event.At,
	}, nil
}
