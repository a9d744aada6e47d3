// Package events publishes domain events such as appointment status
// changes and completed lab requests.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types.
const (
	AppointmentScheduled = "appointment.scheduled"
	AppointmentConfirmed = "appointment.confirmed"
	AppointmentCancelled = "appointment.cancelled"
	AppointmentCompleted = "appointment.completed"
	AppointmentNoShow    = "appointment.no-show"
	AppointmentReminder  = "appointment.reminder"
	LabRequestCompleted  = "lab_request.completed"
	LabRequestCancelled  = "lab_request.cancelled"
)

// Event is a domain event. Key identifies the entity and is used as the
// partition key.
type Event struct {
	Type       string            `json:"type"`
	Key        string            `json:"key"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// New returns an event stamped with the current time.
func New(eventType, key string, data map[string]string) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

// Publisher delivers events. Delivery is best effort: implementations log
// failures and callers do not roll back state when Publish errors.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogPublisher writes events to a zerolog logger. It is used when no
// broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	ev := p.logger.Info().
		Str("event_type", evt.Type).
		Str("key", evt.Key).
		Time("occurred_at", evt.OccurredAt)
	if len(evt.Data) > 0 {
		ev = ev.Interface("data", evt.Data)
	}
	ev.Msg("domain event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the event types published so far, in order.
func (r *Recorder) Types() []string {
	evts := r.Events()
	out := make([]string, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}

func encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}
