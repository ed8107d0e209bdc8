package validation

import "github.com/imrishuroy/go-idempotent-catalogsync/internal/events"

// SimulateEventRequest is the payload for POST /_simulate/event.
// An empty type is accepted and processed as an unknown kind.
type SimulateEventRequest struct {
	EventID    string         `json:"event_id" validate:"required,notblank"`
	Type       string         `json:"type"`
	OccurredAt string         `json:"occurred_at"`
	Source     string         `json:"source"`
	Data       map[string]any `json:"data" validate:"required"`
}

// Event converts the request into the event handed to the processor.
func (r SimulateEventRequest) Event() events.Event {
	return events.Event{
		EventID:    r.EventID,
		Type:       r.Type,
		OccurredAt: r.OccurredAt,
		Source:     r.Source,
		Data:       r.Data,
	}
}
