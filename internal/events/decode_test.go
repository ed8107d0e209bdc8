package events

import (
	"errors"
	"testing"
)

func TestDecode_RawEvent(t *testing.T) {
	body := []byte(`{"event_id":"e1","type":"user.created","occurred_at":"2024-01-01T00:00:00Z","data":{"user_id":"u1"}}`)
	evt, err := Decode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.EventID != "e1" || evt.Type != "user.created" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.Data["user_id"] != "u1" {
		t.Fatalf("data not decoded: %+v", evt.Data)
	}
}

func TestDecode_NotificationWrapper(t *testing.T) {
	wrapped, err := Wrap(Event{EventID: "e2", Type: "product.remove", Data: map[string]any{"product_id": "p1"}})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	evt, err := Decode(wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.EventID != "e2" || evt.Data["product_id"] != "p1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestDecode_BrokenWrapperFallsBackToBody(t *testing.T) {
	// Message is not a JSON event, but the body itself carries an event id.
	body := []byte(`{"Message":"not-json","event_id":"e3","type":"user.remove","data":{"user_id":"u3"}}`)
	evt, err := Decode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.EventID != "e3" {
		t.Fatalf("expected fallback to raw body, got %+v", evt)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
	_, err := Decode([]byte(`{"type":"user.created"}`))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}
