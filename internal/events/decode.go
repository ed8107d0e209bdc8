package events

import (
	"encoding/json"
	"fmt"
)

// snsWrapperField is the field SNS uses to nest the published message when raw
// message delivery is disabled on the subscription.
const snsWrapperField = "Message"

// Decode turns a transport message body into an Event. A notification wrapper
// is unwrapped first; if that fails for any reason the raw body is decoded as
// the event itself.
func Decode(body []byte) (Event, error) {
	if inner, ok := unwrap(body); ok {
		if evt, err := parse(inner); err == nil {
			return evt, nil
		}
	}
	return parse(body)
}

func unwrap(body []byte) ([]byte, bool) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, false
	}
	raw, ok := outer[snsWrapperField]
	if !ok {
		return nil, false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	return []byte(msg), true
}

func parse(b []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(b, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.EventID == "" {
		return Event{}, fmt.Errorf("%w: missing event_id", ErrMalformedPayload)
	}
	return evt, nil
}

// Wrap encodes evt inside a notification wrapper, as SNS would deliver it to SQS.
func Wrap(evt Event) ([]byte, error) {
	inner, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return json.Marshal(map[string]string{
		"Type":          "Notification",
		snsWrapperField: string(inner),
	})
}
