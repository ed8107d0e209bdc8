package events

import "errors"

// Kind is the canonical category an inbound event is classified into.
type Kind string

// Canonical kinds. Any other non-empty value is an unrecognized kind that is
// preserved (uppercased) but never dispatched.
const (
	KindUnknown        Kind = ""
	KindUserUpsert     Kind = "USER_UPSERT"
	KindUserDeleted    Kind = "USER_DELETED"
	KindProductUpsert  Kind = "PRODUCT_UPSERT"
	KindProductDeleted Kind = "PRODUCT_DELETED"
)

// Known reports whether k is one of the four mutating kinds.
func (k Kind) Known() bool {
	switch k {
	case KindUserUpsert, KindUserDeleted, KindProductUpsert, KindProductDeleted:
		return true
	}
	return false
}

// ErrMalformedPayload is returned when an event lacks a field required to apply it.
var ErrMalformedPayload = errors.New("malformed event payload")

// Event is a change event as received from the transport or the simulate endpoint.
type Event struct {
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	OccurredAt string         `json:"occurred_at"`
	Source     string         `json:"source,omitempty"`
	Data       map[string]any `json:"data"`
}
