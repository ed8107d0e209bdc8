package idempotency

import "time"

// Record marks an event whose side effects have been applied.
// At most one exists per event id; it is never updated or deleted.
type Record struct {
	EventID   string    `dynamodbav:"event_id"` // PK
	AppliedAt time.Time `dynamodbav:"applied_at"`
}
