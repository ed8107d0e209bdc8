package consumer

import "context"

// Message is one transport message. ack carries whatever the source needs to
// acknowledge it (an SQS receipt handle, a Kafka message).
type Message struct {
	ID   string
	Body []byte
	ack  any
}

// Source is a pull-based queue: Receive blocks for at most the source's long-poll
// wait and Ack removes a message so it is not redelivered.
type Source interface {
	Name() string
	Receive(ctx context.Context) ([]Message, error)
	Ack(ctx context.Context, m Message) error
}

// Releaser is implemented by sources that must be told about messages left
// unacknowledged. Offset-based transports use it to hold back later commits.
type Releaser interface {
	Release(m Message)
}
