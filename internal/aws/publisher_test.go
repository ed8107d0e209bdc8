package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws/awstest"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
)

func TestPublisher_PublishRoundTripsThroughDecode(t *testing.T) {
	evt := events.Event{
		EventID:    "e1",
		Type:       "user.created",
		OccurredAt: "2024-01-01T00:00:00Z",
		Data:       map[string]any{"user_id": "u1"},
	}

	for _, wrap := range []bool{false, true} {
		fake := awstest.NewSQS()
		p := NewPublisher(fake, "https://q/users")

		id, err := p.Publish(context.Background(), evt, wrap)
		if err != nil {
			t.Fatalf("wrap=%v: Publish error: %v", wrap, err)
		}
		if id == "" || len(fake.Sent) != 1 {
			t.Fatalf("wrap=%v: expected one message with an id, got id=%q sent=%d", wrap, id, len(fake.Sent))
		}

		in := fake.Sent[0]
		if *in.MessageAttributes["event_id"].StringValue != "e1" || *in.MessageAttributes["event_type"].StringValue != "user.created" {
			t.Fatalf("wrap=%v: unexpected attributes %+v", wrap, in.MessageAttributes)
		}
		got, err := events.Decode([]byte(*in.MessageBody))
		if err != nil {
			t.Fatalf("wrap=%v: Decode error: %v", wrap, err)
		}
		if got.EventID != "e1" || got.Data["user_id"] != "u1" {
			t.Fatalf("wrap=%v: unexpected event %+v", wrap, got)
		}
	}
}

type failingSQS struct{ *awstest.SQS }

func (failingSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	return nil, errors.New("boom")
}

func TestPublisher_SendError(t *testing.T) {
	p := NewPublisher(failingSQS{awstest.NewSQS()}, "https://q/users")
	if _, err := p.Publish(context.Background(), events.Event{EventID: "e1"}, false); err == nil {
		t.Fatal("expected send error")
	}
}
