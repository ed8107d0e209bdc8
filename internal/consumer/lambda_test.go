package consumer

import (
	"context"
	"testing"

	lambdaevents "github.com/aws/aws-lambda-go/events"
)

func TestLambdaHandler_ReportsOnlyFailedRecords(t *testing.T) {
	proc := &stubProcessor{fail: map[string]bool{"bad": true}}
	h := NewLambdaHandler(proc, discard)

	resp, err := h.HandleSQS(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{
			{MessageId: "m1", Body: `{"event_id":"e1","type":"user.created","data":{"user_id":"u1"}}`},
			{MessageId: "m2", Body: `{"event_id":"bad","type":"user.created","data":{"user_id":"u2"}}`},
			{MessageId: "m3", Body: `garbage`},
		},
	})
	if err != nil {
		t.Fatalf("HandleSQS error: %v", err)
	}
	if len(resp.BatchItemFailures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", resp.BatchItemFailures)
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "m2" || resp.BatchItemFailures[1].ItemIdentifier != "m3" {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
	if proc.count() != 2 {
		t.Fatalf("expected 2 processed events, got %d", proc.count())
	}
}
