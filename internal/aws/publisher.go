package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
)

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Publish sends evt to the queue. With wrap set the body is a notification
// wrapper, the shape SNS delivers to a subscribed queue.
func (p *Publisher) Publish(ctx context.Context, evt events.Event, wrap bool) (string, error) {
	var (
		body []byte
		err  error
	)
	if wrap {
		body, err = events.Wrap(evt)
	} else {
		body, err = json.Marshal(evt)
	}
	if err != nil {
		return "", err
	}

	msg := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msg,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_id": {DataType: awsString("String"), StringValue: awsString(evt.EventID)},
		},
	}
	if evt.Type != "" {
		input.MessageAttributes["event_type"] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(evt.Type),
		}
	}

	out, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if out.MessageId == nil {
		return "", nil
	}
	return *out.MessageId, nil
}

func awsString(s string) *string { return &s }
