package consumer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
)

// SQS long-poll limits.
const (
	DefaultMaxMessages = 10
	DefaultWaitSeconds = 20
)

// SQSSource pulls from a single SQS queue.
type SQSSource struct {
	client      aws.SQSAPI
	queueURL    string
	maxMessages int32
	waitSeconds int32
}

// NewSQSSource returns a source for queueURL. Non-positive limits fall back to the defaults.
func NewSQSSource(client aws.SQSAPI, queueURL string, maxMessages, waitSeconds int) *SQSSource {
	if maxMessages <= 0 || maxMessages > DefaultMaxMessages {
		maxMessages = DefaultMaxMessages
	}
	if waitSeconds < 0 || waitSeconds > DefaultWaitSeconds {
		waitSeconds = DefaultWaitSeconds
	}
	return &SQSSource{
		client:      client,
		queueURL:    queueURL,
		maxMessages: int32(maxMessages),
		waitSeconds: int32(waitSeconds),
	}
}

func (s *SQSSource) Name() string { return s.queueURL }

func (s *SQSSource) Receive(ctx context.Context) ([]Message, error) {
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &s.queueURL,
		MaxNumberOfMessages: s.maxMessages,
		WaitTimeSeconds:     s.waitSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}
	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msg := Message{ack: m.ReceiptHandle}
		if m.MessageId != nil {
			msg.ID = *m.MessageId
		}
		if m.Body != nil {
			msg.Body = []byte(*m.Body)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *SQSSource) Ack(ctx context.Context, m Message) error {
	receipt, ok := m.ack.(*string)
	if !ok || receipt == nil {
		return fmt.Errorf("message %s has no receipt handle", m.ID)
	}
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &s.queueURL,
		ReceiptHandle: receipt,
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
