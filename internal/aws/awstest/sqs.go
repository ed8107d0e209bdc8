package awstest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQS is an in-memory queue set. Received messages stay in flight until deleted;
// Redeliver puts every in-flight message back on its queue.
type SQS struct {
	mu       sync.Mutex
	seq      int
	queues   map[string][]sqstypes.Message
	inFlight map[string]map[string]sqstypes.Message // queue -> receipt -> message

	// ReceiveErrs are returned, in order, by the next ReceiveMessage calls.
	ReceiveErrs []error

	Sent         []*sqs.SendMessageInput
	Deleted      []string
	ReceiveCalls int
}

// NewSQS returns an empty fake.
func NewSQS() *SQS {
	return &SQS{
		queues:   map[string][]sqstypes.Message{},
		inFlight: map[string]map[string]sqstypes.Message{},
	}
}

// Enqueue adds a message body to a queue.
func (s *SQS) Enqueue(queueURL, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(queueURL, body)
}

func (s *SQS) enqueueLocked(queueURL, body string) {
	s.seq++
	id := fmt.Sprintf("msg-%d", s.seq)
	s.queues[queueURL] = append(s.queues[queueURL], sqstypes.Message{
		MessageId: &id,
		Body:      &body,
	})
}

// InFlight returns the number of received but undeleted messages on a queue.
func (s *SQS) InFlight(queueURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight[queueURL])
}

// DeletedCount returns the number of successful DeleteMessage calls.
func (s *SQS) DeletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Deleted)
}

// Redeliver simulates the visibility timeout expiring.
func (s *SQS) Redeliver(queueURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for receipt, m := range s.inFlight[queueURL] {
		s.queues[queueURL] = append(s.queues[queueURL], m)
		delete(s.inFlight[queueURL], receipt)
	}
}

func (s *SQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, params)
	s.enqueueLocked(*params.QueueUrl, *params.MessageBody)
	id := fmt.Sprintf("msg-%d", s.seq)
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

// ReceiveMessage returns immediately when messages are queued; an empty queue
// holds the caller for a few milliseconds to stand in for long polling.
func (s *SQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	out, err := s.receive(ctx, params)
	if err != nil || len(out.Messages) > 0 {
		return out, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return out, nil
	}
}

func (s *SQS) receive(ctx context.Context, params *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReceiveCalls++
	if len(s.ReceiveErrs) > 0 {
		err := s.ReceiveErrs[0]
		s.ReceiveErrs = s.ReceiveErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := *params.QueueUrl
	n := int(params.MaxNumberOfMessages)
	if n <= 0 {
		n = 1
	}
	q := s.queues[url]
	if n > len(q) {
		n = len(q)
	}
	batch := q[:n]
	s.queues[url] = q[n:]

	if s.inFlight[url] == nil {
		s.inFlight[url] = map[string]sqstypes.Message{}
	}
	out := make([]sqstypes.Message, 0, len(batch))
	for _, m := range batch {
		s.seq++
		receipt := fmt.Sprintf("rh-%d", s.seq)
		m.ReceiptHandle = &receipt
		s.inFlight[url][receipt] = m
		out = append(out, m)
	}
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (s *SQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := *params.QueueUrl
	receipt := *params.ReceiptHandle
	if _, ok := s.inFlight[url][receipt]; !ok {
		return nil, fmt.Errorf("receipt handle %s is not in flight", receipt)
	}
	delete(s.inFlight[url], receipt)
	s.Deleted = append(s.Deleted, receipt)
	return &sqs.DeleteMessageOutput{}, nil
}
