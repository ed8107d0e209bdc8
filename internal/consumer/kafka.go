package consumer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrRewound is returned by KafkaSource.Receive after it reopened its reader
// to re-fetch messages that failed.
var ErrRewound = errors.New("kafka reader rewound to last committed offset")

// kafkaReader abstracts kafka.Reader for testability.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// batchLinger bounds how long Receive waits for more messages once it has one.
const batchLinger = 100 * time.Millisecond

// KafkaSource consumes a topic as part of a consumer group. Ack commits the
// message offset.
//
// Commits are positional, so once a message fails no later offset in its
// partition is committed. The next Receive closes the reader and opens a new
// one, which resumes every partition at its last committed offset; messages
// after the failed one are fetched again and dropped by the processor as
// duplicates.
type KafkaSource struct {
	open        func() kafkaReader
	topic       string
	maxMessages int
	wait        time.Duration

	mu     sync.Mutex
	reader kafkaReader
	failed map[int]int64 // partition -> lowest unacknowledged offset
}

// NewKafkaSource creates a group reader for topic.
func NewKafkaSource(brokers []string, groupID, topic string, maxMessages int, wait time.Duration) *KafkaSource {
	open := func() kafkaReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  wait,
		})
	}
	return newKafkaSource(open, topic, maxMessages, wait)
}

func newKafkaSource(open func() kafkaReader, topic string, maxMessages int, wait time.Duration) *KafkaSource {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if wait <= 0 {
		wait = DefaultWaitSeconds * time.Second
	}
	return &KafkaSource{
		open:        open,
		topic:       topic,
		maxMessages: maxMessages,
		wait:        wait,
		reader:      open(),
		failed:      map[int]int64{},
	}
}

func (k *KafkaSource) Name() string { return k.topic }

// Receive waits up to the configured wait for a first message, then collects
// whatever else arrives within a short linger, up to maxMessages. If messages
// failed since the last call it rewinds instead and returns ErrRewound, so the
// consumer backs off before the failed messages come round again.
func (k *KafkaSource) Receive(ctx context.Context) ([]Message, error) {
	if err := k.rewind(); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, k.wait)
	defer cancel()

	var msgs []Message
	for len(msgs) < k.maxMessages {
		timeout := k.wait
		if len(msgs) > 0 {
			timeout = batchLinger
		}
		m, err := k.fetch(waitCtx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) || len(msgs) > 0 {
				break
			}
			return nil, fmt.Errorf("fetch message: %w", err)
		}
		msgs = append(msgs, Message{
			ID:   m.Topic + "/" + strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10),
			Body: m.Value,
			ack:  m,
		})
	}
	return msgs, nil
}

// rewind reopens the reader when any partition has an unacknowledged message.
func (k *KafkaSource) rewind() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.failed) == 0 {
		return nil
	}
	partitions := make([]int, 0, len(k.failed))
	for p := range k.failed {
		partitions = append(partitions, p)
	}
	sort.Ints(partitions)

	closeErr := k.reader.Close()
	k.reader = k.open()
	k.failed = map[int]int64{}
	if closeErr != nil {
		return fmt.Errorf("%w: partitions %v: close reader: %v", ErrRewound, partitions, closeErr)
	}
	return fmt.Errorf("%w: partitions %v", ErrRewound, partitions)
}

func (k *KafkaSource) fetch(ctx context.Context, timeout time.Duration) (kafka.Message, error) {
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	k.mu.Lock()
	r := k.reader
	k.mu.Unlock()
	return r.FetchMessage(fctx)
}

// Ack commits m unless an earlier offset in the same partition failed; such a
// message is left for the rewind to deliver again.
func (k *KafkaSource) Ack(ctx context.Context, m Message) error {
	km, ok := m.ack.(kafka.Message)
	if !ok {
		return fmt.Errorf("message %s is not a kafka message", m.ID)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if first, held := k.failed[km.Partition]; held && km.Offset >= first {
		return nil
	}
	if err := k.reader.CommitMessages(ctx, km); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

// Release records m as unacknowledged so later offsets in its partition are
// not committed past it.
func (k *KafkaSource) Release(m Message) {
	km, ok := m.ack.(kafka.Message)
	if !ok {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if first, held := k.failed[km.Partition]; !held || km.Offset < first {
		k.failed[km.Partition] = km.Offset
	}
}

// Close releases the underlying reader.
func (k *KafkaSource) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.reader.Close()
}
