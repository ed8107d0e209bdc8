package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/metrics"
)

// DefaultBackoff is the pause after a failed receive before the loop retries.
const DefaultBackoff = 3 * time.Second

// Processor applies one decoded event.
type Processor interface {
	Process(ctx context.Context, evt events.Event) (bool, error)
}

// BatchReporter publishes per-batch statistics.
type BatchReporter interface {
	Report(ctx context.Context, queue string, st metrics.BatchStats) error
}

// Consumer drains one Source until its context is cancelled.
type Consumer struct {
	src      Source
	proc     Processor
	backoff  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Registry
	reporter BatchReporter
}

// Option configures a Consumer.
type Option func(*Consumer)

func WithBackoff(d time.Duration) Option     { return func(c *Consumer) { c.backoff = d } }
func WithLogger(l *slog.Logger) Option       { return func(c *Consumer) { c.logger = l } }
func WithMetrics(m *metrics.Registry) Option { return func(c *Consumer) { c.metrics = m } }
func WithReporter(r BatchReporter) Option    { return func(c *Consumer) { c.reporter = r } }

// New creates a Consumer for src.
func New(src Source, proc Processor, opts ...Option) *Consumer {
	c := &Consumer{
		src:     src,
		proc:    proc,
		backoff: DefaultBackoff,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewRegistry()
	}
	c.logger = c.logger.With("queue", src.Name())
	return c
}

// Run pulls batches until ctx is cancelled. Receive failures are retried after
// a fixed backoff with no retry limit; per-message failures leave the message
// unacknowledged so the transport redelivers it.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("consumer stopped")
			return err
		}

		msgs, err := c.src.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.metrics.ReceiveErrors.WithLabelValues(c.src.Name()).Inc()
			c.logger.Warn("receive failed, backing off", "err", err, "backoff", c.backoff)
			sleep(ctx, c.backoff)
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		c.handleBatch(ctx, msgs)
	}
}

func (c *Consumer) handleBatch(ctx context.Context, msgs []Message) {
	batchID := uuid.NewString()
	log := c.logger.With("batch_id", batchID)
	st := metrics.BatchStats{Received: len(msgs)}
	c.metrics.MessagesReceived.WithLabelValues(c.src.Name()).Add(float64(len(msgs)))

	for _, m := range msgs {
		applied, err := c.handle(ctx, m)
		if err != nil {
			st.Failed++
			if r, ok := c.src.(Releaser); ok {
				r.Release(m)
			}
			c.metrics.MessagesFailed.WithLabelValues(c.src.Name()).Inc()
			log.Error("message left for redelivery", "message_id", m.ID, "err", err)
			continue
		}
		if applied {
			st.Applied++
		} else {
			st.Skipped++
		}
	}

	if c.reporter != nil {
		if err := c.reporter.Report(ctx, c.src.Name(), st); err != nil {
			log.Warn("batch report failed", "err", err)
		}
	}
	log.Debug("batch done", "received", st.Received, "applied", st.Applied, "skipped", st.Skipped, "failed", st.Failed)
}

// handle decodes, processes and acknowledges a single message.
func (c *Consumer) handle(ctx context.Context, m Message) (bool, error) {
	evt, err := events.Decode(m.Body)
	if err != nil {
		return false, err
	}
	applied, err := c.proc.Process(ctx, evt)
	if err != nil {
		return false, fmt.Errorf("process %s: %w", evt.EventID, err)
	}
	if err := c.src.Ack(ctx, m); err != nil {
		return applied, fmt.Errorf("ack %s: %w", evt.EventID, err)
	}
	c.metrics.MessagesAcked.WithLabelValues(c.src.Name()).Inc()
	return applied, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// IsCancelled reports whether err is the result of a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
