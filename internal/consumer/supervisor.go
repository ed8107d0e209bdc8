package consumer

import (
	"context"
	"log/slog"
	"sync"
)

// Supervisor runs one Consumer per Source concurrently for the lifetime of its context.
type Supervisor struct {
	consumers []*Consumer
	logger    *slog.Logger
}

// NewSupervisor builds a Consumer for every source, sharing proc and opts.
func NewSupervisor(sources []Source, proc Processor, logger *slog.Logger, opts ...Option) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{logger: logger}
	for _, src := range sources {
		s.consumers = append(s.consumers, New(src, proc, append([]Option{WithLogger(logger)}, opts...)...))
	}
	return s
}

// Run blocks until ctx is cancelled and every consumer has returned. In-flight
// messages are abandoned; the transport redelivers anything unacknowledged.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("starting consumers", "count", len(s.consumers))
	var wg sync.WaitGroup
	for _, c := range s.consumers {
		wg.Add(1)
		go func(c *Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil && !IsCancelled(err) {
				c.logger.Error("consumer exited", "err", err)
			}
		}(c)
	}
	wg.Wait()
	s.logger.Info("all consumers stopped")
}
