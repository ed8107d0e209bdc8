package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/idempotency"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/metrics"
)

// IdempotencyStore records applied event ids.
type IdempotencyStore interface {
	IsApplied(ctx context.Context, eventID string) (bool, error)
	MarkApplied(ctx context.Context, eventID string) error
}

// EntityStore applies mutations to users and products.
type EntityStore interface {
	UpsertUser(ctx context.Context, u events.UserUpsert, eventID, occurredAt string) error
	SoftDeleteUser(ctx context.Context, userID, eventID, occurredAt string) error
	UpsertProduct(ctx context.Context, p events.ProductUpsert, eventID, occurredAt string) error
	SoftDeleteProduct(ctx context.Context, productID, eventID, occurredAt string) error
}

// Processor applies events to the entity store at most once per event id.
// It keeps no per-event state and is safe for concurrent use.
//
// The duplicate check, the mutation and the idempotency write are separate
// operations. Two concurrent deliveries of the same event can both pass the
// check and both apply; this is tolerated because every mutation is itself
// idempotent.
type Processor struct {
	idem     IdempotencyStore
	entities EntityStore
	logger   *slog.Logger
	metrics  *metrics.Registry
	tracer   trace.Tracer
}

// Option configures a Processor.
type Option func(*Processor)

func WithLogger(l *slog.Logger) Option { return func(p *Processor) { p.logger = l } }

func WithMetrics(m *metrics.Registry) Option { return func(p *Processor) { p.metrics = m } }

// New creates a Processor with injected stores.
func New(idem IdempotencyStore, entities EntityStore, opts ...Option) *Processor {
	p := &Processor{
		idem:     idem,
		entities: entities,
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/imrishuroy/go-idempotent-catalogsync/internal/processor"),
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.NewRegistry()
	}
	return p
}

// Process applies evt and reports whether it mutated anything. Duplicates and
// unrecognized kinds return (false, nil). A payload missing its identifier
// returns an error wrapping events.ErrMalformedPayload.
func (p *Processor) Process(ctx context.Context, evt events.Event) (applied bool, err error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "processor.Process", trace.WithAttributes(
		attribute.String("event.id", evt.EventID),
		attribute.String("event.type", evt.Type),
	))
	kind := events.KindUnknown
	outcome := metrics.OutcomeFailed
	defer func() {
		p.metrics.ProcessDuration.Observe(time.Since(start).Seconds())
		p.metrics.EventsProcessed.WithLabelValues(outcome, metricKind(kind)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if evt.EventID == "" {
		return false, fmt.Errorf("%w: missing event_id", events.ErrMalformedPayload)
	}

	seen, err := p.idem.IsApplied(ctx, evt.EventID)
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", evt.EventID, err)
	}
	if seen {
		outcome = metrics.OutcomeDuplicate
		p.logger.DebugContext(ctx, "duplicate event skipped", "event_id", evt.EventID)
		return false, nil
	}

	kind = events.Normalize(evt.Type)
	span.SetAttributes(attribute.String("event.kind", string(kind)))

	payload, err := events.DecodePayload(kind, evt.Data)
	if err != nil {
		return false, fmt.Errorf("event %s: %w", evt.EventID, err)
	}

	mutated, err := p.dispatch(ctx, evt, payload)
	if err != nil {
		return false, fmt.Errorf("apply event %s: %w", evt.EventID, err)
	}
	if !mutated {
		outcome = metrics.OutcomeIgnored
		p.logger.InfoContext(ctx, "event kind not handled", "event_id", evt.EventID, "kind", kind)
		return false, nil
	}

	p.markApplied(ctx, evt.EventID)
	outcome = metrics.OutcomeApplied
	p.logger.InfoContext(ctx, "event applied", "event_id", evt.EventID, "kind", kind)
	return true, nil
}

func (p *Processor) dispatch(ctx context.Context, evt events.Event, payload events.Payload) (bool, error) {
	switch pl := payload.(type) {
	case events.UserUpsert:
		return true, p.entities.UpsertUser(ctx, pl, evt.EventID, evt.OccurredAt)
	case events.UserDeleted:
		return true, p.entities.SoftDeleteUser(ctx, pl.UserID, evt.EventID, evt.OccurredAt)
	case events.ProductUpsert:
		return true, p.entities.UpsertProduct(ctx, pl, evt.EventID, evt.OccurredAt)
	case events.ProductDeleted:
		return true, p.entities.SoftDeleteProduct(ctx, pl.ProductID, evt.EventID, evt.OccurredAt)
	}
	return false, nil
}

// markApplied never fails the event: the mutation has already happened.
// A conflict means a concurrent delivery recorded it first.
func (p *Processor) markApplied(ctx context.Context, eventID string) {
	err := p.idem.MarkApplied(ctx, eventID)
	switch {
	case err == nil:
	case errors.Is(err, idempotency.ErrAlreadyApplied):
		p.logger.DebugContext(ctx, "event recorded concurrently", "event_id", eventID)
	default:
		p.metrics.MarkAppliedFailures.Inc()
		p.logger.WarnContext(ctx, "failed to record applied event", "event_id", eventID, "err", err)
	}
}

// metricKind bounds label cardinality: unrecognized kinds share one label.
func metricKind(k events.Kind) string {
	switch {
	case k == events.KindUnknown:
		return "unknown"
	case k.Known():
		return string(k)
	}
	return "unrecognized"
}
