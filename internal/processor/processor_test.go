package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws/awstest"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/catalog"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/idempotency"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/metrics"
)

type fixture struct {
	proc     *Processor
	mock     *awstest.Dynamo
	entities *catalog.Store
	metrics  *metrics.Registry
}

func newFixture() *fixture {
	mock := awstest.NewDynamo()
	mock.CreateTable("applied", idempotency.KeyAttribute)
	mock.CreateTable("users", catalog.UserKey)
	mock.CreateTable("products", catalog.ProductKey)

	entities := catalog.NewStore(mock, "users", "products")
	reg := metrics.NewRegistry()
	proc := New(idempotency.NewStore(mock, "applied"), entities,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(reg),
	)
	return &fixture{proc: proc, mock: mock, entities: entities, metrics: reg}
}

func TestProcess_IdempotentUserUpsert(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	evt := events.Event{
		EventID:    "e1",
		Type:       "user.created",
		OccurredAt: "2024-01-01T00:00:00Z",
		Data:       map[string]any{"user_id": "u1", "email": "a@b.com"},
	}

	applied, err := f.proc.Process(ctx, evt)
	if err != nil {
		t.Fatalf("first Process error: %v", err)
	}
	if !applied {
		t.Fatalf("expected applied=true on first delivery")
	}
	first, _ := f.entities.GetUser(ctx, "u1")

	applied, err = f.proc.Process(ctx, evt)
	if err != nil {
		t.Fatalf("second Process error: %v", err)
	}
	if applied {
		t.Fatalf("expected applied=false on redelivery")
	}
	second, _ := f.entities.GetUser(ctx, "u1")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("state changed by duplicate: %+v -> %+v", first, second)
	}

	if first.Status != "ACTIVE" || first.IsDeleted || *first.Email != "a@b.com" || first.LastEventID != "e1" {
		t.Fatalf("unexpected user: %+v", first)
	}
	if f.mock.UpdateCalls != 1 {
		t.Fatalf("expected one mutation, got %d", f.mock.UpdateCalls)
	}
	if got := testutil.ToFloat64(f.metrics.EventsProcessed.WithLabelValues(metrics.OutcomeDuplicate, "unknown")); got != 1 {
		t.Fatalf("expected one duplicate recorded, got %v", got)
	}
}

func TestProcess_DeleteBeforeUpsert(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	applied, err := f.proc.Process(ctx, events.Event{
		EventID: "e2",
		Type:    "product.remove",
		Data:    map[string]any{"product_id": "p1"},
	})
	if err != nil || !applied {
		t.Fatalf("expected applied, got applied=%v err=%v", applied, err)
	}
	p, _ := f.entities.GetProduct(ctx, "p1")
	if p == nil || !p.IsDeleted || p.LastEventID != "e2" {
		t.Fatalf("expected minimal deleted product, got %+v", p)
	}
}

func TestProcess_DeleteKeepsPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _ = f.proc.Process(ctx, events.Event{EventID: "e1", Type: "product.created", Data: map[string]any{"product_id": "p1", "price": 9.99}})
	_, _ = f.proc.Process(ctx, events.Event{EventID: "e2", Type: "PRODUCT_DELETED", Data: map[string]any{"product_id": "p1"}})

	p, _ := f.entities.GetProduct(ctx, "p1")
	if p.Price != 9.99 || !p.IsDeleted || p.Currency != "USD" {
		t.Fatalf("unexpected product after delete: %+v", p)
	}
}

func TestProcess_UnknownKindNeverMutates(t *testing.T) {
	f := newFixture()

	for i, typ := range []string{"weird_type", "", "user.deleted"} {
		applied, err := f.proc.Process(context.Background(), events.Event{
			EventID: fmt.Sprintf("x%d", i),
			Type:    typ,
			Data:    map[string]any{"user_id": "u1"},
		})
		if err != nil || applied {
			t.Fatalf("%q: expected (false, nil), got (%v, %v)", typ, applied, err)
		}
	}
	if f.mock.UpdateCalls != 0 || f.mock.PutCalls != 0 {
		t.Fatalf("unknown kinds must not write: updates=%d puts=%d", f.mock.UpdateCalls, f.mock.PutCalls)
	}
}

func TestProcess_MalformedPayload(t *testing.T) {
	f := newFixture()

	_, err := f.proc.Process(context.Background(), events.Event{
		EventID: "e1",
		Type:    "user.created",
		Data:    map[string]any{"email": "a@b.com"},
	})
	if !errors.Is(err, events.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if f.mock.Len("applied") != 0 {
		t.Fatalf("malformed event must not be marked applied")
	}

	_, err = f.proc.Process(context.Background(), events.Event{Type: "user.created"})
	if !errors.Is(err, events.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload for missing event_id, got %v", err)
	}
}

func TestProcess_StoreErrorsPropagate(t *testing.T) {
	f := newFixture()
	f.mock.UpdateErr = errors.New("throttled")

	_, err := f.proc.Process(context.Background(), events.Event{EventID: "e1", Type: "user_upsert", Data: map[string]any{"user_id": "u1"}})
	if err == nil {
		t.Fatal("expected mutation error")
	}
	if f.mock.Len("applied") != 0 {
		t.Fatalf("failed mutation must not be marked applied")
	}
}

// raceStore simulates another consumer recording the event between the
// duplicate check and the idempotency write.
type raceStore struct {
	markErr error
	marks   int
}

func (r *raceStore) IsApplied(ctx context.Context, eventID string) (bool, error) { return false, nil }
func (r *raceStore) MarkApplied(ctx context.Context, eventID string) error {
	r.marks++
	return r.markErr
}

func TestProcess_MarkAppliedErrorsAreSwallowed(t *testing.T) {
	for name, markErr := range map[string]error{
		"conflict":  fmt.Errorf("%w: e1", idempotency.ErrAlreadyApplied),
		"transient": errors.New("connection reset"),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			rs := &raceStore{markErr: markErr}
			reg := metrics.NewRegistry()
			proc := New(rs, f.entities, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithMetrics(reg))

			applied, err := proc.Process(context.Background(), events.Event{EventID: "e1", Type: "user.add", Data: map[string]any{"user_id": "u1"}})
			if err != nil || !applied {
				t.Fatalf("expected (true, nil), got (%v, %v)", applied, err)
			}
			if rs.marks != 1 {
				t.Fatalf("expected one mark attempt, got %d", rs.marks)
			}
			wantFailures := 0.0
			if name == "transient" {
				wantFailures = 1
			}
			if got := testutil.ToFloat64(reg.MarkAppliedFailures); got != wantFailures {
				t.Fatalf("mark failures = %v, want %v", got, wantFailures)
			}
		})
	}
}
