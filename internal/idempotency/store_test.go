package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws/awstest"
)

const table = "applied-events"

func newTestStore() (*Store, *awstest.Dynamo) {
	mock := awstest.NewDynamo()
	mock.CreateTable(table, KeyAttribute)
	s := NewStore(mock, table)
	s.nowFunc = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestMarkApplied_ThenIsApplied(t *testing.T) {
	s, mock := newTestStore()
	ctx := context.Background()

	applied, err := s.IsApplied(ctx, "e1")
	if err != nil {
		t.Fatalf("IsApplied error: %v", err)
	}
	if applied {
		t.Fatalf("expected e1 not applied yet")
	}

	if err := s.MarkApplied(ctx, "e1"); err != nil {
		t.Fatalf("MarkApplied error: %v", err)
	}

	applied, err = s.IsApplied(ctx, "e1")
	if err != nil {
		t.Fatalf("IsApplied error: %v", err)
	}
	if !applied {
		t.Fatalf("expected e1 applied")
	}

	rec, err := s.Get(ctx, "e1")
	if err != nil || rec == nil {
		t.Fatalf("Get: rec=%v err=%v", rec, err)
	}
	if !rec.AppliedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected applied_at %v", rec.AppliedAt)
	}
	if _, ok := mock.Item(table, "e1")["applied_at"].(*types.AttributeValueMemberS); !ok {
		t.Fatalf("applied_at not stored as string")
	}
}

func TestMarkApplied_DuplicateIsAlreadyApplied(t *testing.T) {
	s, mock := newTestStore()
	ctx := context.Background()

	if err := s.MarkApplied(ctx, "e1"); err != nil {
		t.Fatalf("first MarkApplied error: %v", err)
	}
	err := s.MarkApplied(ctx, "e1")
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	if mock.Len(table) != 1 {
		t.Fatalf("expected exactly one record, got %d", mock.Len(table))
	}
}

func TestMarkApplied_StorageFailureIsNotAlreadyApplied(t *testing.T) {
	s, mock := newTestStore()
	mock.PutErr = errors.New("throttled")

	err := s.MarkApplied(context.Background(), "e1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("storage failure must not be classified as already applied: %v", err)
	}
}

func TestIsApplied_PropagatesErrors(t *testing.T) {
	s, mock := newTestStore()
	mock.GetErr = errors.New("connection reset")

	if _, err := s.IsApplied(context.Background(), "e1"); err == nil {
		t.Fatal("expected error")
	}
}
