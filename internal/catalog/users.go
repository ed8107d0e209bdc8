package catalog

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
)

// UpsertUser replaces the user's listed fields, creating the user if needed.
func (s *Store) UpsertUser(ctx context.Context, u events.UserUpsert, eventID, occurredAt string) error {
	err := s.setFields(ctx, s.usersTable, UserKey, u.UserID, []field{
		{"email", u.Email},
		{"name", u.Name},
		{"status", u.Status},
		{"is_deleted", u.IsDeleted},
		{"updated_at", optional(occurredAt)},
		{"last_event_id", eventID},
	})
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.UserID, err)
	}
	return nil
}

// SoftDeleteUser flags the user as deleted. Other fields are left untouched;
// an unknown user gets a minimal record holding only the deletion metadata.
func (s *Store) SoftDeleteUser(ctx context.Context, userID, eventID, occurredAt string) error {
	if err := s.setFields(ctx, s.usersTable, UserKey, userID, softDeleteFields(eventID, occurredAt)); err != nil {
		return fmt.Errorf("soft delete user %s: %w", userID, err)
	}
	return nil
}

// GetUser returns the user or (nil, nil) if it does not exist. Deleted users are returned.
func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	return getItem[User](ctx, s.client, s.usersTable, UserKey, userID)
}

// ListUsers returns up to limit users that are not soft-deleted.
func (s *Store) ListUsers(ctx context.Context, limit int) ([]User, error) {
	return listActive[User](ctx, s.client, s.usersTable, limit)
}
