package catalog

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
)

// UpsertProduct replaces the product's listed fields, creating the product if needed.
func (s *Store) UpsertProduct(ctx context.Context, p events.ProductUpsert, eventID, occurredAt string) error {
	err := s.setFields(ctx, s.productsTable, ProductKey, p.ProductID, []field{
		{"sku", p.SKU},
		{"name", p.Name},
		{"price", p.Price},
		{"currency", p.Currency},
		{"status", p.Status},
		{"is_deleted", p.IsDeleted},
		{"updated_at", optional(occurredAt)},
		{"last_event_id", eventID},
	})
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ProductID, err)
	}
	return nil
}

// SoftDeleteProduct flags the product as deleted, leaving price and the rest untouched.
func (s *Store) SoftDeleteProduct(ctx context.Context, productID, eventID, occurredAt string) error {
	if err := s.setFields(ctx, s.productsTable, ProductKey, productID, softDeleteFields(eventID, occurredAt)); err != nil {
		return fmt.Errorf("soft delete product %s: %w", productID, err)
	}
	return nil
}

// GetProduct returns the product or (nil, nil) if it does not exist.
func (s *Store) GetProduct(ctx context.Context, productID string) (*Product, error) {
	return getItem[Product](ctx, s.client, s.productsTable, ProductKey, productID)
}

// ListProducts returns up to limit products that are not soft-deleted.
func (s *Store) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	return listActive[Product](ctx, s.client, s.productsTable, limit)
}
