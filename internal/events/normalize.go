package events

import "strings"

var aliases = map[string]Kind{
	"user_upsert":     KindUserUpsert,
	"user.created":    KindUserUpsert,
	"user.updated":    KindUserUpsert,
	"user.add":        KindUserUpsert,
	"user_deleted":    KindUserDeleted,
	"user.remove":     KindUserDeleted,
	"product_upsert":  KindProductUpsert,
	"product.created": KindProductUpsert,
	"product.updated": KindProductUpsert,
	"product.add":     KindProductUpsert,
	"product_deleted": KindProductDeleted,
	"product.remove":  KindProductDeleted,
}

// Normalize maps a free-form event type to its canonical Kind.
// Empty input yields KindUnknown; an unmatched type is returned trimmed and uppercased.
func Normalize(raw string) Kind {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return KindUnknown
	}
	if k, ok := aliases[strings.ToLower(trimmed)]; ok {
		return k
	}
	return Kind(strings.ToUpper(trimmed))
}
