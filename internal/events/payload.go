package events

import (
	"encoding/json"
	"fmt"
	"strconv"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Default values applied by upserts when the payload omits them.
const (
	DefaultStatus   = "ACTIVE"
	DefaultCurrency = "USD"
)

// Payload is the decoded, validated body of an event. Exactly one concrete type
// exists per canonical kind plus Passthrough for everything else.
type Payload interface {
	Kind() Kind
}

// UserUpsert replaces the listed user fields.
type UserUpsert struct {
	UserID    string `validate:"required"`
	Email     *string
	Name      *string
	Status    string
	IsDeleted bool
}

// UserDeleted soft-deletes a user.
type UserDeleted struct {
	UserID string `validate:"required"`
}

// ProductUpsert replaces the listed product fields. Price is kept as received.
type ProductUpsert struct {
	ProductID string `validate:"required"`
	SKU       *string
	Name      *string
	Price     any
	Currency  string
	Status    string
	IsDeleted bool
}

// ProductDeleted soft-deletes a product.
type ProductDeleted struct {
	ProductID string `validate:"required"`
}

// Passthrough carries an unrecognized kind; it never mutates anything.
type Passthrough struct {
	Raw Kind
}

func (UserUpsert) Kind() Kind     { return KindUserUpsert }
func (UserDeleted) Kind() Kind    { return KindUserDeleted }
func (ProductUpsert) Kind() Kind  { return KindProductUpsert }
func (ProductDeleted) Kind() Kind { return KindProductDeleted }
func (p Passthrough) Kind() Kind  { return p.Raw }

var validate = validatorv10.New()

// DecodePayload builds the typed payload for kind from the raw event data.
// Missing identifier fields yield an error wrapping ErrMalformedPayload.
func DecodePayload(kind Kind, data map[string]any) (Payload, error) {
	var p Payload
	switch kind {
	case KindUserUpsert:
		p = UserUpsert{
			UserID:    idField(data, "user_id"),
			Email:     optionalString(data, "email"),
			Name:      optionalString(data, "name"),
			Status:    stringOr(data, "status", DefaultStatus),
			IsDeleted: boolField(data, "is_deleted"),
		}
	case KindUserDeleted:
		p = UserDeleted{UserID: idField(data, "user_id")}
	case KindProductUpsert:
		p = ProductUpsert{
			ProductID: idField(data, "product_id"),
			SKU:       optionalString(data, "sku"),
			Name:      optionalString(data, "name"),
			Price:     data["price"],
			Currency:  stringOr(data, "currency", DefaultCurrency),
			Status:    stringOr(data, "status", DefaultStatus),
			IsDeleted: boolField(data, "is_deleted"),
		}
	case KindProductDeleted:
		p = ProductDeleted{ProductID: idField(data, "product_id")}
	default:
		return Passthrough{Raw: kind}, nil
	}

	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, kind, err)
	}
	return p, nil
}

// idField accepts string and numeric identifiers; anything else is treated as absent.
func idField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func optionalString(data map[string]any, key string) *string {
	switch v := data[key].(type) {
	case string:
		return &v
	case nil:
		return nil
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

func stringOr(data map[string]any, key, def string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return def
}

func boolField(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}
