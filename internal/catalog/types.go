package catalog

// Hash keys of the entity tables.
const (
	UserKey    = "user_id"
	ProductKey = "product_id"
)

// User is the item stored in the users table. Optional fields are nil when the
// last applied event did not carry them, or when the record was created by a delete.
type User struct {
	UserID      string  `dynamodbav:"user_id" json:"user_id"` // PK
	Email       *string `dynamodbav:"email" json:"email"`
	Name        *string `dynamodbav:"name" json:"name"`
	Status      string  `dynamodbav:"status,omitempty" json:"status,omitempty"`
	IsDeleted   bool    `dynamodbav:"is_deleted" json:"is_deleted"`
	UpdatedAt   *string `dynamodbav:"updated_at" json:"updated_at"`
	DeletedAt   *string `dynamodbav:"deleted_at" json:"deleted_at"`
	LastEventID string  `dynamodbav:"last_event_id" json:"last_event_id"`
}

// Product is the item stored in the products table.
type Product struct {
	ProductID   string  `dynamodbav:"product_id" json:"product_id"` // PK
	SKU         *string `dynamodbav:"sku" json:"sku"`
	Name        *string `dynamodbav:"name" json:"name"`
	Price       any     `dynamodbav:"price" json:"price"` // stored as received
	Currency    string  `dynamodbav:"currency,omitempty" json:"currency,omitempty"`
	Status      string  `dynamodbav:"status,omitempty" json:"status,omitempty"`
	IsDeleted   bool    `dynamodbav:"is_deleted" json:"is_deleted"`
	UpdatedAt   *string `dynamodbav:"updated_at" json:"updated_at"`
	DeletedAt   *string `dynamodbav:"deleted_at" json:"deleted_at"`
	LastEventID string  `dynamodbav:"last_event_id" json:"last_event_id"`
}
