package domain

import "time"

// Order is a single recorded execution (fill) against a trade.
type Order struct {
	ID         int64     // Unique identifier (assigned by the repository)
	TradeID    int64     `validate:"gt=0"`
	AccountID  int64     `validate:"gt=0"`
	ExecutedAt time.Time `validate:"required"` // Execution time, timezone-qualified
	Type       OrderType `validate:"oneof=BUY SELL SELL_SHORT BUY_TO_COVER"`
	Quantity   int64     `validate:"gt=0"`   // Number of units
	Price      Money     `validate:"gte=0"`  // Price per unit
	Commission Money     `validate:"gte=0"`  // Total commission paid for the execution
	ExternalID string    `validate:"max=64"` // Exchange fill id for imported executions (optional)
}

// Validate checks the order before it is accepted into the journal.
func (o *Order) Validate() error {
	return validateStruct(o)
}

// OrderEdit holds the user-editable fields of an order. Nil fields are left unchanged.
type OrderEdit struct {
	ExecutedAt *time.Time
	Type       *OrderType
	Quantity   *int64
	Price      *Money
	Commission *Money
}

// Apply returns a copy of o with the edit applied.
func (e OrderEdit) Apply(o Order) Order {
	if e.ExecutedAt != nil {
		o.ExecutedAt = *e.ExecutedAt
	}
	if e.Type != nil {
		o.Type = *e.Type
	}
	if e.Quantity != nil {
		o.Quantity = *e.Quantity
	}
	if e.Price != nil {
		o.Price = *e.Price
	}
	if e.Commission != nil {
		o.Commission = *e.Commission
	}
	return o
}

// IsEmpty reports whether the edit changes nothing.
func (e OrderEdit) IsEmpty() bool {
	return e.ExecutedAt == nil && e.Type == nil && e.Quantity == nil && e.Price == nil && e.Commission == nil
}
