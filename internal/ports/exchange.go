package ports

import (
	"context"
	"time"
)

// Fill is a single execution reported by an exchange, already mapped
// onto journal order semantics.
type Fill struct {
	ExternalID string    // Exchange trade ID
	Symbol     string    // Trading symbol (e.g., "ETHUSDT")
	ExecutedAt time.Time // Execution time
	Type       string    // BUY, SELL, SELL_SHORT or BUY_TO_COVER
	Quantity   string    // Executed quantity as reported by the exchange
	Price      string    // Execution price as reported by the exchange
	Commission string    // Commission paid as reported by the exchange
}

// FillSource defines the interface for pulling executed fills from an exchange.
type FillSource interface {
	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)

	// ListFills returns the account's executions for a symbol since the given time,
	// oldest first.
	ListFills(ctx context.Context, symbol string, since time.Time) ([]*Fill, error)
}
