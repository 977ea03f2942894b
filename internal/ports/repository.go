package ports

import (
	"context"

	"tradeLog/internal/domain"
)

// AccountRepository defines the interface for storing and retrieving accounts.
type AccountRepository interface {
	// CreateAccount saves a new account and returns its assigned ID.
	CreateAccount(ctx context.Context, acc *domain.Account) (int64, error)
	// FindAccountByID retrieves an account by its unique ID.
	// Returns nil, nil if not found.
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)
}

// TradeRepository defines the interface for storing and retrieving trades.
type TradeRepository interface {
	// CreateTrade saves a new trade, including its initial snapshot, and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindTradeByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error)
	// FindTradesByAccount retrieves the trades of an account, most recently active first.
	FindTradesByAccount(ctx context.Context, accountID int64) ([]*domain.Trade, error)
	// ListTradeIDs returns the IDs of every trade.
	ListTradeIDs(ctx context.Context) ([]int64, error)
	// SaveSnapshot replaces the computed fields of a trade.
	// Returns ErrNotFound if the trade does not exist.
	SaveSnapshot(ctx context.Context, tradeID int64, snap domain.TradeSnapshot) error
}

// OrderRepository defines the interface for storing and retrieving order executions.
type OrderRepository interface {
	// CreateOrder saves a new order and returns its assigned ID.
	CreateOrder(ctx context.Context, order *domain.Order) (int64, error)
	// UpdateOrder modifies the editable fields of an existing order.
	UpdateOrder(ctx context.Context, order *domain.Order) error
	// DeleteOrder removes an order. Returns ErrNotFound if it does not exist.
	DeleteOrder(ctx context.Context, id int64) error
	// FindOrderByID retrieves an order by its unique ID.
	// Returns nil, nil if not found.
	FindOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	// ListByTrade retrieves every order of a trade in no particular order.
	ListByTrade(ctx context.Context, tradeID int64) ([]*domain.Order, error)
	// ExternalIDsByTrade returns the exchange fill IDs already imported into a trade.
	ExternalIDsByTrade(ctx context.Context, tradeID int64) (map[string]bool, error)
}

// JournalStore groups the repositories touched by one journal operation.
type JournalStore interface {
	AccountRepository
	TradeRepository
	OrderRepository
}

// Transactor runs fn against a JournalStore bound to a single transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(store JournalStore) error) error
}
