package domain

import "time"

// TradeSnapshot holds the analytics derived from a trade's orders.
// It is a pure function of the order set and is only produced by the position engine.
type TradeSnapshot struct {
	FirstOrderDate      time.Time // Execution time of the chronologically first order
	LastOrderDate       time.Time // Execution time of the chronologically last order
	Commissions         Money     // Sum of all commissions
	IsShort             bool      // Direction of the last processed order
	AvgBuyPrice         Money     // Mean price of Buy/BuyToCover executions
	AvgSellPrice        Money     // Mean price of Sell/SellShort executions
	Profit              Money     // Realized cash flow plus outstanding valuation
	Quantity            int64     // Units opened (Buy + SellShort)
	QuantityOutstanding int64     // Net units still open (buy-class minus sell-class)
	OrdersCount         int       // Number of orders folded
}

// EmptySnapshot returns the zeroed snapshot of a trade without orders.
func EmptySnapshot(now time.Time) TradeSnapshot {
	return TradeSnapshot{FirstOrderDate: now, LastOrderDate: now}
}

// Trade is a user-defined trading idea tracked across zero or more orders.
type Trade struct {
	ID           int64  // Unique identifier (assigned by the repository)
	AccountID    int64  `validate:"gt=0"`
	Symbol       string `validate:"required,max=24"`
	TargetEntry  Money  `validate:"gte=0"` // Planned entry price
	TargetProfit Money  `validate:"gte=0"` // Planned profit-taking price
	TargetStop   Money  `validate:"gte=0"` // Planned stop price
	EntryReason  string `validate:"max=2000"`
	ExitReason   string `validate:"max=2000"`
	CreatedAt    time.Time

	// Snapshot is written exclusively by recomputation.
	Snapshot TradeSnapshot
}

// Validate checks the user-authored fields of the trade.
func (t *Trade) Validate() error {
	return validateStruct(t)
}
