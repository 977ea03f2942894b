// Package position derives a trade's analytics from its order executions.
//
// The computation runs in three steps: Chronological orders the executions,
// Aggregate folds them into running totals, and ValueOutstanding values the
// still-open quantity. Compute chains the three. Everything here is pure: no
// I/O, no shared state, and no mutation of the caller's orders.
package position

import (
	"fmt"
	"time"

	"tradeLog/internal/domain"
)

// Compute produces the snapshot of a trade from its full order set, given in any order.
// now is used as the first/last order date when there are no orders.
func Compute(orders []*domain.Order, now time.Time) (domain.TradeSnapshot, error) {
	sorted := Chronological(orders)

	totals, err := Aggregate(sorted, now)
	if err != nil {
		return domain.TradeSnapshot{}, fmt.Errorf("aggregate orders: %w", err)
	}

	outstandingValue, err := ValueOutstanding(sorted, totals.QuantityOutstanding)
	if err != nil {
		return domain.TradeSnapshot{}, fmt.Errorf("value outstanding quantity: %w", err)
	}

	profit, err := totals.CashFlow.Add(outstandingValue)
	if err != nil {
		return domain.TradeSnapshot{}, fmt.Errorf("profit: %w", err)
	}

	return domain.TradeSnapshot{
		FirstOrderDate:      totals.FirstOrderDate,
		LastOrderDate:       totals.LastOrderDate,
		Commissions:         totals.Commissions,
		IsShort:             totals.IsShort,
		AvgBuyPrice:         totals.AvgBuyPrice,
		AvgSellPrice:        totals.AvgSellPrice,
		Profit:              profit,
		Quantity:            totals.Quantity,
		QuantityOutstanding: totals.QuantityOutstanding,
		OrdersCount:         totals.OrdersCount,
	}, nil
}
