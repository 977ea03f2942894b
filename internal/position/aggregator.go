package position

import (
	"fmt"
	"time"

	"tradeLog/internal/domain"
)

// Totals is the result of the aggregation pass.
type Totals struct {
	FirstOrderDate      time.Time
	LastOrderDate       time.Time
	Commissions         domain.Money
	IsShort             bool
	AvgBuyPrice         domain.Money
	AvgSellPrice        domain.Money
	CashFlow            domain.Money // Proceeds of sell-class minus cost of buy-class executions
	Quantity            int64
	QuantityOutstanding int64
	OrdersCount         int
}

// priceBucket accumulates the prices of one side for the mean price.
type priceBucket struct {
	sum   domain.Money
	count int
}

func (b *priceBucket) add(p domain.Money) error {
	sum, err := b.sum.Add(p)
	if err != nil {
		return err
	}
	b.sum = sum
	b.count++
	return nil
}

func (b *priceBucket) mean() domain.Money {
	return b.sum.DivCount(b.count)
}

// Aggregate folds chronologically ordered orders into running totals.
// now is used for both dates when there are no orders.
func Aggregate(orders []*domain.Order, now time.Time) (Totals, error) {
	t := Totals{FirstOrderDate: now, LastOrderDate: now}
	var buys, sells priceBucket

	for i, o := range orders {
		if !o.Type.Valid() {
			return Totals{}, fmt.Errorf("order %d: %w: %q", o.ID, domain.ErrInvalidOrderType, o.Type)
		}
		if i == 0 {
			t.FirstOrderDate = o.ExecutedAt
		}
		t.LastOrderDate = o.ExecutedAt

		var err error
		if t.Commissions, err = t.Commissions.Add(o.Commission); err != nil {
			return Totals{}, fmt.Errorf("order %d commissions: %w", o.ID, err)
		}

		if o.Type.IsOpening() {
			if t.Quantity, err = addQty(t.Quantity, o.Quantity); err != nil {
				return Totals{}, fmt.Errorf("order %d quantity: %w", o.ID, err)
			}
		}

		notional, err := o.Price.MulQty(o.Quantity)
		if err != nil {
			return Totals{}, fmt.Errorf("order %d notional: %w", o.ID, err)
		}

		if o.Type.IsBuyClass() {
			if err := buys.add(o.Price); err != nil {
				return Totals{}, fmt.Errorf("order %d buy prices: %w", o.ID, err)
			}
			if t.QuantityOutstanding, err = addQty(t.QuantityOutstanding, o.Quantity); err != nil {
				return Totals{}, fmt.Errorf("order %d outstanding: %w", o.ID, err)
			}
			if t.CashFlow, err = t.CashFlow.Sub(notional); err != nil {
				return Totals{}, fmt.Errorf("order %d profit: %w", o.ID, err)
			}
		} else {
			if err := sells.add(o.Price); err != nil {
				return Totals{}, fmt.Errorf("order %d sell prices: %w", o.ID, err)
			}
			if t.QuantityOutstanding, err = addQty(t.QuantityOutstanding, -o.Quantity); err != nil {
				return Totals{}, fmt.Errorf("order %d outstanding: %w", o.ID, err)
			}
			if t.CashFlow, err = t.CashFlow.Add(notional); err != nil {
				return Totals{}, fmt.Errorf("order %d profit: %w", o.ID, err)
			}
		}

		// Direction follows the last order, not the net position.
		t.IsShort = o.Type.IsShortSide()
		t.OrdersCount++
	}

	t.AvgBuyPrice = buys.mean()
	t.AvgSellPrice = sells.mean()
	return t, nil
}

// addQty adds unit counts, failing instead of wrapping.
func addQty(a, b int64) (int64, error) {
	sum, err := domain.Money(a).Add(domain.Money(b))
	return int64(sum), err
}
