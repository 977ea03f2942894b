package position

import (
	"fmt"

	"tradeLog/internal/domain"
)

// ValueOutstanding attributes a value to the quantity still open after the
// aggregation pass. It walks the same chronological orders with a remaining
// counter seeded from outstanding:
//
//   - SellShort while remaining > 0: value += n*price, remaining -= n
//   - Buy while remaining > 0:       value += n*price, remaining += n
//
// where n = min(order quantity, remaining). Each branch fires at most once per order.
// The Buy branch grows the counter rather than shrinking it.
// TODO: confirm with the journal owners whether Buy should decrement remaining.
func ValueOutstanding(orders []*domain.Order, outstanding int64) (domain.Money, error) {
	var value domain.Money
	remaining := outstanding

	for _, o := range orders {
		if remaining <= 0 {
			continue
		}
		switch o.Type {
		case domain.SellShort, domain.Buy:
		default:
			continue
		}

		n := min(o.Quantity, remaining)
		v, err := o.Price.MulQty(n)
		if err != nil {
			return 0, fmt.Errorf("order %d outstanding value: %w", o.ID, err)
		}
		if value, err = value.Add(v); err != nil {
			return 0, fmt.Errorf("order %d outstanding value: %w", o.ID, err)
		}

		if o.Type == domain.SellShort {
			remaining -= n
		} else if remaining, err = addQty(remaining, n); err != nil {
			return 0, fmt.Errorf("order %d outstanding counter: %w", o.ID, err)
		}
	}
	return value, nil
}
