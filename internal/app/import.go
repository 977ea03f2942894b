package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tradeLog/internal/domain"
	"tradeLog/internal/ports"
)

// ImportResult summarizes a fill import.
type ImportResult struct {
	Imported int
	Skipped  int // Fills already present in the trade
	Snapshot domain.TradeSnapshot
}

// ImportFills adds exchange executions to a trade in one transaction and
// recomputes the trade once. Fills whose ExternalID is already recorded are skipped.
func (s *JournalService) ImportFills(ctx context.Context, actor domain.Actor, tradeID int64, fills []*ports.Fill) (*ImportResult, error) {
	ctx = withOperation(ctx)

	orders := make([]*domain.Order, 0, len(fills))
	for _, f := range fills {
		o, err := fillToOrder(f, actor, tradeID)
		if err != nil {
			return nil, fmt.Errorf("%w: fill %s: %w", ports.ErrInvalidRequest, f.ExternalID, err)
		}
		orders = append(orders, o)
	}

	unlock := s.locks.lock(tradeID)
	defer unlock()

	res := &ImportResult{}
	err := s.tx.InTx(ctx, func(store ports.JournalStore) error {
		trade, err := store.FindTradeByID(ctx, tradeID)
		if err != nil {
			return err
		}
		if err := checkTradeOwner(trade, tradeID, actor); err != nil {
			return err
		}
		seen, err := store.ExternalIDsByTrade(ctx, tradeID)
		if err != nil {
			return err
		}

		for _, o := range orders {
			if o.ExternalID != "" && seen[o.ExternalID] {
				res.Skipped++
				continue
			}
			if _, err := store.CreateOrder(ctx, o); err != nil {
				return err
			}
			seen[o.ExternalID] = true
			res.Imported++
		}

		res.Snapshot, err = s.recomputeIn(ctx, store, tradeID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, err, "Fill import failed", map[string]interface{}{"tradeID": tradeID, "fills": len(fills)})
		return nil, err
	}
	s.logger.Info(ctx, "Fills imported", map[string]interface{}{
		"tradeID": tradeID, "imported": res.Imported, "skipped": res.Skipped,
	})
	return res, nil
}

// fillToOrder converts an exchange fill into a validated order.
// Quantities must be whole units and prices must fit the money scale exactly;
// commissions are rounded to the money scale. A negative commission is a maker
// rebate, not a cost, so it is recorded as zero.
func fillToOrder(f *ports.Fill, actor domain.Actor, tradeID int64) (*domain.Order, error) {
	typ, err := domain.ParseOrderType(f.Type)
	if err != nil {
		return nil, err
	}

	qty, err := decimal.NewFromString(f.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", f.Quantity, err)
	}
	if !qty.IsInteger() || !qty.BigInt().IsInt64() {
		return nil, fmt.Errorf("quantity %s is not a whole number of units", f.Quantity)
	}

	price, err := domain.ParseMoney(f.Price)
	if err != nil {
		return nil, err
	}

	commission := domain.Money(0)
	if f.Commission != "" {
		c, err := decimal.NewFromString(f.Commission)
		if err != nil {
			return nil, fmt.Errorf("invalid commission %q: %w", f.Commission, err)
		}
		if c.IsPositive() {
			if commission, err = domain.MoneyFromDecimal(c.Round(5)); err != nil {
				return nil, err
			}
		}
	}

	o := &domain.Order{
		TradeID:    tradeID,
		AccountID:  actor.AccountID,
		ExecutedAt: f.ExecutedAt,
		Type:       typ,
		Quantity:   qty.IntPart(),
		Price:      price,
		Commission: commission,
		ExternalID: f.ExternalID,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
