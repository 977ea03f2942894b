package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradeLog/internal/domain"
	"tradeLog/internal/ports"
	"tradeLog/internal/position"
)

// JournalService keeps each trade's computed fields in sync with its orders.
// Every order mutation runs as mutate -> load all orders -> compute -> save,
// inside one transaction and under a per-trade lock.
type JournalService struct {
	logger ports.Logger
	store  ports.JournalStore
	tx     ports.Transactor
	locks  *tradeLocks
	now    func() time.Time
}

// NewJournalService creates a new journal service instance.
func NewJournalService(logger ports.Logger, store ports.JournalStore, tx ports.Transactor) (*JournalService, error) {
	if logger == nil || store == nil || tx == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService")
	}
	return &JournalService{
		logger: logger,
		store:  store,
		tx:     tx,
		locks:  newTradeLocks(),
		now:    time.Now,
	}, nil
}

// withOperation tags ctx with a fresh operation ID unless it already carries one.
func withOperation(ctx context.Context) context.Context {
	if ports.OperationID(ctx) != "" {
		return ctx
	}
	return ports.WithOperationID(ctx, uuid.NewString())
}

// CreateAccount registers a new account for a user.
func (s *JournalService) CreateAccount(ctx context.Context, userID int64, name string) (*domain.Account, error) {
	ctx = withOperation(ctx)
	acc := &domain.Account{UserID: userID, Name: name, CreatedAt: s.now()}
	if err := acc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	if _, err := s.store.CreateAccount(ctx, acc); err != nil {
		s.logger.Error(ctx, err, "Failed to create account", map[string]interface{}{"userID": userID})
		return nil, err
	}
	s.logger.Info(ctx, "Account created", map[string]interface{}{"accountID": acc.ID, "userID": userID})
	return acc, nil
}

// OpenTrade stores a new trade owned by the actor with zeroed computed fields.
func (s *JournalService) OpenTrade(ctx context.Context, actor domain.Actor, trade *domain.Trade) (*domain.Trade, error) {
	ctx = withOperation(ctx)
	now := s.now()
	trade.AccountID = actor.AccountID
	trade.CreatedAt = now
	trade.Snapshot = domain.EmptySnapshot(now)
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}

	acc, err := s.store.FindAccountByID(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("account %d: %w", actor.AccountID, ports.ErrNotFound)
	}

	if _, err := s.store.CreateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to open trade", map[string]interface{}{"symbol": trade.Symbol})
		return nil, err
	}
	s.logger.Info(ctx, "Trade opened", map[string]interface{}{"tradeID": trade.ID, "symbol": trade.Symbol, "accountID": trade.AccountID})
	return trade, nil
}

// Trade returns one of the actor's trades.
func (s *JournalService) Trade(ctx context.Context, actor domain.Actor, tradeID int64) (*domain.Trade, error) {
	trade, err := s.store.FindTradeByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if err := checkTradeOwner(trade, tradeID, actor); err != nil {
		return nil, err
	}
	return trade, nil
}

// Trades returns all of the actor's trades, most recently active first.
func (s *JournalService) Trades(ctx context.Context, actor domain.Actor) ([]*domain.Trade, error) {
	return s.store.FindTradesByAccount(ctx, actor.AccountID)
}

// Orders returns the orders of one of the actor's trades in chronological order.
func (s *JournalService) Orders(ctx context.Context, actor domain.Actor, tradeID int64) ([]*domain.Order, error) {
	if _, err := s.Trade(ctx, actor, tradeID); err != nil {
		return nil, err
	}
	orders, err := s.store.ListByTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return position.Chronological(orders), nil
}

// AddOrder records a new execution and returns the trade's refreshed snapshot.
func (s *JournalService) AddOrder(ctx context.Context, actor domain.Actor, order *domain.Order) (*domain.TradeSnapshot, error) {
	ctx = withOperation(ctx)
	order.ID = 0
	order.AccountID = actor.AccountID
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}

	unlock := s.locks.lock(order.TradeID)
	defer unlock()

	var snap domain.TradeSnapshot
	err := s.tx.InTx(ctx, func(store ports.JournalStore) error {
		trade, err := store.FindTradeByID(ctx, order.TradeID)
		if err != nil {
			return err
		}
		if err := checkTradeOwner(trade, order.TradeID, actor); err != nil {
			return err
		}
		if _, err := store.CreateOrder(ctx, order); err != nil {
			return err
		}
		snap, err = s.recomputeIn(ctx, store, order.TradeID)
		return err
	})
	if err != nil {
		order.ID = 0 // the insert was rolled back
		s.logger.Error(ctx, err, "Failed to add order", map[string]interface{}{"tradeID": order.TradeID, "type": order.Type})
		return nil, err
	}
	s.logger.Info(ctx, "Order added", map[string]interface{}{
		"tradeID": order.TradeID, "orderID": order.ID, "type": order.Type, "quantity": order.Quantity,
	})
	return &snap, nil
}

// EditOrder changes the editable fields of an order and returns the refreshed snapshot.
func (s *JournalService) EditOrder(ctx context.Context, actor domain.Actor, orderID int64, edit domain.OrderEdit) (*domain.TradeSnapshot, error) {
	ctx = withOperation(ctx)
	if edit.IsEmpty() {
		return nil, fmt.Errorf("%w: empty order edit", ports.ErrInvalidRequest)
	}

	var snap domain.TradeSnapshot
	err := s.withOrderTrade(ctx, actor, orderID, func(store ports.JournalStore, current *domain.Order) error {
		edited := edit.Apply(*current)
		if err := edited.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
		if err := store.UpdateOrder(ctx, &edited); err != nil {
			return err
		}
		var err error
		snap, err = s.recomputeIn(ctx, store, current.TradeID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to edit order", map[string]interface{}{"orderID": orderID})
		return nil, err
	}
	s.logger.Info(ctx, "Order edited", map[string]interface{}{"orderID": orderID})
	return &snap, nil
}

// DeleteOrder removes an order and returns the refreshed snapshot.
func (s *JournalService) DeleteOrder(ctx context.Context, actor domain.Actor, orderID int64) (*domain.TradeSnapshot, error) {
	ctx = withOperation(ctx)

	var snap domain.TradeSnapshot
	err := s.withOrderTrade(ctx, actor, orderID, func(store ports.JournalStore, current *domain.Order) error {
		if err := store.DeleteOrder(ctx, current.ID); err != nil {
			return err
		}
		var err error
		snap, err = s.recomputeIn(ctx, store, current.TradeID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to delete order", map[string]interface{}{"orderID": orderID})
		return nil, err
	}
	s.logger.Info(ctx, "Order deleted", map[string]interface{}{"orderID": orderID})
	return &snap, nil
}

// withOrderTrade locks the trade owning orderID and runs fn in a transaction
// with the current, ownership-checked order.
func (s *JournalService) withOrderTrade(ctx context.Context, actor domain.Actor, orderID int64, fn func(store ports.JournalStore, current *domain.Order) error) error {
	existing, err := s.store.FindOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("order %d: %w", orderID, ports.ErrNotFound)
	}

	unlock := s.locks.lock(existing.TradeID)
	defer unlock()

	return s.tx.InTx(ctx, func(store ports.JournalStore) error {
		current, err := store.FindOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("order %d: %w", orderID, ports.ErrNotFound)
		}
		if current.AccountID != actor.AccountID {
			return fmt.Errorf("order %d: %w", orderID, ports.ErrPermissionDenied)
		}
		return fn(store, current)
	})
}

// Recompute rebuilds and persists the computed fields of a trade from its orders.
func (s *JournalService) Recompute(ctx context.Context, tradeID int64) (*domain.TradeSnapshot, error) {
	ctx = withOperation(ctx)
	unlock := s.locks.lock(tradeID)
	defer unlock()

	var snap domain.TradeSnapshot
	err := s.tx.InTx(ctx, func(store ports.JournalStore) error {
		var err error
		snap, err = s.recomputeIn(ctx, store, tradeID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, err, "Recompute failed", map[string]interface{}{"tradeID": tradeID})
		return nil, err
	}
	return &snap, nil
}

// RecomputeAll recomputes every trade. A failing trade does not stop the
// others; all failures are returned together.
func (s *JournalService) RecomputeAll(ctx context.Context) error {
	ctx = withOperation(ctx)
	ids, err := s.store.ListTradeIDs(ctx)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ports.ErrContextCanceled, err))
			break
		}
		if _, err := s.Recompute(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("trade %d: %w", id, err))
		}
	}
	s.logger.Info(ctx, "Recomputed all trades", map[string]interface{}{"trades": len(ids), "failed": len(errs)})
	return errors.Join(errs...)
}

// recomputeIn runs the position engine for tradeID against store and saves the result.
func (s *JournalService) recomputeIn(ctx context.Context, store ports.JournalStore, tradeID int64) (domain.TradeSnapshot, error) {
	trade, err := store.FindTradeByID(ctx, tradeID)
	if err != nil {
		return domain.TradeSnapshot{}, err
	}
	if trade == nil {
		return domain.TradeSnapshot{}, fmt.Errorf("trade %d: %w", tradeID, ports.ErrNotFound)
	}

	orders, err := store.ListByTrade(ctx, tradeID)
	if err != nil {
		return domain.TradeSnapshot{}, fmt.Errorf("load orders of trade %d: %w", tradeID, err)
	}

	snap, err := position.Compute(orders, s.now())
	if err != nil {
		return domain.TradeSnapshot{}, fmt.Errorf("compute trade %d: %w", tradeID, err)
	}

	if err := store.SaveSnapshot(ctx, tradeID, snap); err != nil {
		return domain.TradeSnapshot{}, fmt.Errorf("save snapshot of trade %d: %w", tradeID, err)
	}
	s.logger.Debug(ctx, "Trade recomputed", map[string]interface{}{
		"tradeID":             tradeID,
		"orders":              snap.OrdersCount,
		"profit":              snap.Profit.String(),
		"quantityOutstanding": snap.QuantityOutstanding,
	})
	return snap, nil
}

func checkTradeOwner(trade *domain.Trade, tradeID int64, actor domain.Actor) error {
	if trade == nil {
		return fmt.Errorf("trade %d: %w", tradeID, ports.ErrNotFound)
	}
	if trade.AccountID != actor.AccountID {
		return fmt.Errorf("trade %d: %w", tradeID, ports.ErrPermissionDenied)
	}
	return nil
}
