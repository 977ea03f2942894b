package app

import (
	"context"
	"fmt"
	"sync"

	"tradeLog/internal/domain"
	"tradeLog/internal/ports"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

// memState is the committed content of mockStore.
type memState struct {
	nextID   int64
	accounts map[int64]domain.Account
	trades   map[int64]domain.Trade
	orders   map[int64]domain.Order
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:   s.nextID,
		accounts: make(map[int64]domain.Account, len(s.accounts)),
		trades:   make(map[int64]domain.Trade, len(s.trades)),
		orders:   make(map[int64]domain.Order, len(s.orders)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.trades {
		c.trades[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

// mockStore is an in-memory ports.JournalStore and ports.Transactor.
// InTx works on a copy that replaces the committed state only on success.
type mockStore struct {
	mu    *sync.Mutex
	state *memState

	listErr error
	saveErr error

	saves int
}

func newMockStore() *mockStore {
	return &mockStore{
		mu: &sync.Mutex{},
		state: &memState{
			accounts: map[int64]domain.Account{},
			trades:   map[int64]domain.Trade{},
			orders:   map[int64]domain.Order{},
		},
	}
}

func (m *mockStore) InTx(ctx context.Context, fn func(store ports.JournalStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txStore := &mockStore{mu: &sync.Mutex{}, state: m.state.clone(), listErr: m.listErr, saveErr: m.saveErr}
	if err := fn(txStore); err != nil {
		return err
	}
	m.state = txStore.state
	m.saves += txStore.saves
	return nil
}

func (m *mockStore) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

func (m *mockStore) CreateAccount(ctx context.Context, acc *domain.Account) (int64, error) {
	acc.ID = m.id()
	m.state.accounts[acc.ID] = *acc
	return acc.ID, nil
}

func (m *mockStore) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	acc, ok := m.state.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *mockStore) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	trade.ID = m.id()
	m.state.trades[trade.ID] = *trade
	return trade.ID, nil
}

func (m *mockStore) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	t, ok := m.state.trades[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *mockStore) FindTradesByAccount(ctx context.Context, accountID int64) ([]*domain.Trade, error) {
	out := make([]*domain.Trade, 0)
	for _, t := range m.state.trades {
		if t.AccountID == accountID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m *mockStore) ListTradeIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(m.state.trades))
	for id := int64(1); id <= m.state.nextID; id++ {
		if _, ok := m.state.trades[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockStore) SaveSnapshot(ctx context.Context, tradeID int64, snap domain.TradeSnapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	t, ok := m.state.trades[tradeID]
	if !ok {
		return fmt.Errorf("trade %d: %w", tradeID, ports.ErrNotFound)
	}
	t.Snapshot = snap
	m.state.trades[tradeID] = t
	m.saves++
	return nil
}

func (m *mockStore) CreateOrder(ctx context.Context, o *domain.Order) (int64, error) {
	o.ID = m.id()
	m.state.orders[o.ID] = *o
	return o.ID, nil
}

func (m *mockStore) UpdateOrder(ctx context.Context, o *domain.Order) error {
	if _, ok := m.state.orders[o.ID]; !ok {
		return fmt.Errorf("order %d: %w", o.ID, ports.ErrNotFound)
	}
	m.state.orders[o.ID] = *o
	return nil
}

func (m *mockStore) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := m.state.orders[id]; !ok {
		return fmt.Errorf("order %d: %w", id, ports.ErrNotFound)
	}
	delete(m.state.orders, id)
	return nil
}

func (m *mockStore) FindOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, ok := m.state.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *mockStore) ListByTrade(ctx context.Context, tradeID int64) ([]*domain.Order, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Order, 0)
	for _, o := range m.state.orders {
		if o.TradeID == tradeID {
			o := o
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *mockStore) ExternalIDsByTrade(ctx context.Context, tradeID int64) (map[string]bool, error) {
	ids := map[string]bool{}
	for _, o := range m.state.orders {
		if o.TradeID == tradeID && o.ExternalID != "" {
			ids[o.ExternalID] = true
		}
	}
	return ids, nil
}
