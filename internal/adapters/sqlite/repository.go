package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver

	"tradeLog/internal/domain"
	"tradeLog/internal/ports"
)

// timeLayout keeps the UTC offset so execution times stay timezone-qualified.
const timeLayout = time.RFC3339Nano

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository implements ports.JournalStore and ports.Transactor using SQLite.
type Repository struct {
	db     *sql.DB
	q      querier
	logger ports.Logger
}

var (
	_ ports.JournalStore = (*Repository)(nil)
	_ ports.Transactor   = (*Repository)(nil)
)

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradelog.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection serializes writers; transactions never wait on each other inside the driver.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, q: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// Money columns hold integers scaled by domain.MoneyScale.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		symbol TEXT NOT NULL,
		target_entry INTEGER NOT NULL DEFAULT 0,
		target_profit INTEGER NOT NULL DEFAULT 0,
		target_stop INTEGER NOT NULL DEFAULT 0,
		entry_reason TEXT NOT NULL DEFAULT '',
		exit_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		first_order_date TEXT NOT NULL,
		last_order_date TEXT NOT NULL,
		commissions INTEGER NOT NULL DEFAULT 0,
		is_short INTEGER NOT NULL DEFAULT 0,
		avg_buy_price INTEGER NOT NULL DEFAULT 0,
		avg_sell_price INTEGER NOT NULL DEFAULT 0,
		profit INTEGER NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 0,
		quantity_outstanding INTEGER NOT NULL DEFAULT 0,
		orders_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		executed_at TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('BUY', 'SELL', 'SELL_SHORT', 'BUY_TO_COVER')),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price INTEGER NOT NULL,
		commission INTEGER NOT NULL DEFAULT 0,
		external_id TEXT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_account ON trades (account_id);
	CREATE INDEX IF NOT EXISTS idx_orders_trade ON orders (trade_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_trade_external
		ON orders (trade_id, external_id) WHERE external_id IS NOT NULL;
	`
	_, err := r.q.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// InTx runs fn inside a single transaction. Nothing fn wrote survives an error.
func (r *Repository) InTx(ctx context.Context, fn func(store ports.JournalStore) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrDBConnection, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error(ctx, rbErr, "Transaction rollback failed")
			}
		}
	}()

	if err = fn(&Repository{db: r.db, q: tx, logger: r.logger}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	return nil
}

// --- AccountRepository Implementation ---

// CreateAccount saves a new account and returns its assigned ID.
func (r *Repository) CreateAccount(ctx context.Context, acc *domain.Account) (int64, error) {
	const query = `INSERT INTO accounts (user_id, name, created_at) VALUES (?, ?, ?)`

	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now()
	}
	result, err := r.q.ExecContext(ctx, query, acc.UserID, acc.Name, formatTime(acc.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert account %q: %w", acc.Name, mapWriteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for account %q: %w", acc.Name, err)
	}
	acc.ID = id
	r.logger.Debug(ctx, "Account created", map[string]interface{}{"accountID": id})
	return id, nil
}

// FindAccountByID retrieves an account by its unique ID.
func (r *Repository) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = `SELECT id, user_id, name, created_at FROM accounts WHERE id = ?`

	acc := &domain.Account{}
	var createdAt string
	err := r.q.QueryRowContext(ctx, query, id).Scan(&acc.ID, &acc.UserID, &acc.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query account ID %d: %w: %w", id, ports.ErrQueryFailed, err)
	}
	if acc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("account ID %d: %w", id, err)
	}
	return acc, nil
}

// --- TradeRepository Implementation ---

const tradeColumns = `id, account_id, symbol, target_entry, target_profit, target_stop,
	entry_reason, exit_reason, created_at, first_order_date, last_order_date, commissions,
	is_short, avg_buy_price, avg_sell_price, profit, quantity, quantity_outstanding, orders_count`

// CreateTrade saves a new trade, including its initial snapshot, and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (account_id, symbol, target_entry, target_profit, target_stop,
	                    entry_reason, exit_reason, created_at, first_order_date, last_order_date,
	                    commissions, is_short, avg_buy_price, avg_sell_price, profit,
	                    quantity, quantity_outstanding, orders_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	s := trade.Snapshot
	result, err := r.q.ExecContext(ctx, query,
		trade.AccountID, trade.Symbol, trade.TargetEntry, trade.TargetProfit, trade.TargetStop,
		trade.EntryReason, trade.ExitReason, formatTime(trade.CreatedAt),
		formatTime(s.FirstOrderDate), formatTime(s.LastOrderDate),
		s.Commissions, s.IsShort, s.AvgBuyPrice, s.AvgSellPrice, s.Profit,
		s.Quantity, s.QuantityOutstanding, s.OrdersCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for symbol %s: %w", trade.Symbol, mapWriteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Symbol, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol})
	return id, nil
}

// FindTradeByID retrieves a trade by its unique ID.
func (r *Repository) FindTradeByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE id = ?"

	trade, err := scanTrade(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query trade ID %d: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return trade, nil
}

// FindTradesByAccount retrieves the trades of an account, most recently active first.
func (r *Repository) FindTradesByAccount(ctx context.Context, accountID int64) ([]*domain.Trade, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE account_id = ? ORDER BY julianday(last_order_date) DESC, id DESC"

	rows, err := r.q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for account %d: %w: %w", accountID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindTradesByAccount: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// ListTradeIDs returns the IDs of every trade in ascending order.
func (r *Repository) ListTradeIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM trades ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade IDs: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trade ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade ID rows: %w", err)
	}
	return ids, nil
}

// SaveSnapshot replaces the computed fields of a trade.
func (r *Repository) SaveSnapshot(ctx context.Context, tradeID int64, s domain.TradeSnapshot) error {
	const query = `
	UPDATE trades
	SET first_order_date = ?, last_order_date = ?, commissions = ?, is_short = ?,
	    avg_buy_price = ?, avg_sell_price = ?, profit = ?, quantity = ?,
	    quantity_outstanding = ?, orders_count = ?
	WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		formatTime(s.FirstOrderDate), formatTime(s.LastOrderDate), s.Commissions, s.IsShort,
		s.AvgBuyPrice, s.AvgSellPrice, s.Profit, s.Quantity,
		s.QuantityOutstanding, s.OrdersCount, tradeID)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for trade ID %d: %w: %w", tradeID, ports.ErrUpdateFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for trade ID %d: %w", tradeID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for snapshot: %w", tradeID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade snapshot saved", map[string]interface{}{"tradeID": tradeID, "orders": s.OrdersCount})
	return nil
}

// --- OrderRepository Implementation ---

const orderColumns = `id, trade_id, account_id, executed_at, type, quantity, price, commission, external_id`

// CreateOrder saves a new order and returns its assigned ID.
func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order) (int64, error) {
	const query = `
	INSERT INTO orders (trade_id, account_id, executed_at, type, quantity, price, commission, external_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query,
		o.TradeID, o.AccountID, formatTime(o.ExecutedAt), string(o.Type),
		o.Quantity, o.Price, o.Commission, nullString(o.ExternalID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert order for trade ID %d: %w", o.TradeID, mapWriteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for order of trade %d: %w", o.TradeID, err)
	}
	o.ID = id
	r.logger.Debug(ctx, "Order created", map[string]interface{}{"orderID": id, "tradeID": o.TradeID, "type": o.Type})
	return id, nil
}

// UpdateOrder modifies the editable fields of an existing order.
func (r *Repository) UpdateOrder(ctx context.Context, o *domain.Order) error {
	const query = `
	UPDATE orders
	SET executed_at = ?, type = ?, quantity = ?, price = ?, commission = ?
	WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		formatTime(o.ExecutedAt), string(o.Type), o.Quantity, o.Price, o.Commission, o.ID)
	if err != nil {
		return fmt.Errorf("failed to update order ID %d: %w", o.ID, mapWriteError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update order ID %d: %w", o.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order ID %d not found for update: %w", o.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Order updated", map[string]interface{}{"orderID": o.ID, "tradeID": o.TradeID})
	return nil
}

// DeleteOrder removes an order.
func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order ID %d: %w: %w", id, ports.ErrDeleteFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete order ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order ID %d not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Order deleted", map[string]interface{}{"orderID": id})
	return nil
}

// FindOrderByID retrieves an order by its unique ID.
func (r *Repository) FindOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = ?"

	o, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query order ID %d: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return o, nil
}

// ListByTrade retrieves every order of a trade. Rows come back in ID order;
// chronology is the engine's concern.
func (r *Repository) ListByTrade(ctx context.Context, tradeID int64) ([]*domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE trade_id = ? ORDER BY id"

	rows, err := r.q.QueryContext(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders for trade ID %d: %w: %w", tradeID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order during ListByTrade: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

// ExternalIDsByTrade returns the exchange fill IDs already imported into a trade.
func (r *Repository) ExternalIDsByTrade(ctx context.Context, tradeID int64) (map[string]bool, error) {
	const query = `SELECT external_id FROM orders WHERE trade_id = ? AND external_id IS NOT NULL`

	rows, err := r.q.QueryContext(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query external IDs for trade ID %d: %w: %w", tradeID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan external ID: %w", err)
		}
		ids[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating external ID rows: %w", err)
	}
	return ids, nil
}

// --- Helper Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	snap := &t.Snapshot
	var createdAt, firstDate, lastDate string
	err := s.Scan(
		&t.ID, &t.AccountID, &t.Symbol, &t.TargetEntry, &t.TargetProfit, &t.TargetStop,
		&t.EntryReason, &t.ExitReason, &createdAt, &firstDate, &lastDate, &snap.Commissions,
		&snap.IsShort, &snap.AvgBuyPrice, &snap.AvgSellPrice, &snap.Profit, &snap.Quantity,
		&snap.QuantityOutstanding, &snap.OrdersCount)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if snap.FirstOrderDate, err = parseTime(firstDate); err != nil {
		return nil, err
	}
	if snap.LastOrderDate, err = parseTime(lastDate); err != nil {
		return nil, err
	}
	return t, nil
}

// scanOrder scans a row into a domain.Order struct.
func scanOrder(s scanner) (*domain.Order, error) {
	o := &domain.Order{}
	var executedAt, orderType string
	var externalID sql.NullString
	err := s.Scan(
		&o.ID, &o.TradeID, &o.AccountID, &executedAt, &orderType,
		&o.Quantity, &o.Price, &o.Commission, &externalID)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if o.ExecutedAt, err = parseTime(executedAt); err != nil {
		return nil, err
	}
	if o.Type, err = domain.ParseOrderType(orderType); err != nil {
		return nil, fmt.Errorf("order ID %d: %w", o.ID, err)
	}
	if externalID.Valid {
		o.ExternalID = externalID.String
	}
	return o, nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapWriteError classifies constraint violations as ports errors.
func mapWriteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", ports.ErrDuplicateEntry, err)
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
	}
	return fmt.Errorf("%w: %w", ports.ErrUpdateFailed, err)
}
