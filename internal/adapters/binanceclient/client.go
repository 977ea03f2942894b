package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradeLog/internal/domain"
	"tradeLog/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// Maximum rows the account trade list endpoint returns per call.
	maxTradesPerPage = 1000

	// Longest startTime..endTime span the account trade list endpoint accepts.
	maxTradeWindow = 7 * 24 * time.Hour
)

// tradeLister is the part of the futures client used to page through account trades.
// A positive fromID pages by trade ID and ignores the time bounds.
type tradeLister interface {
	listAccountTrades(ctx context.Context, symbol string, start, end time.Time, fromID int64) ([]*futures.AccountTrade, error)
}

// futuresLister lists trades through the real futures REST client.
type futuresLister struct {
	client *futures.Client
}

func (l futuresLister) listAccountTrades(ctx context.Context, symbol string, start, end time.Time, fromID int64) ([]*futures.AccountTrade, error) {
	svc := l.client.NewListAccountTradeService().Symbol(symbol).Limit(maxTradesPerPage)
	if fromID > 0 {
		return svc.FromID(fromID).Do(ctx)
	}
	return svc.StartTime(start.UnixMilli()).EndTime(end.UnixMilli()).Do(ctx)
}

// Client implements the ports.FillSource interface using the go-binance library.
type Client struct {
	futuresClient        *futures.Client
	trades               tradeLister
	now                  func() time.Time
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

var _ ports.FillSource = (*Client)(nil)

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey               string
	SecretKey            string
	UseTestnet           bool
	Logger               ports.Logger
	ReconnectDelay       time.Duration // Delay between retries of transient failures
	MaxReconnectAttempts int           // Max attempts before giving up
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: Binance API key and secret are required to read account fills", ports.ErrConfigurationError)
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Client{
		futuresClient:        client,
		trades:               futuresLister{client: client},
		now:                  time.Now,
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1001, -1016: // Internal error / service shutting down
			mappedErr = ports.ErrExchangeUnavailable
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1121, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -2014, -2015: // API-key format invalid / Invalid API-key, IP, or permissions for action
			mappedErr = ports.ErrInvalidAPIKeys
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if isConnectionError(err) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

func isConnectionError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset by peer")
}

// retryable reports whether an operation failing with err may succeed on retry.
func retryable(err error) bool {
	return errors.Is(err, ports.ErrConnectionFailed) ||
		errors.Is(err, ports.ErrRateLimited) ||
		errors.Is(err, ports.ErrExchangeUnavailable)
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetServerTime retrieves the current server time from the exchange.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	op := "GetServerTime"
	serverTimeMs, err := c.futuresClient.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, op)
	}
	return time.UnixMilli(serverTimeMs), nil
}

// ListFills returns the account's executions for symbol since the given time, oldest first.
// A zero since means the last seven days. The exchange only answers time queries
// spanning at most seven days, so windows are walked forward from since until the
// first fill turns up; from there pages are fetched by trade ID until a short page.
func (c *Client) ListFills(ctx context.Context, symbol string, since time.Time) ([]*ports.Fill, error) {
	op := "ListFills"
	now := c.now()
	if since.IsZero() {
		since = now.Add(-maxTradeWindow)
	}

	fromID, err := c.firstTradeID(ctx, op, symbol, since, now)
	if err != nil {
		return nil, err
	}

	fills := make([]*ports.Fill, 0)
	for fromID > 0 {
		page, err := c.listPage(ctx, op, symbol, time.Time{}, time.Time{}, fromID)
		if err != nil {
			return nil, err
		}

		for _, t := range page {
			if t.Time < since.UnixMilli() {
				continue
			}
			f, err := translateAccountTrade(t)
			if err != nil {
				return nil, c.handleError(ctx, err, op)
			}
			fills = append(fills, f)
		}

		if len(page) < maxTradesPerPage {
			break
		}
		fromID = page[len(page)-1].ID + 1
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "fills": len(fills)})
	return fills, nil
}

// firstTradeID returns the lowest trade ID executed in [since, now], or 0 when
// there is none.
func (c *Client) firstTradeID(ctx context.Context, op, symbol string, since, now time.Time) (int64, error) {
	for start := since; start.Before(now); start = start.Add(maxTradeWindow) {
		end := start.Add(maxTradeWindow)
		if end.After(now) {
			end = now
		}

		page, err := c.listPage(ctx, op, symbol, start, end, 0)
		if err != nil {
			return 0, err
		}
		var first int64
		for _, t := range page {
			if first == 0 || t.ID < first {
				first = t.ID
			}
		}
		if first > 0 {
			return first, nil
		}
	}
	return 0, nil
}

// listPage fetches one page, retrying transient failures.
func (c *Client) listPage(ctx context.Context, op, symbol string, start, end time.Time, fromID int64) ([]*futures.AccountTrade, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxReconnectAttempts; attempt++ {
		page, err := c.trades.listAccountTrades(ctx, symbol, start, end, fromID)
		if err == nil {
			return page, nil
		}
		lastErr = c.handleError(ctx, err, op)
		if !retryable(lastErr) {
			return nil, lastErr
		}

		c.logger.Warn(ctx, "Retrying after transient exchange error", map[string]interface{}{"attempt": attempt, "delay": c.reconnectDelay.String()})
		select {
		case <-ctx.Done():
			return nil, c.handleError(ctx, ctx.Err(), op)
		case <-time.After(c.reconnectDelay):
		}
	}
	return nil, lastErr
}

// translateAccountTrade maps a futures account trade onto journal order semantics.
// In hedge mode the position side tells opening from closing; in one-way mode
// (position side BOTH) buys and sells map to Buy and Sell.
func translateAccountTrade(t *futures.AccountTrade) (*ports.Fill, error) {
	var typ domain.OrderType
	switch {
	case t.PositionSide == futures.PositionSideTypeShort && t.Side == futures.SideTypeSell:
		typ = domain.SellShort
	case t.PositionSide == futures.PositionSideTypeShort && t.Side == futures.SideTypeBuy:
		typ = domain.BuyToCover
	case t.Side == futures.SideTypeBuy:
		typ = domain.Buy
	case t.Side == futures.SideTypeSell:
		typ = domain.Sell
	default:
		return nil, fmt.Errorf("unsupported trade side %q/%q for trade %d", t.Side, t.PositionSide, t.ID)
	}

	return &ports.Fill{
		ExternalID: strconv.FormatInt(t.ID, 10),
		Symbol:     t.Symbol,
		ExecutedAt: time.UnixMilli(t.Time).UTC(),
		Type:       typ.String(),
		Quantity:   t.Quantity,
		Price:      t.Price,
		Commission: t.Commission,
	}, nil
}
