package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"tradeLog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func px(v int64) domain.Money { return domain.Money(v * domain.MoneyScale) }

func sampleTrades() []*domain.Trade {
	first := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	last := first.Add(2 * time.Hour)
	return []*domain.Trade{
		{
			ID: 1, Symbol: "AAPL",
			Snapshot: domain.TradeSnapshot{
				FirstOrderDate: first, LastOrderDate: last,
				AvgBuyPrice: px(100), AvgSellPrice: px(120),
				Commissions: px(2), Profit: px(20),
				Quantity: 1, OrdersCount: 2,
			},
		},
		{
			ID: 2, Symbol: "TSLA",
			Snapshot: domain.TradeSnapshot{
				FirstOrderDate: first, LastOrderDate: last,
				AvgBuyPrice: px(250), AvgSellPrice: px(200),
				Commissions: px(1), Profit: px(-50),
				Quantity: 1, OrdersCount: 2,
			},
		},
		{
			ID: 3, Symbol: "MSFT",
			Snapshot: domain.TradeSnapshot{
				FirstOrderDate: first, LastOrderDate: first,
				AvgSellPrice: px(300), IsShort: true,
				Profit: px(0), Quantity: 5, QuantityOutstanding: -5, OrdersCount: 1,
			},
		},
	}
}

func TestSummarize(t *testing.T) {
	stats, err := Summarize(sampleTrades())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 1, stats.OpenTrades)
	assert.Equal(t, 1, stats.WinningTrades)
	assert.Equal(t, 1, stats.LosingTrades)
	assert.InDelta(t, 0.5, stats.WinRate, 1e-9)
	assert.Equal(t, px(-30), stats.TotalProfit)
	assert.Equal(t, px(3), stats.Commissions)
	assert.InDelta(t, 0.4, stats.ProfitFactor, 1e-9)
	assert.Equal(t, px(50), stats.MaxDrawdown)
	assert.Equal(t, 1, stats.MaxConsecutiveWins)
	assert.Equal(t, 1, stats.MaxConsecutiveLosses)
}

func TestSummarize_StreaksFollowLastExecution(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closed := func(id int64, profit int64, offset int) *domain.Trade {
		return &domain.Trade{ID: id, Snapshot: domain.TradeSnapshot{
			Profit: px(profit), LastOrderDate: day.AddDate(0, 0, offset), OrdersCount: 2,
		}}
	}
	// Listed out of order; chronologically: +10, -5, -5, +30, +1.
	trades := []*domain.Trade{
		closed(4, 30, 3), closed(1, 10, 0), closed(5, 1, 4), closed(3, -5, 2), closed(2, -5, 1),
	}

	stats, err := Summarize(trades)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.MaxConsecutiveWins)
	assert.Equal(t, 2, stats.MaxConsecutiveLosses)
	assert.Equal(t, px(10), stats.MaxDrawdown)
	assert.Equal(t, px(31), stats.TotalProfit)
	assert.InDelta(t, 4.1, stats.ProfitFactor, 1e-9)
	assert.Equal(t, int64(4), trades[0].ID, "input order is preserved")
}

func TestSummarize_Empty(t *testing.T) {
	stats, err := Summarize(nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestSummarize_Overflow(t *testing.T) {
	trades := []*domain.Trade{
		{ID: 1, Snapshot: domain.TradeSnapshot{Profit: domain.Money(1 << 62)}},
		{ID: 2, Snapshot: domain.TradeSnapshot{Profit: domain.Money(1 << 62)}},
	}
	_, err := Summarize(trades)
	assert.ErrorIs(t, err, domain.ErrOverflow)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTrades()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{
		"1", "AAPL", "LONG", "2", "1", "0", "100.00", "120.00", "2.00", "20.00",
		"2024-03-01T09:30:00Z", "2024-03-01T11:30:00Z",
	}, records[1])
	assert.Equal(t, "-50.00", records[2][9])
	assert.Equal(t, "SHORT", records[3][2])
	assert.Equal(t, "-5", records[3][5])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleTrades()))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[0], "symbol")
	assert.Contains(t, lines[1], "AAPL")
	assert.Contains(t, lines[2], "-50.00")
	assert.Contains(t, out, "trades=3 open=1 won=1 lost=1 win_rate=50.00% profit=-30.00 commissions=3.00")
}

func TestWriteTable_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Contains(t, buf.String(), "trades=0")
}

func TestWriteOrders(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	orders := []*domain.Order{
		{ID: 7, ExecutedAt: at, Type: domain.Buy, Quantity: 3, Price: px(10), Commission: px(1)},
		{ID: 8, ExecutedAt: at.Add(time.Hour), Type: domain.Sell, Quantity: 3, Price: px(12), ExternalID: "991"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "executed_at")
	assert.Contains(t, lines[1], "BUY")
	assert.Contains(t, lines[1], "10.00")
	assert.Contains(t, lines[2], "SELL")
	assert.Contains(t, lines[2], "991")
}
