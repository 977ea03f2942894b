// Package report renders trade snapshots as aligned tables and CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"tradeLog/internal/domain"
)

var header = []string{
	"id", "symbol", "side", "orders", "quantity", "outstanding",
	"avg_buy", "avg_sell", "commissions", "profit", "first_order", "last_order",
}

// Stats summarizes a set of trades.
type Stats struct {
	TotalTrades          int
	OpenTrades           int
	WinningTrades        int
	LosingTrades         int
	WinRate              float64 // Winning share of closed trades
	ProfitFactor         float64 // Gross profit over gross loss; 0 without losses
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	TotalProfit          domain.Money
	Commissions          domain.Money
	MaxDrawdown          domain.Money // Largest peak-to-trough drop of cumulative closed profit
}

// Summarize computes Stats over trades. Trades with outstanding quantity count
// as open and are excluded from the win rate, streaks and drawdown. Closed
// trades are walked in order of their last execution.
func Summarize(trades []*domain.Trade) (Stats, error) {
	var stats Stats
	stats.TotalTrades = len(trades)

	closed := make([]*domain.Trade, 0, len(trades))
	var err error
	for _, t := range trades {
		s := t.Snapshot
		if stats.TotalProfit, err = stats.TotalProfit.Add(s.Profit); err != nil {
			return Stats{}, fmt.Errorf("summing profit of trade %d: %w", t.ID, err)
		}
		if stats.Commissions, err = stats.Commissions.Add(s.Commissions); err != nil {
			return Stats{}, fmt.Errorf("summing commissions of trade %d: %w", t.ID, err)
		}
		if s.QuantityOutstanding != 0 {
			stats.OpenTrades++
			continue
		}
		closed = append(closed, t)
	}
	slices.SortStableFunc(closed, func(a, b *domain.Trade) int {
		return a.Snapshot.LastOrderDate.Compare(b.Snapshot.LastOrderDate)
	})

	var grossWin, grossLoss, equity, peak domain.Money
	var wins, losses int
	for _, t := range closed {
		p := t.Snapshot.Profit
		if p > 0 {
			stats.WinningTrades++
			wins++
			losses = 0
			if grossWin, err = grossWin.Add(p); err != nil {
				return Stats{}, fmt.Errorf("summing wins: %w", err)
			}
		} else {
			stats.LosingTrades++
			losses++
			wins = 0
			if grossLoss, err = grossLoss.Sub(p); err != nil {
				return Stats{}, fmt.Errorf("summing losses: %w", err)
			}
		}
		stats.MaxConsecutiveWins = max(stats.MaxConsecutiveWins, wins)
		stats.MaxConsecutiveLosses = max(stats.MaxConsecutiveLosses, losses)

		if equity, err = equity.Add(p); err != nil {
			return Stats{}, fmt.Errorf("cumulative profit: %w", err)
		}
		peak = max(peak, equity)
		if dd, err := peak.Sub(equity); err == nil && dd > stats.MaxDrawdown {
			stats.MaxDrawdown = dd
		}
	}

	if n := len(closed); n > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(n)
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossWin.Decimal().Div(grossLoss.Decimal()).InexactFloat64()
	}
	return stats, nil
}

func side(s domain.TradeSnapshot) string {
	if s.OrdersCount == 0 {
		return "-"
	}
	if s.IsShort {
		return "SHORT"
	}
	return "LONG"
}

func row(t *domain.Trade) []string {
	s := t.Snapshot
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Symbol,
		side(s),
		strconv.Itoa(s.OrdersCount),
		strconv.FormatInt(s.Quantity, 10),
		strconv.FormatInt(s.QuantityOutstanding, 10),
		s.AvgBuyPrice.Display(),
		s.AvgSellPrice.Display(),
		s.Commissions.Display(),
		s.Profit.Display(),
		s.FirstOrderDate.Format(time.RFC3339),
		s.LastOrderDate.Format(time.RFC3339),
	}
}

// WriteTable writes trades as a right-aligned table followed by a summary line.
func WriteTable(w io.Writer, trades []*domain.Trade) error {
	stats, err := Summarize(trades)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, h := range header {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw, "\t")
	for _, t := range trades {
		for i, c := range row(t) {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw, "\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\ntrades=%d open=%d won=%d lost=%d win_rate=%.2f%% profit=%s commissions=%s profit_factor=%.2f max_drawdown=%s\n",
		stats.TotalTrades, stats.OpenTrades, stats.WinningTrades, stats.LosingTrades,
		stats.WinRate*100, stats.TotalProfit.Display(), stats.Commissions.Display(),
		stats.ProfitFactor, stats.MaxDrawdown.Display())
	return err
}

// WriteCSV writes trades as CSV with a header row.
func WriteCSV(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		if err := writer.Write(row(t)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteOrders writes a trade's orders as a table in the given order.
func WriteOrders(w io.Writer, orders []*domain.Order) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "id\texecuted_at\ttype\tquantity\tprice\tcommission\texternal_id\t")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t\n",
			o.ID, o.ExecutedAt.Format(time.RFC3339), o.Type, o.Quantity,
			o.Price.Display(), o.Commission.Display(), o.ExternalID)
	}
	return tw.Flush()
}
