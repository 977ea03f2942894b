package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"tradeLog/internal/app"
	"tradeLog/internal/domain"
	"tradeLog/internal/report"
)

var errUsage = errors.New("invalid usage")

var nowFunc = time.Now

type cli struct {
	svc *app.JournalService
	out io.Writer
	now func() time.Time
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "account":
		return c.account(ctx, args)
	case "open":
		return c.open(ctx, args)
	case "add":
		return c.add(ctx, args)
	case "edit":
		return c.edit(ctx, args)
	case "delete":
		return c.delete(ctx, args)
	case "recompute":
		return c.recompute(ctx, args)
	case "show":
		return c.show(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q\n\n%s", errUsage, cmd, usage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func requirePositive(name string, v int64) error {
	if v <= 0 {
		return fmt.Errorf("%w: -%s is required", errUsage, name)
	}
	return nil
}

func parseMoneyFlag(name, v string) (domain.Money, error) {
	if v == "" {
		return 0, nil
	}
	m, err := domain.ParseMoney(v)
	if err != nil {
		return 0, fmt.Errorf("-%s: %w", name, err)
	}
	return m, nil
}

func (c *cli) account(ctx context.Context, args []string) error {
	fs := newFlagSet("account")
	userID := fs.Int64("user", 0, "user id")
	name := fs.String("name", "", "account name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := requirePositive("user", *userID); err != nil {
		return err
	}

	acc, err := c.svc.CreateAccount(ctx, *userID, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "account %d created\n", acc.ID)
	return nil
}

func (c *cli) open(ctx context.Context, args []string) error {
	fs := newFlagSet("open")
	accountID := fs.Int64("account", 0, "account id")
	symbol := fs.String("symbol", "", "instrument symbol")
	entry := fs.String("target-entry", "", "planned entry price")
	profit := fs.String("target-profit", "", "planned profit-taking price")
	stop := fs.String("target-stop", "", "planned stop price")
	reason := fs.String("reason", "", "entry reason")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := requirePositive("account", *accountID); err != nil {
		return err
	}

	trade := &domain.Trade{Symbol: *symbol, EntryReason: *reason}
	var err error
	if trade.TargetEntry, err = parseMoneyFlag("target-entry", *entry); err != nil {
		return err
	}
	if trade.TargetProfit, err = parseMoneyFlag("target-profit", *profit); err != nil {
		return err
	}
	if trade.TargetStop, err = parseMoneyFlag("target-stop", *stop); err != nil {
		return err
	}

	trade, err = c.svc.OpenTrade(ctx, domain.Actor{AccountID: *accountID}, trade)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "trade %d opened (%s)\n", trade.ID, trade.Symbol)
	return nil
}

// orderFlags are the flags shared by add and edit.
type orderFlags struct {
	typ        *string
	qty        *int64
	price      *string
	commission *string
	at         *string
}

func registerOrderFlags(fs *flag.FlagSet) orderFlags {
	return orderFlags{
		typ:        fs.String("type", "", "BUY, SELL, SELL_SHORT or BUY_TO_COVER"),
		qty:        fs.Int64("qty", 0, "quantity in units"),
		price:      fs.String("price", "", "price per unit"),
		commission: fs.String("commission", "", "total commission"),
		at:         fs.String("at", "", "execution time (RFC3339), defaults to now"),
	}
}

func parseAt(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("-at: %w", err)
	}
	return t, nil
}

func printSnapshot(w io.Writer, s *domain.TradeSnapshot) {
	fmt.Fprintf(w, "orders=%d quantity=%d outstanding=%d profit=%s commissions=%s\n",
		s.OrdersCount, s.Quantity, s.QuantityOutstanding, s.Profit.Display(), s.Commissions.Display())
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	accountID := fs.Int64("account", 0, "account id")
	tradeID := fs.Int64("trade", 0, "trade id")
	of := registerOrderFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := requirePositive("account", *accountID); err != nil {
		return err
	}
	if err := requirePositive("trade", *tradeID); err != nil {
		return err
	}

	typ, err := domain.ParseOrderType(*of.typ)
	if err != nil {
		return err
	}
	order := &domain.Order{TradeID: *tradeID, Type: typ, Quantity: *of.qty, ExecutedAt: c.now()}
	if order.Price, err = parseMoneyFlag("price", *of.price); err != nil {
		return err
	}
	if order.Commission, err = parseMoneyFlag("commission", *of.commission); err != nil {
		return err
	}
	if *of.at != "" {
		if order.ExecutedAt, err = parseAt(*of.at); err != nil {
			return err
		}
	}

	snap, err := c.svc.AddOrder(ctx, domain.Actor{AccountID: *accountID}, order)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %d added to trade %d\n", order.ID, order.TradeID)
	printSnapshot(c.out, snap)
	return nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit")
	accountID := fs.Int64("account", 0, "account id")
	orderID := fs.Int64("order", 0, "order id")
	of := registerOrderFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := requirePositive("account", *accountID); err != nil {
		return err
	}
	if err := requirePositive("order", *orderID); err != nil {
		return err
	}

	// Only flags given on the command line become part of the edit.
	var edit domain.OrderEdit
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "type":
			var t domain.OrderType
			if t, err = domain.ParseOrderType(*of.typ); err == nil {
				edit.Type = &t
			}
		case "qty":
			edit.Quantity = of.qty
		case "price":
			var m domain.Money
			if m, err = domain.ParseMoney(*of.price); err == nil {
				edit.Price = &m
			}
		case "commission":
			var m domain.Money
			if m, err = domain.ParseMoney(*of.commission); err == nil {
				edit.Commission = &m
			}
		case "at":
			var t time.Time
			if t, err = parseAt(*of.at); err == nil {
				edit.ExecutedAt = &t
			}
		}
	})
	if err != nil {
		return err
	}
	if edit.IsEmpty() {
		return fmt.Errorf("%w: nothing to change", errUsage)
	}

	snap, err := c.svc.EditOrder(ctx, domain.Actor{AccountID: *accountID}, *orderID, edit)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %d updated\n", *orderID)
	printSnapshot(c.out, snap)
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := newFlagSet("delete")
	accountID := fs.Int64("account", 0, "account id")
	orderID := fs.Int64("order", 0, "order id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := requirePositive("account", *accountID); err != nil {
		return err
	}
	if err := requirePositive("order", *orderID); err != nil {
		return err
	}

	snap, err := c.svc.DeleteOrder(ctx, domain.Actor{AccountID: *accountID}, *orderID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %d deleted\n", *orderID)
	printSnapshot(c.out, snap)
	return nil
}

func (c *cli) recompute(ctx context.Context, args []string) error {
	fs := newFlagSet("recompute")
	tradeID := fs.Int64("trade", 0, "trade id (all trades when omitted)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	if *tradeID == 0 {
		if err := c.svc.RecomputeAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "all trades recomputed")
		return nil
	}

	snap, err := c.svc.Recompute(ctx, *tradeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "trade %d recomputed\n", *tradeID)
	printSnapshot(c.out, snap)
	return nil
}

func (c *cli) show(ctx context.Context, args []string) error {
	fs := newFlagSet("show")
	accountID := fs.Int64("account", 0, "account id")
	tradeID := fs.Int64("trade", 0, "trade id (all trades when omitted)")
	asCSV := fs.Bool("csv", false, "write CSV instead of a table")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := requirePositive("account", *accountID); err != nil {
		return err
	}
	actor := domain.Actor{AccountID: *accountID}

	var trades []*domain.Trade
	if *tradeID > 0 {
		trade, err := c.svc.Trade(ctx, actor, *tradeID)
		if err != nil {
			return err
		}
		trades = []*domain.Trade{trade}
	} else {
		var err error
		if trades, err = c.svc.Trades(ctx, actor); err != nil {
			return err
		}
	}

	if *asCSV {
		return report.WriteCSV(c.out, trades)
	}
	if err := report.WriteTable(c.out, trades); err != nil {
		return err
	}
	if *tradeID > 0 {
		orders, err := c.svc.Orders(ctx, actor, *tradeID)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		return report.WriteOrders(c.out, orders)
	}
	return nil
}
