package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"tradeLog/config"
	"tradeLog/internal/adapters/binanceclient"
	"tradeLog/internal/adapters/logger"
	"tradeLog/internal/adapters/sqlite"
	"tradeLog/internal/app"
	"tradeLog/internal/domain"
)

func main() {
	accountID := flag.Int64("account", 0, "account that owns the trade")
	tradeID := flag.Int64("trade", 0, "trade to import fills into")
	symbol := flag.String("symbol", "", "exchange symbol (defaults to the trade's symbol)")
	since := flag.String("since", "72h", "import fills newer than this duration ago, or an RFC3339 timestamp")
	flag.Parse()

	if *accountID <= 0 || *tradeID <= 0 {
		log.Fatalf("FATAL: -account and -trade are required")
	}
	start, err := parseSince(*since, time.Now())
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}
	if err := cfg.RequireExchangeCredentials(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	ctx := context.Background()

	// 3. Initialize Repository and Service
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger.With("sqlite")})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	journal, err := app.NewJournalService(appLogger.With("journal"), repo, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	actor := domain.Actor{AccountID: *accountID}
	trade, err := journal.Trade(ctx, actor, *tradeID)
	if err != nil {
		log.Fatalf("FATAL: Failed to load trade %d: %v", *tradeID, err)
	}
	sym := strings.ToUpper(strings.TrimSpace(*symbol))
	if sym == "" {
		sym = trade.Symbol
	}

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger.With("binance"),
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(ctx); err != nil {
		log.Fatalf("FATAL: Binance is unreachable: %v", err)
	}

	fmt.Printf("Fetching %s fills since %s...\n", sym, start.Format(time.RFC3339))
	fills, err := binanceClient.ListFills(ctx, sym, start)
	if err != nil {
		log.Fatalf("Error fetching fills: %v", err)
	}
	appLogger.Info(ctx, "Fetched fills", map[string]interface{}{"count": len(fills), "symbol": sym})

	res, err := journal.ImportFills(ctx, actor, *tradeID, fills)
	if err != nil {
		log.Fatalf("Error importing fills: %v", err)
	}
	fmt.Printf("Imported %d fills, skipped %d already present. Profit %s, outstanding %d\n",
		res.Imported, res.Skipped, res.Snapshot.Profit.Display(), res.Snapshot.QuantityOutstanding)
}

// parseSince accepts a Go duration relative to now or an absolute RFC3339 time.
func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("-since duration must be positive, got %s", s)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -since %q: want a duration like 72h or an RFC3339 time", s)
	}
	return t, nil
}
