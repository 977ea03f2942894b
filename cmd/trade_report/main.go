package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"tradeLog/config"
	"tradeLog/internal/adapters/logger"
	"tradeLog/internal/adapters/sqlite"
	"tradeLog/internal/app"
	"tradeLog/internal/domain"
	"tradeLog/internal/report"
)

func main() {
	accountID := flag.Int64("account", 0, "account to report on")
	out := flag.String("out", "", "write CSV to this file instead of printing a table")
	recompute := flag.Bool("recompute", false, "recompute every trade before reporting")
	flag.Parse()

	if *accountID <= 0 {
		log.Fatalf("FATAL: -account is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	ctx := context.Background()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger.With("sqlite")})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	journal, err := app.NewJournalService(appLogger.With("journal"), repo, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	if *recompute {
		if err := journal.RecomputeAll(ctx); err != nil {
			appLogger.Error(ctx, err, "Some trades failed to recompute")
		}
	}

	trades, err := journal.Trades(ctx, domain.Actor{AccountID: *accountID})
	if err != nil {
		log.Fatalf("Error loading trades: %v", err)
	}
	if len(trades) == 0 {
		log.Println("No trades found for this account.")
		return
	}

	if *out == "" {
		if err := report.WriteTable(os.Stdout, trades); err != nil {
			log.Fatalf("Error writing report: %v", err)
		}
		return
	}

	if err := writeCSVFile(*out, trades); err != nil {
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": *out, "trades": len(trades)})
	fmt.Printf("Wrote %d trades to %s\n", len(trades), *out)
}

func writeCSVFile(path string, trades []*domain.Trade) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteCSV(file, trades)
}
