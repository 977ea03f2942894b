package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"tradeLog/config"
	"tradeLog/internal/adapters/logger"
	"tradeLog/internal/adapters/sqlite"
	"tradeLog/internal/app"
)

const usage = `usage: journal <command> [flags]

commands:
  account    create an account            -user -name
  open       open a trade                 -account -symbol [-target-entry -target-profit -target-stop -reason]
  add        record an order              -account -trade -type -qty -price [-commission -at]
  edit       change an order              -account -order [-type -qty -price -commission -at]
  delete     remove an order              -account -order
  recompute  recompute snapshots          [-trade]
  show       list trades or one trade     -account [-trade -csv]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger.With("sqlite")})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}

	// 4. Initialize Application Service
	journal, err := app.NewJournalService(appLogger.With("journal"), repo, repo)
	if err != nil {
		repo.Close()
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	c := &cli{svc: journal, out: os.Stdout, now: nowFunc}
	err = c.run(context.Background(), os.Args[1], os.Args[2:])
	repo.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "journal %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}
