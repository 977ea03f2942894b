package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeLog/config"
	"tradeLog/internal/adapters/logger"
	"tradeLog/internal/adapters/sqlite"
	"tradeLog/internal/app"
	"tradeLog/internal/scheduler"
)

// reconcileTimeout bounds a single full recompute pass.
const reconcileTimeout = 10 * time.Minute

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger.With("sqlite"),
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Application Service
	journal, err := app.NewJournalService(appLogger.With("journal"), repo, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize journal service")
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Bring every stored snapshot up to date before serving the schedule
	job := app.NewReconcileJob(ctx, journal, reconcileTimeout)
	sched := scheduler.New(appLogger.With("scheduler"))
	if err := sched.RunNow(job); err != nil {
		appLogger.Error(ctx, err, "Startup reconciliation finished with errors")
	}

	if cfg.ReconcileSchedule == "" {
		appLogger.Info(ctx, "RECONCILE_SCHEDULE is empty, periodic reconciliation disabled")
		return
	}

	// 6. Start the Scheduler
	if err := sched.AddJob(cfg.ReconcileSchedule, job); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to schedule reconciliation")
		log.Fatalf("FATAL: Failed to schedule reconciliation: %v", err)
	}
	sched.Start()

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutdown signal received")
	sched.Stop()

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
