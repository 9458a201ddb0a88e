// FE-Analyst is a pluggable multi-analyzer scoring engine for equities.
// It maintains a securities universe, syncs price history, runs the
// composite analysis on a schedule and serves the results over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/feanalyst/fe-analyst/internal/analysis"
	"github.com/feanalyst/fe-analyst/internal/analysis/analyzers"
	"github.com/feanalyst/fe-analyst/internal/clients/alphavantage"
	"github.com/feanalyst/fe-analyst/internal/config"
	"github.com/feanalyst/fe-analyst/internal/database"
	"github.com/feanalyst/fe-analyst/internal/events"
	"github.com/feanalyst/fe-analyst/internal/export"
	"github.com/feanalyst/fe-analyst/internal/marketdata"
	"github.com/feanalyst/fe-analyst/internal/scheduler"
	"github.com/feanalyst/fe-analyst/internal/scores"
	"github.com/feanalyst/fe-analyst/internal/server"
	"github.com/feanalyst/fe-analyst/internal/universe"
	"github.com/feanalyst/fe-analyst/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fe-analyst: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting FE-Analyst")

	// Databases
	universeDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "universe.db"),
		Name: "universe",
	})
	if err != nil {
		return fmt.Errorf("failed to open universe database: %w", err)
	}
	defer universeDB.Close()

	historyDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "history.db"),
		Name: "history",
	})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer historyDB.Close()

	scoresDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "scores.db"),
		Name: "scores",
	})
	if err != nil {
		return fmt.Errorf("failed to open scores database: %w", err)
	}
	defer scoresDB.Close()

	// Repositories
	securityRepo := universe.NewSecurityRepository(universeDB.Conn(), log)
	if err := securityRepo.InitSchema(); err != nil {
		return fmt.Errorf("failed to init universe schema: %w", err)
	}

	priceHistory := universe.NewHistoryDB(historyDB.Conn(), log)
	if err := priceHistory.InitSchema(); err != nil {
		return fmt.Errorf("failed to init history schema: %w", err)
	}

	scoreRepo := scores.NewRepository(scoresDB.Conn(), log)
	if err := scoreRepo.InitSchema(); err != nil {
		return fmt.Errorf("failed to init scores schema: %w", err)
	}

	// Market data
	avClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)

	var fundamentals marketdata.FundamentalsSource
	if cfg.AlphaVantageAPIKey != "" {
		fundamentals = marketdata.NewAlphaVantageSource(avClient, log)
	} else {
		log.Warn().Msg("No market data API key configured, snapshots will be price-only")
	}
	builder := marketdata.NewBuilder(priceHistory, fundamentals, log)

	// Analysis core
	specs, err := analysis.LoadSpecs(cfg.AnalyzersConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load analyzer config: %w", err)
	}

	registry, err := analysis.NewRegistry(specs, analyzers.Factories(analyzers.Config{
		MarketAvgPE: cfg.MarketAvgPE,
	}))
	if err != nil {
		return fmt.Errorf("invalid analyzer configuration: %w", err)
	}

	aggregator := analysis.NewAggregator(registry, cfg.AnalyzerTimeout, log)

	for name, weight := range registry.EffectiveWeights() {
		log.Info().Str("analyzer", name).Float64("effective_weight", weight).Msg("Analyzer enabled")
	}

	// Events and jobs
	bus := events.NewBus()

	scanJob := scheduler.NewScanJob(securityRepo, builder, aggregator, scoreRepo, bus, cfg.ScanWorkers, log)
	priceSyncJob := scheduler.NewPriceSyncJob(securityRepo, priceHistory, avClient, builder, log)
	quotaResetJob := scheduler.NewQuotaResetJob(avClient.ResetDailyCounter)

	sched := scheduler.New(log)
	if err := sched.AddContextJob(cfg.ScanSchedule, scanJob); err != nil {
		return fmt.Errorf("failed to schedule universe scan: %w", err)
	}
	if err := sched.AddContextJob(cfg.PriceSyncSchedule, priceSyncJob); err != nil {
		return fmt.Errorf("failed to schedule price sync: %w", err)
	}
	// Provider budget resets at midnight UTC
	if err := sched.AddJob("0 0 0 * * *", quotaResetJob); err != nil {
		return fmt.Errorf("failed to schedule quota reset: %w", err)
	}

	if cfg.Export.Enabled {
		exporter, err := export.NewS3Exporter(context.Background(), export.Config{
			Bucket:    cfg.Export.Bucket,
			Prefix:    cfg.Export.Prefix,
			Region:    cfg.Export.Region,
			AccessKey: cfg.Export.AccessKey,
			SecretKey: cfg.Export.SecretKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create score exporter: %w", err)
		}
		exportJob := scheduler.NewExportJob(scoreRepo, exporter, log)
		if err := sched.AddJob(cfg.Export.Schedule, exportJob); err != nil {
			return fmt.Errorf("failed to schedule score export: %w", err)
		}
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	handlers := server.NewHandlers(registry, aggregator, builder, securityRepo, scoreRepo, scanJob, log)
	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir, securityRepo, avClient, bus)
	streamHandler := server.NewScanStreamHandler(bus, log)

	srv := server.New(server.Config{
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Log:      log,
		Handlers: handlers,
		System:   systemHandlers,
		Stream:   streamHandler,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
