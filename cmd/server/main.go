package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/clock"
	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/economy"
	"github.com/mamadbah2/cryptoants/internal/randomness"
	"github.com/mamadbah2/cryptoants/internal/repository/mongodb"
	"github.com/mamadbah2/cryptoants/internal/repository/sheets"
	"github.com/mamadbah2/cryptoants/internal/repository/sqlite"
	"github.com/mamadbah2/cryptoants/internal/scheduler"
	"github.com/mamadbah2/cryptoants/internal/server/handlers"
	"github.com/mamadbah2/cryptoants/internal/server/router"
	commandsvc "github.com/mamadbah2/cryptoants/internal/service/commands"
	eventsvc "github.com/mamadbah2/cryptoants/internal/service/events"
	reportingsvc "github.com/mamadbah2/cryptoants/internal/service/reporting"
	"github.com/mamadbah2/cryptoants/pkg/clients/webhook"
	"github.com/mamadbah2/cryptoants/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	dispatcher := eventsvc.NewDispatcher(cfg.Journal.BufferSize, baseLogger.Named("svc.events"))

	var (
		eventReader handlers.EventReader
		reportStore reportingsvc.ReportStore
		exporter    reportingsvc.ReportExporter
		sinks       []sink
	)

	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		sinks = append(sinks, sink{name: "mongodb connection", close: func() error {
			return mongoRepo.Close(context.Background())
		}})
		dispatcher.Register("mongodb", mongoRepo)
		eventReader = mongoRepo
		reportStore = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, reports and events will not be persisted remotely")
	}

	if cfg.Journal.SQLitePath != "" {
		journal, err := sqlite.OpenJournal(cfg.Journal.SQLitePath)
		if err != nil {
			baseLogger.Fatal("failed to open sqlite journal", zap.Error(err))
		}
		sinks = append(sinks, sink{name: "sqlite journal", close: journal.Close})
		dispatcher.Register("sqlite", journal)
		if eventReader == nil {
			eventReader = journal
		}
	}

	if cfg.Webhook.URL != "" {
		dispatcher.Register("webhook", webhook.NewClient(cfg.Webhook))
		baseLogger.Info("event webhook enabled", zap.String("url", cfg.Webhook.URL))
	}

	if cfg.Sheets.SpreadsheetID != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheetsRepo
	}

	var (
		clk     clock.Clock = clock.System{}
		advance handlers.ClockAdvancer
	)
	if cfg.Economy.Clock == config.ClockManual {
		manual := clock.NewManual(time.Now())
		clk, advance = manual, manual
		baseLogger.Warn("simulated clock enabled, POST /clock/advance moves time")
	}

	var rng randomness.Source = randomness.NewCrypto()
	if cfg.Economy.Seed != 0 {
		rng = randomness.NewSeeded(cfg.Economy.Seed)
		baseLogger.Warn("seeded randomness enabled", zap.Uint64("seed", cfg.Economy.Seed))
	}

	bank := currency.NewBank(models.Address(cfg.Economy.Authority), cfg.Bank.TreasuryReserve)

	engine, err := economy.New(cfg.Economy, economy.Deps{
		Bank:      bank,
		Clock:     clk,
		Random:    rng,
		Publisher: dispatcher,
	}, baseLogger.Named("svc.economy"))
	if err != nil {
		baseLogger.Fatal("failed to init economy engine", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(engine, bank, reportStore, exporter, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(engine, bank, baseLogger.Named("svc.commands"))

	handler := handlers.NewEconomyHandler(handlers.Deps{
		Economy:       engine,
		Wallets:       bank,
		Commands:      commandDispatcher,
		Events:        eventReader,
		Reports:       reportingSvc,
		Clock:         advance,
		FaucetEnabled: cfg.Bank.FaucetEnabled,
	}, baseLogger.Named("handlers.economy"))
	httpHandler := router.New(handler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("authority", cfg.Economy.Authority),
			zap.Duration("cooldown", cfg.Economy.Cooldown))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdown(shutdownCtx, srv, sched, dispatcher, sinks, baseLogger)
}
