package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/intraday-trader/internal/clients/yahoo"
	"github.com/aristath/intraday-trader/internal/config"
	"github.com/aristath/intraday-trader/internal/database"
	"github.com/aristath/intraday-trader/internal/events"
	"github.com/aristath/intraday-trader/internal/modules/analysis"
	"github.com/aristath/intraday-trader/internal/modules/market_hours"
	"github.com/aristath/intraday-trader/internal/modules/settings"
	"github.com/aristath/intraday-trader/internal/modules/trading"
	"github.com/aristath/intraday-trader/internal/monitor"
	"github.com/aristath/intraday-trader/internal/reliability"
	"github.com/aristath/intraday-trader/internal/scheduler"
	"github.com/aristath/intraday-trader/internal/server"
	"github.com/aristath/intraday-trader/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting intraday trader")

	// settings.db - configuration overrides and market holiday calendars
	settingsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/settings.db",
		Profile: database.ProfileStandard,
		Name:    "settings",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize settings database")
	}
	defer settingsDB.Close()

	// ledger.db - immutable trade audit trail
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/ledger.db",
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger database")
	}
	defer ledgerDB.Close()

	settingsRepo := settings.NewRepository(settingsDB.Conn(), log)
	if err := settingsRepo.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize settings schema")
	}

	// Database settings take precedence over environment variables
	if err := settingsRepo.ApplyIntradayOverrides(&cfg.Intraday); err != nil {
		log.Warn().Err(err).Msg("Failed to apply settings overrides, using environment configuration")
	}
	if err := cfg.Intraday.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid intraday configuration after settings overrides")
	}

	bus := events.NewBus()
	eventManager := events.NewManager(bus, log)

	yahooClient := yahoo.NewClient(log)
	detector := market_hours.NewDetector(settingsRepo, log)

	engine := analysis.NewEngine(analysis.Config{
		Quotes: yahooClient,
		Log:    log,
	})

	executor := trading.NewExecutor(ledgerDB.Conn(), log)
	if err := executor.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize trades schema")
	}

	mon := monitor.New(monitor.Config{
		Log:           log,
		Detector:      detector,
		Engine:        engine,
		Executor:      executor,
		Events:        eventManager,
		CycleInterval: cfg.Intraday.Interval(),
	})

	// Daily counter resets fire at each exchange's local midnight
	sched := scheduler.New(log)
	for _, region := range cfg.Intraday.Regions {
		job := scheduler.NewDailyResetJob(log, region, mon)
		schedule, err := job.Schedule()
		if err != nil {
			log.Fatal().Err(err).Str("region", string(region)).Msg("Failed to build daily reset schedule")
		}
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("region", string(region)).Msg("Failed to register daily reset job")
		}
	}
	sched.Start()

	healthService := reliability.NewHealthService(log, settingsDB, ledgerDB)

	srv := server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		Monitor:  mon,
		Detector: detector,
		Health:   healthService,
	})

	if cfg.Intraday.Enabled {
		mon.Start(cfg.Intraday.Regions)
	} else {
		log.Warn().Msg("Intraday monitoring disabled by configuration")
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	mon.Stop()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
