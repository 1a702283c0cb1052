package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medtrack/medtrackd/internal/api"
	"github.com/medtrack/medtrackd/internal/auth"
	"github.com/medtrack/medtrackd/internal/config"
	"github.com/medtrack/medtrackd/internal/dose"
	"github.com/medtrack/medtrackd/internal/metrics"
	"github.com/medtrack/medtrackd/internal/notify"
	"github.com/medtrack/medtrackd/internal/pharmacy"
	"github.com/medtrack/medtrackd/internal/schedule"
	"github.com/medtrack/medtrackd/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting medtrackd", zap.String("version", version))

	if err := config.LoadEnvFiles(); err != nil {
		logger.Warn("Failed to load .env files", zap.Error(err))
	}

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	st, err := store.Open(store.Options{
		Path:   cfg.Storage.BadgerPath,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	pharmacyStore, err := openPharmacyStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open pharmacy directory", zap.Error(err))
	}

	m := metrics.New()
	hub := api.NewHub(logger)
	notifier := notify.Multi{notify.NewLogNotifier(logger), hub}

	evaluator := schedule.New(st, notifier, logger,
		schedule.WithInterval(cfg.Schedule.TickInterval()),
		schedule.WithMetrics(m),
	)
	processor := dose.NewProcessor(st, notifier, m, logger)
	authManager := auth.NewManager(st, auth.Config{
		Secret:            cfg.Auth.JWTSecret,
		Delay:             cfg.Auth.SimulatedDelay(),
		AttemptsPerMinute: cfg.Auth.AttemptsPerMinute,
	}, logger, nil)

	server := api.New(api.Deps{
		Config:     cfg,
		Store:      st,
		Evaluator:  evaluator,
		Processor:  processor,
		Auth:       authManager,
		Pharmacies: pharmacyStore,
		Metrics:    m,
		Hub:        hub,
		Logger:     logger,
	})

	if err := evaluator.Start(); err != nil {
		logger.Fatal("Failed to start schedule evaluator", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	evaluator.Stop()
	if err := server.Shutdown(); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}

func openPharmacyStore(cfg *config.Config) (*pharmacy.Store, error) {
	conn, err := sql.Open("sqlite", cfg.Storage.SQLitePath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	return pharmacy.NewStore(db)
}
