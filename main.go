package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/article-analytics/internal/analytics"
	"github.com/jonesrussell/article-analytics/internal/api"
	"github.com/jonesrussell/article-analytics/internal/config"
	"github.com/jonesrussell/article-analytics/internal/handler"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/storage"
	"github.com/jonesrussell/article-analytics/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	db, err := connectDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	return runServer(cfg, log, db)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// connectDatabase opens and verifies a pooled database connection.
func connectDatabase(cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := storage.NewPostgresConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)
	return db, nil
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger, db *sqlx.DB) int {
	store := storage.NewStore(db, log)
	engine := analytics.NewEngine(log, cfg.Analysis.DefaultSeed)
	metrics := telemetry.New()

	analysisHandler := handler.NewAnalysisHandler(store, engine, metrics, log, cfg.Analysis.MaxRows)
	articleHandler := handler.NewArticleHandler(store, log)
	healthHandler := handler.NewHealthHandler(cfg.Service.Version, store)

	// done signals background goroutines (rate limiter) on shutdown.
	done := make(chan struct{})
	defer close(done)

	server := api.NewServer(cfg, analysisHandler, articleHandler, healthHandler, metrics, log, done)

	log.Info("Article analytics starting",
		logger.Int("port", cfg.Service.Port),
		logger.Int("max_rows", cfg.Analysis.MaxRows),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Article analytics exited cleanly")
	return 0
}
