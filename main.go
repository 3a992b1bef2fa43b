package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"productapi/internal/config"
	"productapi/internal/logging"
	"productapi/internal/repositories"
	"productapi/internal/server"
	"productapi/internal/services"
	"productapi/pkg/airtable"
	"productapi/pkg/rabbitmq"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// --- Initialize Record Store ---
	store, closeStore, err := newRecordStore(cfg.Store)
	if err != nil {
		logger.Fatalf("Failed to initialize %s record store: %v", cfg.Store.Driver, err)
	}
	defer closeStore()
	logger.WithField("store", cfg.Store.Driver).Info("Record store initialized")

	// --- Initialize RabbitMQ Client (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		if cfg.RabbitMQ.ConsumeEvents {
			if err := mqClient.ConsumeProductEvents(rabbitmq.LogProductEvent(logger)); err != nil {
				logger.Errorf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	} else {
		logger.Info("RABBITMQ_URL not set, product events are disabled")
	}

	// --- Initialize Repositories, Services and App ---
	productRepo := repositories.NewRecordProductRepository(store)
	productService := services.NewProductService(productRepo, publisher, logger)

	app := server.NewApp(server.Options{
		ProductService: productService,
		Logger:         logger,
		StoreName:      cfg.Store.Driver,
		AccessLog:      os.Stdout,
	})

	// --- Start HTTP Server ---
	logger.Infof("Starting server on %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		logger.Errorf("Error during Fiber shutdown: %v", err)
	}
	logger.Info("Server gracefully stopped")
}

// newRecordStore builds the record store selected by the configuration.
// The returned func releases its resources.
func newRecordStore(cfg config.StoreConfig) (repositories.RecordStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.StoreAirtable:
		client, err := airtable.NewClient(airtable.Config{
			APIKey:  cfg.AirtableAPIKey,
			BaseID:  cfg.AirtableBaseID,
			BaseURL: cfg.AirtableAPIURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() error {
			client.Close()
			return nil
		}
		return repositories.NewAirtableRecordStore(client.Table(cfg.AirtableTableName)), closeClient, nil

	case config.StoreSQLite, config.StorePostgres:
		dialector := sqlite.Open(cfg.DatabaseDSN)
		if cfg.Driver == config.StorePostgres {
			dialector = postgres.Open(cfg.DatabaseDSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		store, err := repositories.NewGORMRecordStore(db)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return store, sqlDB.Close, nil

	case config.StoreMemory:
		return repositories.NewMemoryRecordStore(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown record store %q", cfg.Driver)
	}
}
