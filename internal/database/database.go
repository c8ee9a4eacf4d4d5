package database

import (
	"fmt"

	"github.com/yukikurage/taskboard/internal/config"
	applog "github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/storage"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open opens a gorm connection for the configured SQL driver.
func Open(cfg config.StorageConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer; one connection also keeps a
		// ":memory:" database alive for the lifetime of the pool.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Connect opens the configured database and makes it the package default.
func Connect(cfg *config.Config) error {
	db, err := Open(cfg.Storage)
	if err != nil {
		return err
	}
	DB = db

	applog.Info("Database connection established", zap.String("driver", cfg.Storage.Driver))
	return nil
}

// Migrate creates or updates the storage_entries table.
func Migrate() error {
	applog.Info("Running database migrations")
	if err := DB.AutoMigrate(&models.StorageEntry{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	applog.Info("Database migrations completed")
	return nil
}

// OpenStore returns the document store selected by cfg. SQL drivers are
// connected and migrated first.
func OpenStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		applog.Warn("Using in-memory storage, data will not survive a restart")
		return storage.NewMemoryStore(), nil
	}

	if err := Connect(cfg); err != nil {
		return nil, err
	}
	if err := Migrate(); err != nil {
		return nil, err
	}
	return storage.NewGormStore(DB), nil
}

// Close releases the default connection, if any.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
