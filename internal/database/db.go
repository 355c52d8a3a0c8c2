package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path  string // Path to SQLite database file
	Debug bool   // Log every SQL statement
}

// DB wraps the GORM database instance
type DB struct {
	db *gorm.DB
}

// NewDB creates a new database connection with pure Go SQLite driver
func NewDB(config Config, log *logrus.Logger) (*DB, error) {
	var gormLog logger.Interface
	if log != nil {
		level := logger.Warn
		if config.Debug {
			level = logger.Info
		}
		gormLog = logger.New(
			log,
			logger.Config{
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	if dir := filepath.Dir(config.Path); dir != "." && config.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// Pure Go SQLite driver, no cgo
	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        config.Path,
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", config.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := configureSQLite(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.AutoMigrate(&ModemSighting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if log != nil {
		log.WithField("path", config.Path).Debug("Database initialized")
	}

	return &DB{db: db}, nil
}

// configureSQLite applies SQLite settings
func configureSQLite(sqlDB *sql.DB) error {
	// A single writer (the receive loop hook) and occasional readers
	sqlDB.SetMaxOpenConns(1)

	pragmaSettings := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=memory",
	}

	for _, pragma := range pragmaSettings {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the underlying GORM database instance
func (db *DB) GetDB() *gorm.DB {
	return db.db
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
