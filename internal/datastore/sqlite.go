package datastore

import (
	"fmt"
	"path/filepath"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/logging"
	"github.com/trajlink/trajlink-go/internal/trajectory"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error
	SaveDataset(runID string, dataset *trajectory.Dataset) error
	GetTrajectory(runID, video string, globalID int) ([]FixRecord, error)
	ListVideos(runID string) ([]string, error)
	ListTrajectories(runID, video string) ([]int, error)
	GetRun(runID string) ([]FixRecord, error)
}

// SQLiteStore implements Interface for SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// New creates a store based on the configured output backend, nil when
// persistence is disabled.
func New(settings *conf.Settings) Interface {
	if settings.Output.SQLite.Enabled {
		return &SQLiteStore{Settings: settings}
	}
	return nil
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	gormLogMode := gormlogger.Silent
	if store.Settings.Debug {
		gormLogMode = gormlogger.Warn
	}

	db, err := gorm.Open(sqlite.Open(absoluteFilePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogMode),
	})
	if err != nil {
		return errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
			Category(errors.CategoryDatabase).
			Context("path", absoluteFilePath).
			Build()
	}

	if err := db.AutoMigrate(&FixRecord{}); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Category(errors.CategoryDatabase).
			Build()
	}

	store.DB = db
	if logger := logging.ForService("datastore"); logger != nil {
		logger.Info("database ready", "path", absoluteFilePath)
	}
	return nil
}

// Close releases the underlying connection pool.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
