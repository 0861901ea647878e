// Package postgres implements the storage.Backend interface on PostgreSQL
// through the shared GORM backend.
package postgres

import (
	"gorm.io/gorm"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/database"
	"github.com/RacingGame/vehiclectl/internal/logging"
	gormstorage "github.com/RacingGame/vehiclectl/internal/storage/gorm"
)

// New returns a GORM backend that connects to PostgreSQL on Init.
func New(db config.DBConfig, cfg config.StorageConfig, logManager *logging.SlogManager) *gormstorage.Backend {
	return gormstorage.New(gormstorage.Dependencies{
		Open: func() (*gorm.DB, error) {
			return database.OpenPostgres(db, cfg.BatchSize)
		},
		LogManager:    logManager,
		BatchSize:     cfg.BatchSize,
		QueueLimit:    cfg.QueueLimit,
		FlushInterval: cfg.FlushInterval,
	})
}
