package storage

import (
	"fmt"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/storage/memory"
	"github.com/RacingGame/vehiclectl/internal/storage/postgres"
	sqlitestorage "github.com/RacingGame/vehiclectl/internal/storage/sqlite"
)

// Backend type names accepted in storage.type.
const (
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// NewBackend creates a storage backend based on configuration. The
// backend still needs Init.
func NewBackend(cfg config.StorageConfig, db config.DBConfig, logManager *logging.SlogManager) (Backend, error) {
	switch cfg.Type {
	case TypePostgres:
		return postgres.New(db, cfg, logManager), nil
	case TypeSQLite:
		return sqlitestorage.New(cfg, logManager)
	case TypeMemory, "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
