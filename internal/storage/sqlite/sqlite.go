// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition. The SQLite-specific concerns are
// creating the in-memory DB, the per-session dump file and the dump loop.
package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/database"
	"github.com/RacingGame/vehiclectl/internal/logging"
	gormstorage "github.com/RacingGame/vehiclectl/internal/storage/gorm"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg config.SQLiteConfig
	log *logging.SlogManager

	mu       sync.Mutex
	dumpPath string
	lastDump string

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg config.StorageConfig, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.OpenSQLite("", cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		LogManager:    logManager,
		BatchSize:     cfg.BatchSize,
		QueueLimit:    cfg.QueueLimit,
		FlushInterval: cfg.FlushInterval,
	})

	return &Backend{
		Backend: gormBackend,
		db:      db,
		cfg:     cfg.SQLite,
		log:     logManager,
	}, nil
}

// DumpFileName names the dump of a session.
func DumpFileName(sessionName string, start time.Time) string {
	name := strings.NewReplacer(" ", "_", ":", "_", string(filepath.Separator), "_").Replace(sessionName)
	if name == "" {
		name = "session"
	}
	return fmt.Sprintf("%s_%s.db", name, start.Format("20060102_150405"))
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.OutputDir != "" {
		if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	if b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}
	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	return b.Backend.Close()
}

// StartSession records the session and picks its dump file.
func (b *Backend) StartSession(session *core.Session, track *core.Track) error {
	if err := b.Backend.StartSession(session, track); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cfg.OutputDir != "" {
		b.dumpPath = filepath.Join(b.cfg.OutputDir, DumpFileName(session.SessionName, session.StartTime))
	}
	return nil
}

// EndSession flushes the queues and writes the final dump.
func (b *Backend) EndSession() error {
	if err := b.Backend.EndSession(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dumpPath == "" {
		return nil
	}
	if err := database.DumpMemoryDBToDisk(b.db, b.dumpPath); err != nil {
		return err
	}
	b.lastDump = b.dumpPath
	b.dumpPath = ""
	return nil
}

// ExportedFilePath returns the dump written at the last session end.
func (b *Backend) ExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDump
}

func (b *Backend) logf(level, format string, args ...any) {
	if b.log != nil {
		b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf(format, args...), level)
	}
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.dumpNow()
		}
	}
}

func (b *Backend) dumpNow() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dumpPath == "" {
		return
	}
	start := time.Now()
	if err := b.Flush(); err != nil {
		b.logf("ERROR", "Error flushing before dump: %v", err)
	}
	if err := database.DumpMemoryDBToDisk(b.db, b.dumpPath); err != nil {
		b.logf("ERROR", "Error dumping to disk: %v", err)
		return
	}
	b.logf("DEBUG", "Dumped to disk in %s", time.Since(start))
}
