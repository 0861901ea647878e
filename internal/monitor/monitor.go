package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/RacingGame/vehiclectl/internal/dispatcher"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/registry"
	"github.com/RacingGame/vehiclectl/internal/session"
	"github.com/RacingGame/vehiclectl/internal/storage"
)

// StatusFile is written to the addon folder while a session runs.
const StatusFile = "status.txt"

// RecordCommand is the queue whose length the status reports.
const RecordCommand = ":RECORD:"

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Registry   *registry.Registry
	Dispatcher *dispatcher.Dispatcher
	// Backend returns the active storage backend, nil before :INIT:.
	Backend func() storage.Backend
	// InfluxValid reports whether telemetry reaches InfluxDB.
	InfluxValid func() bool
	// Metrics samples the OTel instruments; nil when metrics are off.
	Metrics func() map[string]float64

	AddonFolder string
	Interval    time.Duration
	Now         func() time.Time
}

// Status is a point-in-time view of the extension.
type Status struct {
	Time     time.Time `json:"time"`
	Session  string    `json:"session"`
	Track    string    `json:"track"`
	Active   bool      `json:"active"`
	Tick     uint      `json:"tick"`
	Tracks   int       `json:"tracks"`
	Vehicles int       `json:"vehicles"`
	Cameras  int       `json:"cameras"`
	Commands []string  `json:"commands,omitempty"`

	// RecordQueue is how many records wait for storage.
	RecordQueue int            `json:"recordQueue"`
	Storage     bool           `json:"storage"`
	Pending     map[string]int `json:"pending,omitempty"`
	Influx      bool           `json:"influx"`

	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current program status
func (s *Service) GetProgramStatus() Status {
	st := Status{Time: s.deps.Now()}

	if ctx := s.deps.Session; ctx != nil {
		st.Session = ctx.GetSession().SessionName
		st.Track = ctx.GetTrack().Name
		st.Active = ctx.Active()
		st.Tick = ctx.Tick()
	}
	if r := s.deps.Registry; r != nil {
		st.Tracks, st.Vehicles, st.Cameras = r.Counts()
	}
	if d := s.deps.Dispatcher; d != nil {
		st.RecordQueue = d.QueueLen(RecordCommand)
		st.Commands = d.Commands()
	}
	if s.deps.Backend != nil {
		if b := s.deps.Backend(); b != nil {
			st.Storage = true
			if stats, ok := b.(storage.Stats); ok {
				st.Pending = stats.Pending()
			}
		}
	}
	if s.deps.InfluxValid != nil {
		st.Influx = s.deps.InfluxValid()
	}
	if s.deps.Metrics != nil {
		st.Metrics = s.deps.Metrics()
	}
	return st
}

// Lines renders the status for the status file.
func (s *Service) Lines(st Status) []string {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	return []string{string(data)}
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		path := filepath.Join(s.deps.AddonFolder, StatusFile)
		statusFile, err := os.Create(path)
		if err != nil {
			logger.Error("Error creating status file", "error", err, "path", path)
		} else {
			defer statusFile.Close()
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st := s.GetProgramStatus()
				if !st.Active || statusFile == nil {
					continue
				}
				if err := writeLines(statusFile, s.Lines(st)); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		return s.deps.LogManager.Logger()
	}
	return slog.Default()
}

func writeLines(f *os.File, lines []string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
