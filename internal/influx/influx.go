// Package influx ships step telemetry to InfluxDB, or to a gzip line
// protocol backup file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx disabled")

// Measurement names
const (
	MeasurementStep     = "vehicle_step"
	MeasurementWaypoint = "waypoint_reached"
)

const retentionSeconds = 60 * 60 * 24 * 90 // 90 days

// Manager handles InfluxDB connections and writes.
type Manager struct {
	cfg        config.InfluxConfig
	logger     zerolog.Logger
	backupPath string

	mu         sync.Mutex
	client     influxdb2.Client
	writer     influxdb2_api.WriteAPI
	backupFile *os.File
	backup     *gzip.Writer
	valid      bool
	session    string
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	if cfg.Bucket == "" {
		cfg.Bucket = "vehicle_telemetry"
	}
	return &Manager{
		cfg:        cfg,
		logger:     log,
		backupPath: backupPath,
	}
}

// ServerURL is the address the client connects to.
func (m *Manager) ServerURL() string {
	protocol := m.cfg.Protocol
	if protocol == "" {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s:%s", protocol, m.cfg.Host, m.cfg.Port)
}

// Connect establishes a connection to InfluxDB. An unreachable server is
// not an error: points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.client = influxdb2.NewClientWithOptions(
		m.ServerURL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.valid = false
		m.logger.Warn().Err(err).Str("backupPath", m.backupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.writer = m.client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.writer.Errors())
	m.valid = true
	m.logger.Info().Str("url", m.ServerURL()).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.backup != nil {
		return nil
	}
	if m.backupPath == "" {
		return fmt.Errorf("influx unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(m.backupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(m.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.backup = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", m.cfg.Org, err)
		}
	}

	buckets := m.client.BucketsAPI()
	if _, err = buckets.FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
		}
	}
	return nil
}

// Valid reports whether points go to the server.
func (m *Manager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// SetSession tags later points with the session name.
func (m *Manager) SetSession(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = name
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid {
		m.writer.WritePoint(point)
		return nil
	}
	if m.backup == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.backup.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// RecordStep writes one step sample.
func (m *Manager) RecordStep(s *core.StepSample) error {
	return m.WritePoint(StepPoint(m.currentSession(), s))
}

// RecordWaypoint writes one waypoint event.
func (m *Manager) RecordWaypoint(e *core.WaypointEvent) error {
	return m.WritePoint(WaypointPoint(m.currentSession(), e))
}

func (m *Manager) currentSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Close flushes pending points and closes the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writer != nil {
		m.writer.Flush()
	}
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.writer = nil
	m.valid = false

	var errs []error
	if m.backup != nil {
		errs = append(errs, m.backup.Close())
		m.backup = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

// StepPoint converts a step sample to a point.
func StepPoint(session string, s *core.StepSample) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementStep)
	// tags in key order
	if session != "" {
		p.AddTag("session", session)
	}
	p.AddTag("vehicle", strconv.Itoa(int(s.VehicleID))).
		AddField("tick", s.Tick).
		AddField("x", s.Position.X()).
		AddField("y", s.Position.Y()).
		AddField("z", s.Position.Z()).
		AddField("yaw", s.Yaw).
		AddField("speed", s.Speed).
		AddField("wheelSpeed", s.WheelSpeed).
		AddField("steer", s.Signals.Steer).
		AddField("throttle", s.Signals.Throttle).
		AddField("handbrake", s.Signals.Handbrake).
		AddField("waypoint", s.WaypointIndex).
		AddField("motorTorque", s.MotorTorque).
		SetTime(s.Time)
	return p
}

// WaypointPoint converts a waypoint event to a point.
func WaypointPoint(session string, e *core.WaypointEvent) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementWaypoint)
	// tags in key order
	if session != "" {
		p.AddTag("session", session)
	}
	p.AddTag("vehicle", strconv.Itoa(int(e.VehicleID))).
		AddField("tick", e.Tick).
		AddField("reached", e.Reached).
		AddField("next", e.Next).
		AddField("lap", e.Lap).
		SetTime(e.Time)
	return p
}
