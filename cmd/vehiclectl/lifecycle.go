package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/dispatcher"
	"github.com/RacingGame/vehiclectl/internal/influx"
	"github.com/RacingGame/vehiclectl/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// InitResult answers :INIT:.
type InitResult struct {
	Storage string `json:"storage"`
	Influx  bool   `json:"influx"`
}

// registerLifecycleHandlers registers system/lifecycle command handlers with the dispatcher
func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentExtensionVersion, BuildDate}, nil
	})

	d.Register(":INIT:", func(e dispatcher.Event) (any, error) {
		storageType, err := initStorage()
		if err != nil {
			return nil, err
		}
		return InitResult{Storage: storageType, Influx: initInflux()}, nil
	}, dispatcher.Logged())

	d.Register(":STATUS:", func(e dispatcher.Event) (any, error) {
		return monitorService.GetProgramStatus(), nil
	})

	d.Register(":STATUS:START:", func(e dispatcher.Event) (any, error) {
		return nil, monitorService.Start()
	}, dispatcher.Logged())

	d.Register(":GETDIR:MODULE:", func(e dispatcher.Event) (any, error) {
		return ModulePath, nil
	})

	d.Register(":GETDIR:LOG:", func(e dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	d.Register(":LOGLEVEL:", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 1 {
			return nil, fmt.Errorf("usage: :LOGLEVEL: <debug|info|warn|error>")
		}
		SlogManager.SetLevel(e.Args[0])
		return SlogManager.Level().String(), nil
	}, dispatcher.Logged())

	d.Register(":SHUTDOWN:", func(e dispatcher.Event) (any, error) {
		return nil, shutdown()
	}, dispatcher.Logged())
}

// initInflux connects the optional InfluxDB sink. It reports whether points
// reach the server; an unreachable server still records to the backup file.
func initInflux() bool {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled || influxManager.Load() != nil {
		return influxValid()
	}

	backup := filepath.Join(AddonFolder, fmt.Sprintf("%s_influx_backup_%s.gz",
		ExtensionName, SessionStartTime.Format("20060102_150405")))
	m := influx.NewManager(cfg, logging.NewZerolog(logWriter(), config.GetString("logLevel")), backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx); err != nil {
		Logger.Error("Failed to set up InfluxDB telemetry", "error", err)
		return false
	}
	influxManager.Store(m)
	workerManager.SetTelemetry(m)
	return m.Valid()
}

// shutdown ends the running session and releases storage, telemetry and
// logging resources.
func shutdown() error {
	var errs []error

	monitorService.Stop()
	if err := workerManager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ending session: %w", err))
	}
	if b := workerManager.Backend(); b != nil {
		workerManager.SetBackend(nil)
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing storage: %w", err))
		}
	}
	if m := influxManager.Swap(nil); m != nil {
		workerManager.SetTelemetry(nil)
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing influx: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down otel: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		Logger.Error("Shutdown finished with errors", "error", err)
	} else {
		Logger.Info("Shutdown complete")
	}
	if graylogWriter != nil {
		if err := graylogWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing graylog: %w", err))
		}
		graylogWriter = nil
	}
	return errors.Join(errs...)
}
