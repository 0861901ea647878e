package main

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C" // This is required to import the C code

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/dispatcher"
	"github.com/RacingGame/vehiclectl/internal/influx"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/monitor"
	intOtel "github.com/RacingGame/vehiclectl/internal/otel"
	"github.com/RacingGame/vehiclectl/internal/parser"
	"github.com/RacingGame/vehiclectl/internal/registry"
	"github.com/RacingGame/vehiclectl/internal/session"
	"github.com/RacingGame/vehiclectl/internal/storage"
	"github.com/RacingGame/vehiclectl/internal/worker"
	"github.com/RacingGame/vehiclectl/pkg/hostinterface"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.1.0"
	BuildDate               string = "unknown"

	ExtensionName string = "vehiclectl"
)

// file paths
var (
	// ModulePath is the absolute path to this library file.
	ModulePath string

	// AddonFolder holds the config file, the init log and the status file.
	// It is the folder the library was loaded from.
	AddonFolder string

	InitLogFilePath string
	LogFilePath     string
	LogFile         *os.File
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	graylogWriter *gelf.Writer

	SessionStartTime time.Time = time.Now()

	// Services
	sessionContext  *session.Context
	entityRegistry  *registry.Registry
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   atomic.Pointer[influx.Manager]
	eventDispatcher *dispatcher.Dispatcher
)

// init is run automatically when the module is loaded
func init() {
	var err error

	ModulePath = hostinterface.GetModulePath()
	AddonFolder = filepath.Dir(ModulePath)
	if ModulePath == "" {
		if AddonFolder, err = os.Getwd(); err != nil {
			AddonFolder = "."
		}
	}

	InitLogFilePath = filepath.Join(AddonFolder, "init.log")
	var initOut io.Writer
	if f, err := os.Create(InitLogFilePath); err != nil {
		// Log to stderr since logging isn't set up yet
		fmt.Fprintf(os.Stderr, "Failed to create init log file: %v\n", err)
	} else {
		initOut = f
	}

	// Initialize slog manager with initial config
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(initOut, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(AddonFolder); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if !filepath.IsAbs(logsDir) {
		logsDir = filepath.Join(AddonFolder, logsDir)
	}
	LogFilePath = logging.LogFilePath(logsDir, ExtensionName, SessionStartTime)
	var logOut io.Writer
	LogFile, err = logging.OpenLogFile(logsDir, ExtensionName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	} else {
		logOut = LogFile
		Logger.Info("Begin logging in logs directory", "path", LogFilePath)
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: CurrentExtensionVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logOut,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			OTelProvider.InstallGlobal()
			Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, h, err := logging.DialGraylog(gl.Address, gl.Facility)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			graylogWriter = w
			SlogManager.AddHandler(h)
		}
	}

	sessionContext = session.NewContext()
	SlogManager.SetContextProvider(sessionContext.LogAttrs)
	SlogManager.Setup(logOut, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)

	Logger.Info("Setting up host interface...")
	if err := setupHostInterface(logWriter()); err != nil {
		Logger.Error("Failed to set up host interface!", "error", err)
		panic(err)
	}
	Logger.Info("Set up host interface")
}

func setupHostInterface(trail io.Writer) error {
	hostinterface.SetVersion(CurrentExtensionVersion)

	d, err := dispatcher.New(logging.NewDispatcherLogger(
		logging.NewZerolog(trail, viper.GetString("logLevel")),
	))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	eventDispatcher = d

	entityRegistry = registry.New()
	workerManager = worker.NewManager(worker.Dependencies{
		Registry:         entityRegistry,
		Session:          sessionContext,
		LogManager:       SlogManager,
		Parser:           parser.NewParser(Logger),
		Profile:          config.GetProfileConfig,
		Camera:           config.GetCameraConfig,
		Settings:         config.Snapshot,
		StepInterval:     config.GetStorageConfig().StepInterval,
		ExtensionVersion: CurrentExtensionVersion,
		ExtensionBuild:   BuildDate,
	}, nil)
	workerManager.RegisterHandlers(d)

	monitorService = monitor.NewService(monitor.Dependencies{
		LogManager:  SlogManager,
		Session:     sessionContext,
		Registry:    entityRegistry,
		Dispatcher:  d,
		Backend:     workerManager.Backend,
		InfluxValid: influxValid,
		Metrics:     otelMetrics,
		AddonFolder: AddonFolder,
	})

	registerLifecycleHandlers(d)
	hostinterface.SetDispatcher(d)
	return nil
}

// logWriter is the session log file, or stderr when it could not be opened.
func logWriter() io.Writer {
	if LogFile == nil {
		return os.Stderr
	}
	return LogFile
}

func influxValid() bool {
	m := influxManager.Load()
	return m != nil && m.Valid()
}

// otelMetrics samples the dispatcher instruments, nil while OTel is off.
func otelMetrics() map[string]float64 {
	if OTelProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, err := OTelProvider.Snapshot(ctx)
	if err != nil {
		Logger.Debug("Failed to collect metrics", "error", err)
		return nil
	}
	return snap
}

// initStorage creates the configured backend and attaches it to the worker.
func initStorage() (string, error) {
	if b := workerManager.Backend(); b != nil {
		return "", fmt.Errorf("storage already initialized")
	}

	storageCfg := config.GetStorageConfig()
	if !filepath.IsAbs(storageCfg.Memory.OutputDir) {
		storageCfg.Memory.OutputDir = filepath.Join(AddonFolder, storageCfg.Memory.OutputDir)
	}
	if !filepath.IsAbs(storageCfg.SQLite.OutputDir) {
		storageCfg.SQLite.OutputDir = filepath.Join(AddonFolder, storageCfg.SQLite.OutputDir)
	}

	backend, err := storage.NewBackend(storageCfg, config.GetDBConfig(), SlogManager)
	if err != nil {
		return "", err
	}
	if err := backend.Init(); err != nil {
		return "", fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	workerManager.SetBackend(backend)
	Logger.Info("Storage initialized", "type", storageCfg.Type)
	return storageCfg.Type, nil
}

func main() {}
