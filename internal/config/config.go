package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/internal/camera"
)

// FileName is the configuration file looked up in the extension folder.
const FileName = "vehiclectl.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the in-memory SQLite backend settings
type SQLiteConfig struct {
	OutputDir    string        `json:"outputDir" mapstructure:"outputDir"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the telemetry backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	// StepInterval records every Nth physics step of each vehicle.
	StepInterval uint `json:"stepInterval" mapstructure:"stepInterval"`
	// QueueLimit bounds each write queue of the SQL backends.
	QueueLimit int `json:"queueLimit" mapstructure:"queueLimit"`
	// FlushInterval is how often the SQL backends drain their queues.
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Address  string `json:"address" mapstructure:"address"`
	Facility string `json:"facility" mapstructure:"facility"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SetDefaults registers every default value. Load calls it; tools that only
// read flags call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./vclogs")

	for _, p := range agent.Profiles {
		setProfileDefaults(string(p), agent.DefaultConfig(p))
	}

	cam := camera.DefaultConfig(6, 2)
	viper.SetDefault("camera.distance", cam.Distance)
	viper.SetDefault("camera.height", cam.Height)
	viper.SetDefault("camera.rotationDamping", cam.RotationDamping)
	viper.SetDefault("camera.heightDamping", cam.HeightDamping)
	viper.SetDefault("camera.reverseThreshold", cam.ReverseThreshold)
	viper.SetDefault("camera.exponential", cam.Exponential)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.outputDir", "./recordings")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.stepInterval", 1)
	viper.SetDefault("storage.queueLimit", 100000)
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.batchSize", 2000)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "vehiclectl")
	viper.SetDefault("db.sslMode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "racing")
	viper.SetDefault("influx.bucket", "vehicle_telemetry")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
	viper.SetDefault("graylog.facility", "vehiclectl")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "vehiclectl")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

func setProfileDefaults(prefix string, c agent.Config) {
	viper.SetDefault(prefix+".reachRadius", c.ReachRadius)

	p := c.Policy
	viper.SetDefault(prefix+".policy.turnThreshold", p.TurnThreshold)
	viper.SetDefault(prefix+".policy.handbrakeSpeed", p.HandbrakeSpeed)
	viper.SetDefault(prefix+".policy.obstacleSensing", p.ObstacleSensing)
	viper.SetDefault(prefix+".policy.brakingDistance", p.BrakingDistance)
	viper.SetDefault(prefix+".policy.forwardOffset", p.ForwardOffset)

	a := c.Actuation
	viper.SetDefault(prefix+".actuation.maxSteerAngle", a.MaxSteerAngle)
	viper.SetDefault(prefix+".actuation.maxTorque", a.MaxTorque)
	viper.SetDefault(prefix+".actuation.handbrakeTorque", a.HandbrakeTorque)
	viper.SetDefault(prefix+".actuation.handbrakeForwardSlip", a.HandbrakeForwardSlip)
	viper.SetDefault(prefix+".actuation.handbrakeSidewaysSlip", a.HandbrakeSidewaysSlip)
	viper.SetDefault(prefix+".actuation.slideMinSpeed", a.SlideMinSpeed)
	viper.SetDefault(prefix+".actuation.governor", a.Governor)
	viper.SetDefault(prefix+".actuation.topSpeed", a.TopSpeed)
	viper.SetDefault(prefix+".actuation.maxReverseSpeed", a.MaxReverseSpeed)
	viper.SetDefault(prefix+".actuation.spoilerRatio", a.SpoilerRatio)
	viper.SetDefault(prefix+".actuation.holdTorqueOnHandbrake", a.HoldTorqueOnHandbrake)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetProfileConfig returns the controller setup for a profile, starting from
// the stock values and applying whatever the config file overrides.
func GetProfileConfig(p agent.Profile) (agent.Config, error) {
	cfg := agent.DefaultConfig(p)
	if err := viper.UnmarshalKey(string(p), &cfg); err != nil {
		return agent.Config{}, fmt.Errorf("profile %s: %w", p, err)
	}
	return cfg, nil
}

// GetCameraConfig returns the chase camera settings.
func GetCameraConfig() camera.Config {
	return camera.Config{
		Distance:         viper.GetFloat64("camera.distance"),
		Height:           viper.GetFloat64("camera.height"),
		RotationDamping:  viper.GetFloat64("camera.rotationDamping"),
		HeightDamping:    viper.GetFloat64("camera.heightDamping"),
		ReverseThreshold: viper.GetFloat64("camera.reverseThreshold"),
		Exponential:      viper.GetBool("camera.exponential"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			OutputDir:    viper.GetString("storage.sqlite.outputDir"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		StepInterval:  viper.GetUint("storage.stepInterval"),
		QueueLimit:    viper.GetInt("storage.queueLimit"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		BatchSize:     viper.GetInt("storage.batchSize"),
	}
}

// GetDBConfig returns the PostgreSQL connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslMode"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the Graylog settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled:  viper.GetBool("graylog.enabled"),
		Address:  viper.GetString("graylog.address"),
		Facility: viper.GetString("graylog.facility"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// Settings is the part of the configuration that changes how cars drive. A
// copy is stored with every recorded session.
type Settings struct {
	Profiles     map[agent.Profile]agent.Config `json:"profiles"`
	Camera       camera.Config                  `json:"camera"`
	StepInterval uint                           `json:"stepInterval"`
}

// GetSettings collects the effective driving settings.
func GetSettings() (Settings, error) {
	s := Settings{
		Profiles:     make(map[agent.Profile]agent.Config, len(agent.Profiles)),
		Camera:       GetCameraConfig(),
		StepInterval: viper.GetUint("storage.stepInterval"),
	}
	for _, p := range agent.Profiles {
		cfg, err := GetProfileConfig(p)
		if err != nil {
			return Settings{}, err
		}
		s.Profiles[p] = cfg
	}
	return s, nil
}

// Snapshot returns the driving settings as JSON, or nil if they cannot be
// read.
func Snapshot() []byte {
	s, err := GetSettings()
	if err != nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}
