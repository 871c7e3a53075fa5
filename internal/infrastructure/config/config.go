package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for dropctl.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
	Controller ControllerConfig `yaml:"controller"`
}

// DeviceConfig identifies the DropBot and the board mounted on it.
type DeviceConfig struct {
	// ID is the device identifier used in MQTT topics
	// (e.g. "dropbot-01" publishes on dropbot/dropbot-01/...).
	ID string `yaml:"id"`

	// Board is the ID of the electrode board definition to load from the
	// registry for route planning.
	Board string `yaml:"board"`
}

// DatabaseConfig contains SQLite board registry settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ControllerConfig contains liquid movement tuning parameters.
// Zero values fall back to the controller package defaults.
type ControllerConfig struct {
	// StdErrorRatio is the maximum standard error to median ratio for
	// capacitance to count as steady.
	StdErrorRatio float64 `yaml:"std_error_ratio"`

	// MinDurationMS is the minimum settle window length in milliseconds.
	MinDurationMS int `yaml:"min_duration_ms"`

	// SteadyThresholdPF is the minimum steady median capacitance in
	// picofarads for a droplet to count as present.
	SteadyThresholdPF float64 `yaml:"steady_threshold_pf"`

	// LoadThresholdPF is the minimum capacitance in picofarads for
	// reservoir loading.
	LoadThresholdPF float64 `yaml:"load_threshold_pf"`

	// TrailLength is the number of electrodes holding the droplet behind
	// the leading edge during a move.
	TrailLength int `yaml:"trail_length"`

	// UpdateIntervalMS is the capacitance update interval in milliseconds
	// applied while gathering.
	UpdateIntervalMS int `yaml:"update_interval_ms"`

	// StepTimeoutMS is the per-step timeout in milliseconds.
	StepTimeoutMS int `yaml:"step_timeout_ms"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DROPCTL_SECTION_KEY
// For example: DROPCTL_DATABASE_PATH, DROPCTL_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID: "dropbot-01",
		},
		Database: DatabaseConfig{
			Path:        "./data/dropctl.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "dropctl",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Controller: ControllerConfig{
			StdErrorRatio:     0.02,
			MinDurationMS:     300,
			SteadyThresholdPF: 10,
			LoadThresholdPF:   50,
			TrailLength:       1,
			UpdateIntervalMS:  25,
			StepTimeoutMS:     4000,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DROPCTL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("DROPCTL_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("DROPCTL_DEVICE_BOARD"); v != "" {
		cfg.Device.Board = v
	}

	// Database
	if v := os.Getenv("DROPCTL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("DROPCTL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DROPCTL_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("DROPCTL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DROPCTL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("DROPCTL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set DROPCTL_INFLUXDB_TOKEN environment variable)")
		}
	}

	if c.Controller.StdErrorRatio < 0 {
		errs = append(errs, "controller.std_error_ratio must not be negative")
	}
	if c.Controller.TrailLength < 0 {
		errs = append(errs, "controller.trail_length must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// MinDuration returns the settle window length as a Duration.
func (c *ControllerConfig) MinDuration() time.Duration {
	return time.Duration(c.MinDurationMS) * time.Millisecond
}

// StepTimeout returns the per-step timeout as a Duration.
func (c *ControllerConfig) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutMS) * time.Millisecond
}

// SteadyThreshold returns the steady threshold in farads.
func (c *ControllerConfig) SteadyThreshold() float64 {
	return c.SteadyThresholdPF * 1e-12
}

// LoadThreshold returns the load threshold in farads.
func (c *ControllerConfig) LoadThreshold() float64 {
	return c.LoadThresholdPF * 1e-12
}
