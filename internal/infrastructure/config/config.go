package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure for Waveform Core.
// Defaults are overridden by an optional YAML file, which is in turn
// overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Database DatabaseConfig `yaml:"database"`
	Static   StaticConfig   `yaml:"static"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the bind address in host:port form.
	Addr     string              `yaml:"addr"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`

	// RateLimit throttles ingest requests. Zero RPS disables it.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a token bucket: RPS tokens per second, Burst capacity.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// IngestConfig contains the per-request generation settings.
type IngestConfig struct {
	// Interval is the one-shot wait paid by every request before any work.
	Interval  time.Duration `yaml:"interval"`
	Amplitude float32       `yaml:"amplitude"`
	Frequency float32       `yaml:"frequency"`
	Phase     float32       `yaml:"phase"`
	Count     int           `yaml:"count"`
}

// DatabaseConfig contains relational store settings.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: "sqlite3" or "postgres".
	Driver string `yaml:"driver"`

	// Path is the SQLite database file. Ignored for postgres.
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	Postgres PostgresConfig `yaml:"postgres"`
	Pool     PoolConfig     `yaml:"pool"`

	// StatementCache memoizes the resolved insert statement instead of
	// re-resolving and re-preparing it on every insert.
	StatementCache bool `yaml:"statement_cache"`
}

// PostgresConfig contains PostgreSQL connection settings.
// DSN takes precedence over the individual fields when set.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// PoolConfig contains connection pool sizing.
// Zero MaxOpen lets the database package pick a driver-specific default.
type PoolConfig struct {
	MaxOpen         int           `yaml:"max_open"`
	MaxIdle         int           `yaml:"max_idle"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	AcquireTimeout  time.Duration `yaml:"acquire_timeout"`
}

// StaticConfig contains static asset settings.
type StaticConfig struct {
	// Prefix is the URL path prefix the directory is mounted under.
	Prefix string `yaml:"prefix"`

	// Dir is the directory served under Prefix, with listing enabled.
	Dir string `yaml:"dir"`

	// Index is the file returned by a successful ingest request.
	// Empty serves the embedded default page.
	Index string `yaml:"index"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
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
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	Measurement   string `yaml:"measurement"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, when path is non-empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WAVEFORM_SECTION_KEY
// For example: WAVEFORM_SERVER_ADDR, WAVEFORM_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for environment only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  120,
			},
		},
		Ingest: IngestConfig{
			Interval:  10 * time.Second,
			Amplitude: 2.0,
			Frequency: 0.1,
			Phase:     0.0,
			Count:     10,
		},
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			Path:        "./data/waveform.db",
			WALMode:     true,
			BusyTimeout: 5,
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
			Pool: PoolConfig{
				ConnMaxLifetime: time.Hour,
				ConnMaxIdleTime: 30 * time.Minute,
				AcquireTimeout:  5 * time.Second,
			},
		},
		Static: StaticConfig{
			Prefix: "/static",
			Dir:    ".",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "waveform-core",
			},
			QoS:         1,
			TopicPrefix: "waveform",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Measurement:   "waveform",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WAVEFORM_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	// Server
	setString("WAVEFORM_SERVER_ADDR", &cfg.Server.Addr)

	// Ingest
	setDuration("WAVEFORM_INGEST_INTERVAL", &cfg.Ingest.Interval)
	setInt("WAVEFORM_INGEST_COUNT", &cfg.Ingest.Count)

	// Database
	setString("WAVEFORM_DATABASE_DRIVER", &cfg.Database.Driver)
	setString("WAVEFORM_DATABASE_PATH", &cfg.Database.Path)
	setString("WAVEFORM_DATABASE_DSN", &cfg.Database.Postgres.DSN)
	setString("WAVEFORM_PG_HOST", &cfg.Database.Postgres.Host)
	setInt("WAVEFORM_PG_PORT", &cfg.Database.Postgres.Port)
	setString("WAVEFORM_PG_USER", &cfg.Database.Postgres.User)
	setString("WAVEFORM_PG_PASSWORD", &cfg.Database.Postgres.Password)
	setString("WAVEFORM_PG_DBNAME", &cfg.Database.Postgres.DBName)
	setInt("WAVEFORM_PG_POOL_MAX_SIZE", &cfg.Database.Pool.MaxOpen)

	// Static
	setString("WAVEFORM_STATIC_DIR", &cfg.Static.Dir)
	setString("WAVEFORM_STATIC_INDEX", &cfg.Static.Index)

	// MQTT
	setString("WAVEFORM_MQTT_HOST", &cfg.MQTT.Broker.Host)
	setString("WAVEFORM_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("WAVEFORM_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	// InfluxDB
	setString("WAVEFORM_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	// Logging
	setString("WAVEFORM_LOG_LEVEL", &cfg.Logging.Level)

	return errors.Join(errs...)
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	} else if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, fmt.Sprintf("server.addr must be host:port: %v", err))
	}

	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		errs = append(errs, "server.rate_limit values must not be negative")
	}

	// Ingest validation
	if c.Ingest.Interval < 0 {
		errs = append(errs, "ingest.interval must not be negative")
	}
	if c.Ingest.Count < 0 {
		errs = append(errs, "ingest.count must not be negative")
	}
	// Every request sleeps for the interval before writing, so a shorter
	// write timeout would cut off every response.
	if c.Server.Timeouts.Write > 0 && c.GetWriteTimeout() <= c.Ingest.Interval {
		errs = append(errs, "server.timeouts.write must exceed ingest.interval")
	}

	// Database validation
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.Postgres.DSN == "" && (c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "") {
			errs = append(errs, "database.postgres requires dsn or host and dbname")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q", DriverSQLite, DriverPostgres))
	}
	if c.Database.Pool.MaxOpen < 0 || c.Database.Pool.MaxIdle < 0 {
		errs = append(errs, "database.pool sizes must not be negative")
	}
	if c.Database.Pool.AcquireTimeout < 0 {
		errs = append(errs, "database.pool.acquire_timeout must not be negative")
	}

	// Static validation
	if !strings.HasPrefix(c.Static.Prefix, "/") || c.Static.Prefix == "/" {
		errs = append(errs, "static.prefix must start with / and not be the root path")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}
