package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// pinPattern is the required credential format: exactly four ASCII digits.
var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Config is the root configuration structure for doorgate.
// All configuration is loaded from YAML and can be overridden by
// environment variables. There is no ambient global state: the loaded
// Config is passed explicitly into each component at construction.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Actuator ActuatorConfig `yaml:"actuator"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Admin    AdminConfig    `yaml:"admin"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// ActuatorConfig selects and configures the door-release transport.
type ActuatorConfig struct {
	// Mode selects the transport: "http", "mqtt", or "none" (dry run).
	Mode string `yaml:"mode"`

	// URL is the door controller's open endpoint for http mode,
	// e.g. "http://192.168.1.105/open_door".
	URL string `yaml:"url"`

	// Topic is the door relay command topic for mqtt mode.
	Topic string `yaml:"topic"`

	// Timeout is the per-trigger deadline in seconds. The door
	// controller either acknowledges within this window or the attempt
	// is recorded as an actuator failure.
	Timeout int `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings, used only when
// the actuator runs in mqtt mode.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`
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

// AdminConfig describes the fallback administrative subject that is
// provisioned at startup and protected from removal. The credential
// also gates the administrative menu.
type AdminConfig struct {
	Credential  string `yaml:"credential"`
	DisplayName string `yaml:"display_name"`
	ExternalID  string `yaml:"external_id"`
}

// InfluxDBConfig contains the optional access-event metrics sink.
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

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern DOORGATE_SECTION_KEY,
// e.g. DOORGATE_DATABASE_PATH, DOORGATE_ACTUATOR_URL.
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

// defaultConfig returns a Config with sensible defaults. The admin
// identity defaults match the system doorgate replaces, so an existing
// roster database keeps working unmodified.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/doorgate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Actuator: ActuatorConfig{
			Mode:    "http",
			Timeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "doorgate",
			},
			QoS: 1,
		},
		Admin: AdminConfig{
			Credential:  "1234",
			DisplayName: "Admin User",
			ExternalID:  "AD001",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies DOORGATE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOORGATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("DOORGATE_ACTUATOR_MODE"); v != "" {
		cfg.Actuator.Mode = v
	}
	if v := os.Getenv("DOORGATE_ACTUATOR_URL"); v != "" {
		cfg.Actuator.URL = v
	}
	if v := os.Getenv("DOORGATE_ACTUATOR_TOPIC"); v != "" {
		cfg.Actuator.Topic = v
	}

	if v := os.Getenv("DOORGATE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DOORGATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DOORGATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("DOORGATE_ADMIN_CREDENTIAL"); v != "" {
		cfg.Admin.Credential = v
	}

	if v := os.Getenv("DOORGATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	switch c.Actuator.Mode {
	case "http":
		if c.Actuator.URL == "" {
			errs = append(errs, "actuator.url is required in http mode")
		}
	case "mqtt":
		if c.Actuator.Topic == "" {
			errs = append(errs, "actuator.topic is required in mqtt mode")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required in mqtt mode")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	case "none":
		// dry-run mode, nothing to validate
	default:
		errs = append(errs, fmt.Sprintf("actuator.mode %q must be http, mqtt, or none", c.Actuator.Mode))
	}

	if c.Actuator.Timeout < 1 {
		errs = append(errs, "actuator.timeout must be at least 1 second")
	}

	// The fallback admin credential is a normal roster credential and
	// must satisfy the same format rule as any other PIN.
	if !pinPattern.MatchString(c.Admin.Credential) {
		errs = append(errs, "admin.credential must be exactly 4 digits")
	}
	if c.Admin.DisplayName == "" {
		errs = append(errs, "admin.display_name is required")
	}
	if c.Admin.ExternalID == "" {
		errs = append(errs, "admin.external_id is required")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set DOORGATE_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetActuatorTimeout returns the actuator trigger deadline as a Duration.
func (c *Config) GetActuatorTimeout() time.Duration {
	return time.Duration(c.Actuator.Timeout) * time.Second
}
