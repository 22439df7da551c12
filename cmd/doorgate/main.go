// doorgate - PIN-based door access control
//
// doorgate runs the access gate for a single door: an operator-facing
// menu on stdin/stdout, a SQLite-backed credential roster, and a
// remote door-release trigger (HTTP or MQTT). Every access attempt,
// granted or denied, is written to the audit trail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/oakfield-labs/doorgate/migrations"

	"github.com/oakfield-labs/doorgate/internal/access"
	"github.com/oakfield-labs/doorgate/internal/actuator"
	"github.com/oakfield-labs/doorgate/internal/audit"
	"github.com/oakfield-labs/doorgate/internal/console"
	"github.com/oakfield-labs/doorgate/internal/infrastructure/config"
	"github.com/oakfield-labs/doorgate/internal/infrastructure/database"
	"github.com/oakfield-labs/doorgate/internal/infrastructure/logging"
	"github.com/oakfield-labs/doorgate/internal/roster"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting doorgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Provision the fallback admin so a fresh database is immediately
	// operable.
	subjectRepo := roster.NewSubjectRepository(db.DB)
	created, err := roster.EnsureFallbackAdmin(ctx, subjectRepo, roster.FallbackAdmin{
		Credential:  cfg.Admin.Credential,
		DisplayName: cfg.Admin.DisplayName,
		ExternalID:  cfg.Admin.ExternalID,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("provisioning fallback admin: %w", err)
	}
	if created {
		log.Info("fallback admin provisioned", "external_id", cfg.Admin.ExternalID)
	}

	trigger, cleanup, err := buildTrigger(cfg, log)
	if err != nil {
		return fmt.Errorf("setting up actuator: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	recorders, closeRecorders, err := buildRecorders(db, cfg, log)
	if err != nil {
		return fmt.Errorf("setting up audit recorders: %w", err)
	}
	if closeRecorders != nil {
		defer closeRecorders()
	}

	controller := access.NewController(subjectRepo, trigger, recorders, cfg.GetActuatorTimeout(), log.Logger)
	service := roster.NewService(subjectRepo, cfg.Admin.Credential, log.Logger)
	gate := roster.NewSharedSecretGate(cfg.Admin.Credential)
	eventRepo := audit.NewSQLiteRepository(db.DB)

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete", "actuator_mode", cfg.Actuator.Mode)

	menu := console.New(os.Stdin, os.Stdout, controller, service, eventRepo, gate, log.Logger)
	if err := menu.Run(ctx); err != nil {
		return fmt.Errorf("running menu: %w", err)
	}

	log.Info("doorgate stopped")
	return nil
}

// buildTrigger creates the door-release transport selected by
// actuator.mode. The returned cleanup func (may be nil) disconnects
// long-lived transports.
func buildTrigger(cfg *config.Config, log *logging.Logger) (actuator.Trigger, func(), error) {
	switch cfg.Actuator.Mode {
	case "http":
		log.Info("actuator transport: http", "url", cfg.Actuator.URL)
		return actuator.NewHTTPTrigger(cfg.Actuator.URL, cfg.GetActuatorTimeout(), log.Logger), nil, nil

	case "mqtt":
		trigger, err := actuator.NewMQTTTrigger(cfg, log.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting mqtt trigger: %w", err)
		}
		log.Info("actuator transport: mqtt",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"topic", cfg.Actuator.Topic,
		)
		return trigger, func() {
			log.Info("disconnecting mqtt trigger")
			trigger.Close()
		}, nil

	case "none":
		log.Warn("actuator transport: none, door release is a dry run")
		return actuator.Nop{}, nil, nil

	default:
		// Config validation rejects unknown modes before we get here.
		return nil, nil, fmt.Errorf("unknown actuator mode %q", cfg.Actuator.Mode)
	}
}

// buildRecorders assembles the audit fan-out: the structured log line
// and the SQLite trail always, InfluxDB when enabled. The returned
// close func (may be nil) flushes the InfluxDB client.
func buildRecorders(db *database.DB, cfg *config.Config, log *logging.Logger) ([]access.Recorder, func(), error) {
	recorders := []access.Recorder{
		audit.NewLogRecorder(log.Logger),
		audit.NewSQLiteRepository(db.DB),
	}

	if !cfg.InfluxDB.Enabled {
		log.Info("influxdb metrics disabled")
		return recorders, nil, nil
	}

	influx, err := audit.NewInfluxRecorder(cfg.InfluxDB, func(err error) {
		log.Error("influxdb write error", "error", err)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to influxdb: %w", err)
	}
	log.Info("influxdb metrics enabled",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)

	recorders = append(recorders, influx)
	return recorders, func() {
		log.Info("closing influxdb connection")
		influx.Close()
	}, nil
}

// getConfigPath returns the configuration file path.
// Uses DOORGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOORGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
