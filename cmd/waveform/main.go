// Waveform Core - sine waveform ingestion service
//
// This is the main entry point for the Waveform Core HTTP service. On every
// request to GET / it waits the configured interval, generates a sine wave,
// stores each sample as two coordinate rows and serves the index document.
//
// Configuration comes from an optional YAML file named by WAVEFORM_CONFIG
// and WAVEFORM_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/waveform-core/internal/api"
	"github.com/nerrad567/waveform-core/internal/coordinate"
	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
	"github.com/nerrad567/waveform-core/internal/infrastructure/database"
	"github.com/nerrad567/waveform-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/waveform-core/internal/infrastructure/logging"
	"github.com/nerrad567/waveform-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/waveform-core/internal/ingest"
	"github.com/nerrad567/waveform-core/internal/static"
	"github.com/nerrad567/waveform-core/internal/waveform"
	"github.com/nerrad567/waveform-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It blocks until ctx is cancelled and returns nil on clean shutdown.
func run(ctx context.Context) error {
	return runWith(ctx, nil)
}

// runWith is run with a hook that receives the started server. Tests use
// it to learn the bound address.
func runWith(ctx context.Context, onStarted func(*api.Server)) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Waveform Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := os.Getenv("WAVEFORM_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(databaseConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "driver", db.Dialect(), "path", db.Path())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, string(db.Dialect())),
	)

	var observers []ingest.Observer

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		trackConnection(mqttClient, registry)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"topic", mqttClient.Topics().IngestRuns(),
		)

		publisher := newRunPublisher(mqttClient, log)
		// Runs after the server has stopped and before the client closes.
		defer publisher.Wait()
		observers = append(observers, publisher)
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		observers = append(observers, newSampleMirror(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	var gwOpts []coordinate.Option
	if cfg.Database.StatementCache {
		gwOpts = append(gwOpts, coordinate.WithStatementCache())
	}

	orchestrator, err := ingest.New(ingest.Config{
		Interval: cfg.Ingest.Interval,
		Params: waveform.Params{
			Amplitude: cfg.Ingest.Amplitude,
			Frequency: cfg.Ingest.Frequency,
			Phase:     cfg.Ingest.Phase,
			Count:     cfg.Ingest.Count,
		},
	}, ingest.Deps{
		Pool:      db,
		Inserter:  coordinate.NewGateway(db.Dialect(), gwOpts...),
		Logger:    log,
		Metrics:   ingest.NewMetrics(registry),
		Observers: observers,
	})
	if err != nil {
		return fmt.Errorf("creating ingest orchestrator: %w", err)
	}

	index, err := static.NewIndex(cfg.Static.Index)
	if err != nil {
		return fmt.Errorf("loading index document: %w", err)
	}

	deps := api.Deps{
		Config:   cfg.Server,
		Static:   cfg.Static,
		Logger:   log,
		Ingest:   orchestrator,
		Index:    index,
		DB:       db,
		Version:  version,
		Registry: registry,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal", "address", server.Addr())

	if onStarted != nil {
		onStarted(server)
	}

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// databaseConfig maps the configuration section onto database.Config.
// PostgreSQL connection fields are rendered into a DSN unless one is given.
func databaseConfig(c config.DatabaseConfig) database.Config {
	dbCfg := database.Config{
		Driver:          database.Dialect(c.Driver),
		Path:            c.Path,
		WALMode:         c.WALMode,
		BusyTimeout:     c.BusyTimeout,
		MaxOpenConns:    c.Pool.MaxOpen,
		MaxIdleConns:    c.Pool.MaxIdle,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: c.Pool.ConnMaxIdleTime,
		AcquireTimeout:  c.Pool.AcquireTimeout,
		Migrations:      migrations.FS(),
	}

	if dbCfg.Driver == database.DialectPostgres {
		dbCfg.DSN = c.Postgres.DSN
		if dbCfg.DSN == "" {
			dbCfg.DSN = database.PostgresDSN(database.PostgresParams{
				Host:     c.Postgres.Host,
				Port:     c.Postgres.Port,
				User:     c.Postgres.User,
				Password: c.Postgres.Password,
				DBName:   c.Postgres.DBName,
				SSLMode:  c.Postgres.SSLMode,
			})
		}
	}

	return dbCfg
}

// healthCheck verifies every enabled backend before serving.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
