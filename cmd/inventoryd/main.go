// inventoryd serves the device inventory: devices, the people they are
// checked out to, and the audit trail of every change.
//
// Usage:
//
//	inventoryd                      run the HTTP API
//	inventoryd token -subject ada -role admin
//	                                print a bearer token for the API
//
// Configuration is read from configs/config.yaml (or $INVENTORY_CONFIG).
// Without a file the built-in defaults apply: three CSV files under
// ./data and the API on localhost:5002.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/device-inventory/internal/api"
	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/events"
	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
	"github.com/nerrad567/device-inventory/internal/infrastructure/influxdb"
	"github.com/nerrad567/device-inventory/internal/infrastructure/logging"
	"github.com/nerrad567/device-inventory/internal/infrastructure/mqtt"
	"github.com/nerrad567/device-inventory/internal/stamp"
	"github.com/nerrad567/device-inventory/internal/user"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled.
func run(ctx context.Context) error { //nolint:gocognit // startup wiring: storage + optional integrations + API
	log := logging.Default()
	log.Info("starting device inventory",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	if found {
		log.Info("configuration loaded", "path", configPath)
	} else {
		log.Info("no configuration file, using defaults", "path", configPath)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing storage", "error", closeErr)
		}
	}()
	log.Info("storage ready", "backend", cfg.Storage.Backend, "location", st.location)

	src := stamp.System{}

	recorder := history.NewRecorder(st.history, src)
	recorder.SetLogger(log)

	devices := device.NewManager(st.devices, recorder, src)
	devices.SetLogger(log)

	users := user.NewRegistry(st.users, src)
	users.SetLogger(log)

	checks := map[string]api.HealthChecker{}
	if st.db != nil {
		checks["database"] = st.db
	}

	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		fwd := events.NewMQTTForwarder(mqttClient, mqttClient.Topics(), mqttClient.DefaultQoS())
		fwd.SetLogger(log)
		recorder.AddNotifier(fwd)
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
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

		recorder.AddNotifier(events.NewUsageForwarder(influxClient))
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Devices:  devices,
		Users:    users,
		History:  recorder,
		Checks:   checks,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if !cfg.AuthEnabled() {
		log.Warn("authentication disabled: set security.jwt.secret to protect write endpoints")
	}

	log.Info("device inventory started",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the configuration file path.
// It checks the INVENTORY_CONFIG environment variable first.
func getConfigPath() string {
	if path := os.Getenv("INVENTORY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
