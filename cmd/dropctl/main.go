// dropctl - DropBot liquid movement controller
//
// This is the main entry point for the dropctl command. dropctl drives a
// DropBot digital microfluidics device over MQTT:
//   - Moves droplets along electrode routes with capacitance feedback
//   - Loads liquid from reservoirs onto the electrode array
//   - Gathers liquid from multiple sources to a shared target
//
// Usage:
//
//	dropctl [flags] move   -route 10,11,12,13
//	dropctl [flags] load   -channels 3,4,5
//	dropctl [flags] gather -sources 10,24 -target 17
//
// Move and load print the collected capacitance series as JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/openfluidics/dropctl/migrations"

	"github.com/openfluidics/dropctl/internal/board"
	"github.com/openfluidics/dropctl/internal/device"
	"github.com/openfluidics/dropctl/internal/infrastructure/config"
	"github.com/openfluidics/dropctl/internal/infrastructure/database"
	"github.com/openfluidics/dropctl/internal/infrastructure/influxdb"
	"github.com/openfluidics/dropctl/internal/infrastructure/logging"
	"github.com/openfluidics/dropctl/internal/infrastructure/mqtt"
	"github.com/openfluidics/dropctl/internal/move"
	"github.com/openfluidics/dropctl/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) so an in-flight
	// operation aborts cleanly and the feedback interval is restored.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments (without the program name)
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string) error {
	op, err := parseArgs(args)
	if err != nil {
		return err
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting dropctl",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open the board registry database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}

	boards := board.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect the device proxy
	proxy, err := device.ConnectMQTTProxy(&deviceMQTTAdapter{client: mqttClient}, cfg.Device.ID, byte(cfg.MQTT.QoS))
	if err != nil {
		return fmt.Errorf("connecting device proxy: %w", err)
	}
	defer func() {
		if closeErr := proxy.Close(); closeErr != nil {
			log.Error("error closing device proxy", "error", closeErr)
		}
	}()
	log.Info("device proxy connected", "device_id", cfg.Device.ID)

	// Feedback reporting is off until requested; every operation needs the
	// capacitance stream.
	if err := proxy.EnableEvent(ctx, device.EventCapacitanceUpdated); err != nil {
		return fmt.Errorf("enabling capacitance feedback: %w", err)
	}

	// Mirror feedback into InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		recorder := telemetry.NewRecorder(cfg.Device.ID, proxy, influxClient)
		recorder.Start()
		defer func() {
			recorder.Stop()
			log.Info("telemetry recorder stopped", "samples", recorder.Recorded())
		}()
	}

	controller := move.New(proxy)
	controller.SetLogger(log)

	return op.execute(ctx, controller, boards, cfg, log)
}

// operation is a parsed subcommand ready to execute.
type operation struct {
	name    string
	route   []int
	sources []int
	target  int
}

// parseArgs parses the subcommand and its flags.
//
// Parameters:
//   - args: Command-line arguments (without the program name)
//
// Returns:
//   - *operation: Parsed operation
//   - error: If the subcommand is missing, unknown, or its flags are invalid
func parseArgs(args []string) (*operation, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("usage: dropctl <move|load|gather> [flags]")
	}

	op := &operation{name: args[0]}
	fs := flag.NewFlagSet(op.name, flag.ContinueOnError)

	var routeFlag, channelsFlag, sourcesFlag string
	switch op.name {
	case "move":
		fs.StringVar(&routeFlag, "route", "", "comma-separated channels of the route, in order")
	case "load":
		fs.StringVar(&channelsFlag, "channels", "", "comma-separated channels from the reservoir edge inward")
	case "gather":
		fs.StringVar(&sourcesFlag, "sources", "", "comma-separated source channels")
		fs.IntVar(&op.target, "target", -1, "target channel")
	default:
		return nil, fmt.Errorf("unknown command %q (want move, load, or gather)", op.name)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	var err error
	switch op.name {
	case "move":
		if op.route, err = parseChannels(routeFlag); err != nil {
			return nil, fmt.Errorf("-route: %w", err)
		}
	case "load":
		if op.route, err = parseChannels(channelsFlag); err != nil {
			return nil, fmt.Errorf("-channels: %w", err)
		}
	case "gather":
		if op.sources, err = parseChannels(sourcesFlag); err != nil {
			return nil, fmt.Errorf("-sources: %w", err)
		}
		if op.target < 0 {
			return nil, fmt.Errorf("-target is required")
		}
	}
	return op, nil
}

// execute runs the parsed operation against the controller.
func (op *operation) execute(ctx context.Context, controller *move.Controller, boards board.Repository, cfg *config.Config, log *logging.Logger) error {
	steady := move.SteadyStateConfig{
		StdErrorRatio: cfg.Controller.StdErrorRatio,
		MinDuration:   cfg.Controller.MinDuration(),
		Threshold:     cfg.Controller.SteadyThreshold(),
	}
	moveOpts := move.MoveOptions{
		TrailLength: cfg.Controller.TrailLength,
		Steady:      steady,
		Wrapper:     move.WithTimeout(cfg.Controller.StepTimeout()),
	}

	switch op.name {
	case "move":
		results, err := controller.MoveLiquid(ctx, op.route, moveOpts)
		if err != nil {
			return err
		}
		log.Info("move complete", "route", op.route, "steps", len(results))
		return printJSON(move.FlattenResults(results))

	case "load":
		samples, err := controller.Load(ctx, op.route, move.LoadOptions{
			Threshold:     cfg.Controller.LoadThreshold(),
			StdErrorRatio: cfg.Controller.StdErrorRatio,
		})
		if err != nil {
			return err
		}
		log.Info("load complete", "channels", op.route, "samples", len(samples))
		return printJSON(samples)

	case "gather":
		if cfg.Device.Board == "" {
			return fmt.Errorf("gather requires device.board in the configuration")
		}
		graph, err := boards.LoadGraph(ctx, cfg.Device.Board)
		if err != nil {
			return fmt.Errorf("loading board %q: %w", cfg.Device.Board, err)
		}
		log.Info("board graph loaded",
			"board", cfg.Device.Board,
			"channels", graph.ChannelCount(),
		)
		err = controller.Gather(ctx, graph, op.sources, op.target, move.GatherOptions{
			Move:           moveOpts,
			UpdateInterval: time.Duration(cfg.Controller.UpdateIntervalMS) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		log.Info("gather complete", "sources", op.sources, "target", op.target)
		return nil
	}
	return fmt.Errorf("unknown command %q", op.name)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// parseChannels parses a comma-separated channel list like "10,11,12".
//
// Parameters:
//   - s: Comma-separated list of non-negative channel numbers
//
// Returns:
//   - []int: Parsed channels, in input order
//   - error: If the list is empty or any entry is not a valid channel
func parseChannels(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("channel list is required")
	}
	parts := strings.Split(s, ",")
	channels := make([]int, 0, len(parts))
	for _, part := range parts {
		ch, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q", part)
		}
		if ch < 0 {
			return nil, fmt.Errorf("channel must be non-negative, got %d", ch)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// deviceMQTTAdapter adapts the infrastructure MQTT client to the device
// proxy's transport interface. The two Subscribe signatures differ only by
// the named MessageHandler type, which blocks direct interface satisfaction.
type deviceMQTTAdapter struct {
	client *mqtt.Client
}

// Publish implements device.MQTTClient.
func (a *deviceMQTTAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements device.MQTTClient.
func (a *deviceMQTTAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// Unsubscribe implements device.MQTTClient.
func (a *deviceMQTTAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// getConfigPath returns the configuration file path.
// Uses DROPCTL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DROPCTL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
