// cmd/relaynode/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brutella/can"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/relaynode/internal/canbus"
	"github.com/tamzrod/relaynode/internal/config"
	"github.com/tamzrod/relaynode/internal/device"
	"github.com/tamzrod/relaynode/internal/dispatch"
	"github.com/tamzrod/relaynode/internal/node"
	"github.com/tamzrod/relaynode/internal/output"
	"github.com/tamzrod/relaynode/internal/relay"
	"github.com/tamzrod/relaynode/internal/report"
	"github.com/tamzrod/relaynode/internal/status"
	"github.com/tamzrod/relaynode/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// exitRestart asks the service manager to start the node again.
const exitRestart = 3

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: relaynode <config.yaml>")
		os.Exit(2)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		logrus.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	log := newLogger(cfg.Log)

	os.Exit(run(cfg, log))
}

func newLogger(c config.LogConfig) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	if lvl, err := logrus.ParseLevel(c.Level); err == nil {
		l.Level = lvl
	}
	if c.Format == "json" {
		l.Formatter = new(logrus.JSONFormatter)
	} else {
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return l
}

type backend interface {
	store.Store
	store.Publisher
}

func buildStore(ctx context.Context, c config.StoreConfig) (backend, func() error, error) {
	if c.Backend == config.StoreRedis {
		return store.NewRedis(ctx, store.RedisConfig{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
			Prefix:   c.Prefix,
		})
	}
	return store.NewMemory(), func() error { return nil }, nil
}

// seedSettings stores boot values that peers may query but that were
// never written, and lets a stored relay mode override the file.
func seedSettings(ctx context.Context, st store.Store, cfg *config.Config, log logrus.FieldLogger) {
	if v, err := store.GetU8(ctx, st, store.RelayMode); err == nil {
		if m := output.Mode(v); m.Valid() {
			cfg.Relay.Mode = m.String()
		} else {
			log.WithField("mode", v).Warn("stored relay mode invalid, using config")
		}
	} else if errors.Is(err, store.ErrNotFound) {
		if m, err := output.ParseMode(cfg.Relay.Mode); err == nil {
			_ = store.SetU8(ctx, st, store.RelayMode, uint8(m))
		}
	}

	if _, err := store.GetU8(ctx, st, store.HardwareRevision); errors.Is(err, store.ErrNotFound) {
		_ = store.SetU8(ctx, st, store.HardwareRevision, cfg.Node.HwRevision)
	}
}

func run(cfg *config.Config, log *logrus.Logger) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --------------------
	// Store + identity
	// --------------------

	st, closeStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		log.Errorf("store init failed: %v", err)
		return 1
	}
	defer closeStore()

	seedSettings(ctx, st, cfg, log.WithField("component", "store"))

	id, err := node.Load(ctx, cfg.Node.DeviceType, cfg.Node.DeviceID, cfg.Node.UID, st, log.WithField("component", "node"))
	if err != nil {
		log.Errorf("identity load failed: %v", err)
		return 1
	}

	// --------------------
	// Outputs (power-up default: all off)
	// --------------------

	drv, closeBanks, err := output.Build(cfg.Relay, cfg.Outputs)
	if err != nil {
		log.Errorf("output build failed: %v", err)
		return 1
	}
	defer closeBanks()

	if err := drv.Reset(ctx); err != nil {
		log.WithError(err).Warn("output reset incomplete")
	}

	// --------------------
	// CAN bus
	// --------------------

	sock, err := canbus.Open(cfg.Bus.Interface, id.Filters())
	if err != nil {
		log.Errorf("can open failed: %v", err)
		return 1
	}
	id.OnFilters(sock.SetFilters)

	bus := can.NewBus(can.NewReadWriteCloser(sock))
	defer bus.Disconnect()

	tx := canbus.NewTransmitter(id, cfg.Bus.TxQueue, log.WithField("component", "tx"))
	rep := report.NewReporter(tx, time.Duration(cfg.Report.IntervalMs)*time.Millisecond, log.WithField("component", "report"))

	// --------------------
	// Engine + runner
	// --------------------

	commands := relay.NewCommandChannel(cfg.Relay.Queue)
	engine := relay.NewEngine(cfg.Relay.Capacity, time.Duration(cfg.Relay.IdleIntervalMs)*time.Millisecond)
	runner := relay.NewRunner(engine, commands, drv, log.WithField("component", "relay"))

	if cfg.Status.Enabled {
		pub := status.NewPublisher(st, uint8(drv.Mode()), engine.Capacity(), log.WithField("component", "status"))
		runner.SetObserver(pub)
		go pub.Run(ctx)
	}

	// --------------------
	// Dispatcher + device handlers
	// --------------------

	disp := dispatch.New(id, commands, log.WithField("component", "dispatch"))
	policy, _ := dispatch.ParsePolicy(cfg.Relay.Malformed)
	disp.SetMalformedPolicy(policy, rep)

	restart := make(chan string, 1)
	dev := device.New(ctx, device.Config{
		Identity: id,
		Store:    st,
		Sender:   tx,
		Reporter: rep,
		Version:  version,
		Restart: func(reason string) {
			select {
			case restart <- reason:
			default:
			}
		},
		Persistent: cfg.Store.Backend == config.StoreRedis,
		Log:        log.WithField("component", "device"),
	}, cfg.Node.CustomString)
	dev.Register(disp)

	bus.SubscribeFunc(func(f can.Frame) {
		_ = disp.Dispatch(ctx, f)
	})

	// --------------------
	// Tasks
	// --------------------

	go runner.Run(ctx)
	go tx.Run(ctx, bus)

	busErr := make(chan error, 1)
	go func() { busErr <- bus.ConnectAndPublish() }()

	if err := dev.Announce(ctx); err != nil {
		log.WithError(err).Warn("announce failed")
	}

	typ, devID := id.Address()
	log.WithFields(logrus.Fields{
		"interface":   cfg.Bus.Interface,
		"device_type": typ,
		"device_id":   devID,
		"mode":        drv.Mode(),
		"version":     version,
	}).Info("relaynode started")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return 0

	case reason := <-restart:
		log.WithField("reason", reason).Warn("restart")
		return exitRestart

	case err := <-busErr:
		log.WithError(err).Error("can bus closed")
		return 1
	}
}
