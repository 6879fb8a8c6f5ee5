// Package daemon wires the settings store, state machine, scheduler and
// transport into one long-running process.
package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/illarion/dehook/internal/alarm"
	"github.com/illarion/dehook/internal/bus"
	"github.com/illarion/dehook/internal/clock"
	"github.com/illarion/dehook/internal/config"
	"github.com/illarion/dehook/internal/protection"
	"github.com/illarion/dehook/internal/scheduler"
	"github.com/illarion/dehook/internal/server"
	"github.com/illarion/dehook/internal/storage"
	"go.uber.org/zap"
)

// Daemon owns every component of a running dehook process
type Daemon struct {
	cfg    *config.Config
	logger *zap.Logger

	Store     storage.Store
	Alarms    *alarm.Alarms
	Scheduler *scheduler.Scheduler
	Machine   *protection.Machine
	Hub       *bus.Hub
	server    *server.Server
}

// New opens the store, seeds it on first run and recovers the revert
// schedule. Requests are not served until Run.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Daemon, error) {
	return newWithClock(ctx, cfg, logger, clock.Real())
}

func newWithClock(ctx context.Context, cfg *config.Config, logger *zap.Logger, c clock.Clock) (*Daemon, error) {
	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		return nil, err
	}

	seeded, err := store.Initialize(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if seeded {
		logger.Info("seeded default settings", zap.String("driver", cfg.Storage.Driver))
	}

	alarms := alarm.New(c, logger.Named("alarm"))
	sched := scheduler.New(alarms, c, logger.Named("scheduler"))
	machine := protection.New(store, sched, c, logger.Named("protection"))
	sched.Bind(machine)

	hub := bus.NewHub(logger.Named("hub"), 0)
	machine.AddNotifier(hub)

	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		Store:     store,
		Alarms:    alarms,
		Scheduler: sched,
		Machine:   machine,
		Hub:       hub,
	}

	if err := sched.Recover(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to recover auto-revert: %w", err)
	}
	if at, ok := sched.Pending(); ok {
		logger.Info("auto-revert pending", zap.Time("at", at))
	}

	handler := &server.Handler{
		Dispatcher: bus.NewDispatcher(machine, logger.Named("bus")),
		Hub:        hub,
		Logger:     logger.Named("http"),
	}
	d.server = server.New(server.NewRouter(handler), logger.Named("http"), hub.Close)

	return d, nil
}

// Run serves on the configured address until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	return d.server.ListenAndServe(ctx, d.cfg.Listen)
}

// Serve serves on ln until ctx is cancelled
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	return d.server.Serve(ctx, ln)
}

// Close stops pending alarms, disconnects consumers and closes the store
func (d *Daemon) Close() error {
	d.Alarms.Close()
	d.Hub.Close()
	if err := d.Store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
