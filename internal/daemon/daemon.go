package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"shelf/internal/api"
	"shelf/internal/config"
	"shelf/internal/events"
	"shelf/internal/journal"
	"shelf/internal/logging"
	"shelf/internal/namer"
	"shelf/internal/notifications"
	"shelf/internal/organizer"
	"shelf/internal/rules"
	"shelf/internal/services/ollama"
	"shelf/internal/watcher"
)

// Daemon owns the background services and enforces single-instance
// execution through a lock file in the data directory.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	rules     *rules.Store
	journal   *journal.Store
	watcher   *watcher.Watcher
	organizer *organizer.Organizer
	broadcast *events.Broadcaster
	server    *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with all services wired but not started.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := rules.Open(cfg.Paths.RulesFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open rules store: %w", err)
	}

	history, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	broadcaster := events.NewBroadcaster(logger)
	notifier := notifications.NewService(cfg)
	client := ollama.NewClient(ollama.Config{
		BaseURL:        cfg.Ollama.BaseURL,
		TimeoutSeconds: cfg.Ollama.TimeoutSeconds,
	})

	watch := watcher.New(store, logger,
		time.Duration(cfg.Watcher.PollIntervalMS)*time.Millisecond,
		time.Duration(cfg.Watcher.QuietPeriodMS)*time.Millisecond,
	)

	org := organizer.New(organizer.Deps{
		Config:      cfg,
		Rules:       store,
		Source:      watch,
		Namer:       namer.New(client, logger),
		Broadcaster: broadcaster,
		Journal:     history,
		Notifier:    notifier,
		Logger:      logger,
	})

	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		rules:     store,
		journal:   history,
		watcher:   watch,
		organizer: org,
		broadcast: broadcaster,
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
	}
	d.server = api.New(api.Deps{
		Bind:        cfg.Paths.APIBind,
		Logger:      logger,
		Rules:       store,
		Monitor:     (*monitorControl)(d),
		Renamer:     org,
		History:     history,
		Broadcaster: broadcaster,
	})
	return d, nil
}

// Start acquires the instance lock and launches the watcher, organizer,
// and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shelf daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.organizer.Start(d.ctx)
	d.watcher.Start(d.ctx)
	if err := d.server.Start(d.ctx); err != nil {
		d.watcher.Stop()
		d.organizer.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("shelf daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.cfg.Paths.APIBind))
	return nil
}

// Stop halts all services and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	d.watcher.Stop()
	d.organizer.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("shelf daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.broadcast.Close()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Running reports whether Start has succeeded and Stop has not run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the control server's bound address once started.
func (d *Daemon) APIAddr() string {
	return d.server.Addr()
}

// monitorControl exposes watcher start/stop to the API without handing
// it the daemon context directly. A restart reuses the daemon's run
// context, so a later daemon shutdown still stops the watcher.
type monitorControl Daemon

func (m *monitorControl) Active() bool {
	return (*Daemon)(m).watcher.Active()
}

func (m *monitorControl) Start() {
	d := (*Daemon)(m)
	if d.ctx == nil {
		return
	}
	d.watcher.Start(d.ctx)
}

func (m *monitorControl) Stop() {
	(*Daemon)(m).watcher.Stop()
}
