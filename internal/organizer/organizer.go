package organizer

import (
	"context"
	"log/slog"
	"sync"

	"shelf/internal/config"
	"shelf/internal/events"
	"shelf/internal/extract"
	"shelf/internal/logging"
	"shelf/internal/namer"
	"shelf/internal/notifications"
	"shelf/internal/provenance"
	"shelf/internal/rules"
	"shelf/internal/task"
	"shelf/internal/watcher"
)

// Source is the watcher surface the organizer consumes: a stream of
// stabilized files plus the ability to release a path for
// re-detection.
type Source interface {
	Events() <-chan watcher.Event
	Forget(path string)
	Remember(path string)
}

// Proposer turns extracted content into a filename candidate.
type Proposer interface {
	Propose(ctx context.Context, models namer.Models, content extract.Result, fileType string) (string, error)
}

// Recorder persists terminal task outcomes.
type Recorder interface {
	Record(ctx context.Context, t *task.Task) error
}

// Deps bundles the organizer's collaborators.
type Deps struct {
	Config      *config.Config
	Rules       *rules.Store
	Source      Source
	Namer       Proposer
	Broadcaster *events.Broadcaster
	Journal     Recorder
	Notifier    notifications.Service
	Logger      *slog.Logger
}

// Organizer owns the task state machine and the worker pool executing
// it.
type Organizer struct {
	cfg       *config.Config
	rules     *rules.Store
	source    Source
	namer     Proposer
	broadcast *events.Broadcaster
	journal   Recorder
	notifier  notifications.Service
	logger    *slog.Logger

	// Overridable for tests; defaults to provenance.Lookup.
	lookup func(ctx context.Context, path string) (provenance.Metadata, error)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	destMu sync.Mutex
	dests  map[string]*sync.Mutex
}

// New constructs an organizer from deps.
func New(deps Deps) *Organizer {
	return &Organizer{
		cfg:       deps.Config,
		rules:     deps.Rules,
		source:    deps.Source,
		namer:     deps.Namer,
		broadcast: deps.Broadcaster,
		journal:   deps.Journal,
		notifier:  deps.Notifier,
		logger:    logging.NewComponentLogger(deps.Logger, "organizer"),
		lookup:    provenance.Lookup,
		dests:     make(map[string]*sync.Mutex),
	}
}

// Start launches the worker pool draining the source queue.
func (o *Organizer) Start(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true
	workers := o.cfg.Organizer.Workers
	if workers <= 0 {
		workers = 1
	}
	o.wg.Add(workers)
	o.mu.Unlock()

	for i := 0; i < workers; i++ {
		go o.work(runCtx)
	}
	o.logger.Info("organizer started", logging.Int("workers", workers))
}

// Stop cancels in-flight work and waits for the workers to exit.
// Tasks mid-extraction or mid-naming are abandoned; already-moved files
// simply stay un-renamed.
func (o *Organizer) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel := o.cancel
	o.running = false
	o.cancel = nil
	o.mu.Unlock()

	cancel()
	o.wg.Wait()
	o.logger.Info("organizer stopped")
}

func (o *Organizer) work(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-o.source.Events():
			if !ok {
				return
			}
			o.process(ctx, ev.Path)
		}
	}
}

// lockDestination serializes moves and renames targeting the same
// directory so two tasks can never race for one final filename.
func (o *Organizer) lockDestination(dir string) func() {
	o.destMu.Lock()
	lock, ok := o.dests[dir]
	if !ok {
		lock = &sync.Mutex{}
		o.dests[dir] = lock
	}
	o.destMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
