package events

import (
	"log/slog"
	"sync"

	"shelf/internal/logging"
)

const (
	// Per-subscriber delivery buffer.
	subscriberBuffer = 32
	// Recent events replayed to new subscribers.
	replayDepth = 10
)

// Broadcaster fans events out to subscribers and keeps a short replay
// ring for late joiners.
type Broadcaster struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	recent      []Event
	closed      bool
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:      logging.NewComponentLogger(logger, "events"),
		subscribers: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber and immediately queues the
// recent-event replay on its channel. The returned cancel func must be
// called when the subscriber disconnects.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	for _, ev := range b.recent {
		ch <- ev
	}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking: a
// subscriber whose buffer is full misses the event.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.recent = append(b.recent, ev)
	if len(b.recent) > replayDepth {
		b.recent = b.recent[len(b.recent)-replayDepth:]
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("subscriber too slow, event dropped",
				logging.Int("subscriber", id),
				logging.String(logging.FieldEventType, string(ev.Type)),
			)
		}
	}
}

// Close terminates all subscriber channels. Publish and Subscribe
// become no-ops afterwards.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
