package network

import (
	"sync"
	"time"

	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// coalescer batches rapid per-player updates: the first update for a player
// arms a timer, later updates inside the window overwrite the pending
// snapshot, and the timer flushes the latest one. Event volume per player is
// thereby bounded to roughly the render frame rate.
type coalescer struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]protocol.PlayerSnapshot
	timers  map[string]*time.Timer
	emit    func(protocol.PlayerSnapshot)
}

func newCoalescer(window time.Duration, emit func(protocol.PlayerSnapshot)) *coalescer {
	return &coalescer{
		window:  window,
		pending: make(map[string]protocol.PlayerSnapshot),
		timers:  make(map[string]*time.Timer),
		emit:    emit,
	}
}

func (c *coalescer) offer(snap protocol.PlayerSnapshot) {
	c.mu.Lock()
	id := snap.SessionID
	_, armed := c.pending[id]
	c.pending[id] = snap
	if !armed {
		c.timers[id] = time.AfterFunc(c.window, func() { c.flush(id) })
	}
	c.mu.Unlock()
}

func (c *coalescer) flush(id string) {
	c.mu.Lock()
	snap, ok := c.pending[id]
	delete(c.pending, id)
	delete(c.timers, id)
	c.mu.Unlock()

	if ok {
		c.emit(snap)
	}
}

func (c *coalescer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
		delete(c.pending, id)
	}
}
