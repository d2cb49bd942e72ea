package network

import (
	"time"

	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// changeSource abstracts how per-player change notifications become
// PlayerChanged events. The stream source coalesces pushed updates; the
// polling source samples the roster cache and diffs. Both emit the same
// event shape, chosen once at connection setup.
type changeSource interface {
	// offer feeds one pushed update; the polling source ignores it.
	offer(snap protocol.PlayerSnapshot)
	start()
	stop()
}

type streamSource struct {
	c *coalescer
}

func newStreamSource(window time.Duration, emit func(protocol.PlayerSnapshot)) *streamSource {
	return &streamSource{c: newCoalescer(window, emit)}
}

func (s *streamSource) offer(snap protocol.PlayerSnapshot) { s.c.offer(snap) }
func (s *streamSource) start()                             {}
func (s *streamSource) stop()                              { s.c.stop() }

// pollingSource samples every tracked player on a fixed cadence and emits a
// coalesced PlayerChanged for any snapshot that differs from the last sample.
type pollingSource struct {
	interval time.Duration
	sample   func() []protocol.PlayerSnapshot
	emit     func(protocol.PlayerSnapshot)
	last     map[string]protocol.PlayerSnapshot
	quit     chan struct{}
}

func newPollingSource(interval time.Duration, sample func() []protocol.PlayerSnapshot, emit func(protocol.PlayerSnapshot)) *pollingSource {
	return &pollingSource{
		interval: interval,
		sample:   sample,
		emit:     emit,
		last:     make(map[string]protocol.PlayerSnapshot),
		quit:     make(chan struct{}),
	}
}

func (p *pollingSource) offer(protocol.PlayerSnapshot) {}

func (p *pollingSource) start() {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.quit:
				return
			case <-ticker.C:
				p.poll()
			}
		}
	}()
}

func (p *pollingSource) poll() {
	seen := make(map[string]bool)
	for _, snap := range p.sample() {
		seen[snap.SessionID] = true
		if prev, ok := p.last[snap.SessionID]; !ok || prev != snap {
			p.last[snap.SessionID] = snap
			p.emit(snap)
		}
	}
	for id := range p.last {
		if !seen[id] {
			delete(p.last, id)
		}
	}
}

func (p *pollingSource) stop() {
	close(p.quit)
}
