// Package entities owns the set of remote player proxies: visual caches of
// other players, smoothed between authoritative snapshots and exposed to
// gameplay code as collision-testable bounding volumes.
package entities

import (
	"log"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"

	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// Sphere is a collision-testable bounding volume.
type Sphere struct {
	Center gamemath.Vec3
	Radius float64
}

// Manager is CRUD over proxies keyed by session id. Entities live in a
// donburi world; the map is the id index, like the teacher server's
// client-to-entity map.
type Manager struct {
	cfg    config.InterpConfig
	combat config.CombatConfig

	world    donburi.World
	entities map[string]donburi.Entity
}

func NewManager(cfg config.InterpConfig, combat config.CombatConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		combat:   combat,
		world:    donburi.NewWorld(),
		entities: make(map[string]donburi.Entity),
	}
}

// AddPlayer creates a proxy at the snapshot's position.
func (m *Manager) AddPlayer(snap protocol.PlayerSnapshot) {
	if _, exists := m.entities[snap.SessionID]; exists {
		m.UpdatePlayer(snap)
		return
	}

	entity := m.world.Create(Proxy, Interp)
	entry := m.world.Entry(entity)
	Proxy.Set(entry, &ProxyData{
		Snapshot:   snap,
		Smoothed:   snap.Position,
		LastUpdate: time.Now(),
	})
	Interp.Set(entry, &InterpData{
		Start:  snap.Position,
		Target: snap.Position,
	})
	m.entities[snap.SessionID] = entity
}

// RemovePlayer disposes the proxy and its entity.
func (m *Manager) RemovePlayer(id string) {
	entity, ok := m.entities[id]
	if !ok {
		return
	}
	delete(m.entities, id)
	if m.world.Valid(entity) {
		m.world.Remove(entity)
	}
}

// UpdatePlayer feeds a new authoritative target into the proxy's
// interpolation. The displacement magnitude picks the easing: teleports snap
// over a short linear tween, ordinary movement eases longer, and a
// short-horizon predictive offset is added only for non-teleport updates.
func (m *Manager) UpdatePlayer(snap protocol.PlayerSnapshot) {
	entity, ok := m.entities[snap.SessionID]
	if !ok {
		m.AddPlayer(snap)
		return
	}
	entry := m.world.Entry(entity)
	p := Proxy.Get(entry)
	it := Interp.Get(entry)
	now := time.Now()

	velocity := p.Velocity
	if dt := now.Sub(p.LastUpdate).Seconds(); dt > 0 {
		est := snap.Position.Sub(p.Snapshot.Position).Scale(1 / dt)
		// Teleport-induced spikes would poison dead reckoning for seconds.
		velocity = gamemath.ClampLength(est, m.cfg.MaxSpeed)
	}

	displacement := gamemath.Dist(p.Smoothed, snap.Position)
	duration, easing, predict := m.pickTween(displacement)

	target := snap.Position
	if predict {
		target = target.Add(velocity.Scale(m.cfg.PredictionFraction * duration.Seconds()))
	}

	it.Start = p.Smoothed
	it.Target = target
	it.Progress = gween.New(0, 1, float32(duration.Seconds()), easing)

	p.Snapshot = snap
	p.Velocity = velocity
	p.LastUpdate = now
}

func (m *Manager) pickTween(displacement float64) (time.Duration, ease.TweenFunc, bool) {
	switch {
	case displacement >= m.cfg.TeleportDistance:
		return m.cfg.TeleportDuration, ease.Linear, false
	case displacement >= m.cfg.SmallDistance:
		return m.cfg.MediumDuration, ease.OutQuad, true
	default:
		return m.cfg.SmallDuration, ease.InOutQuad, true
	}
}

// Advance steps every active transition by dt seconds.
func (m *Manager) Advance(dt float64) {
	for _, entity := range m.entities {
		if !m.world.Valid(entity) {
			continue
		}
		entry := m.world.Entry(entity)
		it := Interp.Get(entry)
		if it.Progress == nil {
			continue
		}
		t, done := it.Progress.Update(float32(dt))
		p := Proxy.Get(entry)
		p.Smoothed = gamemath.Lerp(it.Start, it.Target, float64(t))
		if done {
			p.Smoothed = it.Target
			it.Progress = nil
		}
	}
}

// ValidatePlayers is the reconciliation sweep: proxies whose id is absent
// from knownIDs lost their authoritative record (a missed leave event) and
// are force-removed.
func (m *Manager) ValidatePlayers(knownIDs map[string]bool) {
	for id := range m.entities {
		if !knownIDs[id] {
			log.Printf("[entities] removing stale proxy %s", id)
			m.RemovePlayer(id)
		}
	}
}

// Colliders exposes every proxy's bounding sphere for collision tests.
func (m *Manager) Colliders() map[string]Sphere {
	out := make(map[string]Sphere, len(m.entities))
	for id, entity := range m.entities {
		if !m.world.Valid(entity) {
			continue
		}
		p := Proxy.Get(m.world.Entry(entity))
		center := p.Smoothed
		center.Y += m.combat.PlayerHalfHeight
		out[id] = Sphere{Center: center, Radius: m.combat.CollisionRadius}
	}
	return out
}

// Snapshot returns the last authoritative snapshot for a proxy.
func (m *Manager) Snapshot(id string) (protocol.PlayerSnapshot, bool) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return protocol.PlayerSnapshot{}, false
	}
	return Proxy.Get(m.world.Entry(entity)).Snapshot, true
}

// SetHealth overwrites the cached health (and derived state) for a proxy;
// called from authoritative damage and respawn events.
func (m *Manager) SetHealth(id string, health int) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return
	}
	p := Proxy.Get(m.world.Entry(entity))
	p.Snapshot.Health = health
	if health <= 0 {
		p.Snapshot.State = protocol.StateDeath
	}
}

// SetState overwrites the cached behavioral state for a proxy.
func (m *Manager) SetState(id string, state protocol.PlayerState) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return
	}
	Proxy.Get(m.world.Entry(entity)).Snapshot.State = state
}

// SmoothedPosition returns the displayed (interpolated) position.
func (m *Manager) SmoothedPosition(id string) (gamemath.Vec3, bool) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return gamemath.Vec3{}, false
	}
	return Proxy.Get(m.world.Entry(entity)).Smoothed, true
}

// IDs lists tracked session ids.
func (m *Manager) IDs() []string {
	out := make([]string, 0, len(m.entities))
	for id := range m.entities {
		out = append(out, id)
	}
	return out
}

// Count returns the number of tracked proxies.
func (m *Manager) Count() int {
	return len(m.entities)
}
