// Package sync ties the client netcode together: it runs the periodic
// outbound pose push, the per-frame advancement of proxies and projectile
// simulations, the stale-proxy reconciliation sweep, and the optimistic
// hit-report protocol, and it turns authoritative damage broadcasts into
// death and respawn presentation.
package sync

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/brazzo/sandstrike-mp/client/entities"
	"github.com/brazzo/sandstrike-mp/client/network"
	"github.com/brazzo/sandstrike-mp/client/projectile"
	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// Orchestrator is the integration point between the connection manager, the
// remote entity manager, the projectile simulator, and the game's local
// player. It runs on the game's frame loop plus one push goroutine.
type Orchestrator struct {
	cfg    config.NetworkConfig
	combat config.CombatConfig
	items  map[string]config.ItemConfig

	net      Transport
	entities *entities.Manager
	sim      *projectile.Simulator
	local    LocalPlayer
	death    DeathHooks
	effects  HitEffects

	lastSweep   time.Time
	deadUntil   time.Time
	health      int
	leaderboard []protocol.LeaderboardEntry

	pushQuit chan struct{}
}

// New wires an orchestrator. The projectile simulator's reports flow through
// the hit-report protocol automatically.
func New(
	cfg config.NetworkConfig,
	combat config.CombatConfig,
	items map[string]config.ItemConfig,
	net Transport,
	ents *entities.Manager,
	local LocalPlayer,
	death DeathHooks,
	effects HitEffects,
) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		combat:    combat,
		items:     items,
		net:       net,
		entities:  ents,
		local:     local,
		death:     death,
		effects:   effects,
		health:    combat.MaxHealth,
		lastSweep: time.Now(),
		pushQuit:  make(chan struct{}),
	}
	o.sim = projectile.NewSimulator(combat, items, o.reportHit)
	return o
}

// Projectiles exposes the simulator for rendering collaborators.
func (o *Orchestrator) Projectiles() *projectile.Simulator {
	return o.sim
}

// Entities exposes the proxy manager for rendering collaborators.
func (o *Orchestrator) Entities() *entities.Manager {
	return o.entities
}

// Health is the local cached health, refreshed only by authoritative events.
func (o *Orchestrator) Health() int {
	return o.health
}

// Leaderboard is the latest standings received from the server.
func (o *Orchestrator) Leaderboard() []protocol.LeaderboardEntry {
	return o.leaderboard
}

// IsDead reports whether the local player is inside the death window.
func (o *Orchestrator) IsDead() bool {
	return time.Now().Before(o.deadUntil)
}

// StartPushLoop begins the fixed-interval pose push, decoupled from the
// render loop so network cadence stays stable under frame drops.
func (o *Orchestrator) StartPushLoop() {
	go func() {
		ticker := time.NewTicker(o.cfg.PushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-o.pushQuit:
				return
			case <-ticker.C:
				o.safely("push", o.pushPose)
			}
		}
	}()
}

// StopPushLoop terminates the push goroutine.
func (o *Orchestrator) StopPushLoop() {
	close(o.pushQuit)
}

func (o *Orchestrator) pushPose() {
	pos, heading := o.local.CurrentPose()
	// ErrNotConnected is a silent drop by design; anything else was already
	// surfaced by the manager.
	_ = o.net.SendMove(protocol.Move{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		RotationY: heading,
	})
}

// Update advances everything by one frame. Every stage absorbs its own
// failures: a broken network path must never stop the render loop.
func (o *Orchestrator) Update(dt float64) {
	o.safely("events", o.drainEvents)
	o.safely("entities", func() { o.entities.Advance(dt) })
	o.safely("projectiles", func() {
		pos, _ := o.local.CurrentPose()
		center := pos
		center.Y += o.combat.PlayerHalfHeight
		o.sim.Advance(dt, o.net.SelfID(), center, o.entities.Colliders())
	})
	o.safely("sweep", func() {
		if time.Since(o.lastSweep) < o.cfg.SweepInterval {
			return
		}
		o.lastSweep = time.Now()
		known := make(map[string]bool)
		for _, snap := range o.net.Roster() {
			known[snap.SessionID] = true
		}
		o.entities.ValidatePlayers(known)
	})
}

func (o *Orchestrator) drainEvents() {
	for {
		select {
		case e := <-o.net.Events():
			o.handleEvent(e)
		default:
			return
		}
	}
}

func (o *Orchestrator) handleEvent(e network.Event) {
	switch evt := e.(type) {
	case network.Connected:
		o.seedRoster(evt)
	case network.PlayerJoined:
		if evt.Player.SessionID != o.net.SelfID() {
			o.entities.AddPlayer(evt.Player)
		}
	case network.PlayerLeft:
		o.entities.RemovePlayer(evt.SessionID)
	case network.PlayerChanged:
		if evt.Player.SessionID != o.net.SelfID() {
			o.entities.UpdatePlayer(evt.Player)
		}
	case network.ProjectileCreated:
		if evt.Spawn.PlayerID != o.net.SelfID() {
			o.sim.Spawn(evt.Spawn, false)
		}
	case network.PlayerDamaged:
		o.handleDamage(evt.Event)
	case network.PlayerRespawned:
		o.handleRespawn(evt.Event)
	case network.LeaderboardUpdated:
		o.leaderboard = evt.Entries
	case network.Disconnected:
		log.Printf("[sync] disconnected")
	case network.Reconnecting:
		log.Printf("[sync] reconnecting (attempt %d)", evt.Attempt)
	case network.ErrorEvent:
		log.Printf("[sync] network error: %v", evt.Err)
	}
}

// seedRoster rebuilds proxies after a (re)connect: the fresh roster is the
// authoritative record, so stale proxies vanish and current ones update.
func (o *Orchestrator) seedRoster(evt network.Connected) {
	known := make(map[string]bool, len(evt.Roster))
	for _, snap := range evt.Roster {
		if snap.SessionID == evt.SelfID {
			continue
		}
		known[snap.SessionID] = true
		o.entities.AddPlayer(snap)
	}
	o.entities.ValidatePlayers(known)
	o.health = o.combat.MaxHealth
	o.deadUntil = time.Time{}
}

// handleDamage applies the authoritative broadcast. The same event may
// arrive twice for us (broadcast plus the direct-to-victim copy); applying
// it is idempotent.
func (o *Orchestrator) handleDamage(evt protocol.DamageEvent) {
	if evt.TargetID == o.net.SelfID() {
		o.health = evt.RemainingHealth
		o.death.SetHealth(evt.RemainingHealth)
		if evt.RemainingHealth <= 0 && !o.IsDead() {
			o.deadUntil = time.Now().Add(o.combat.DeathDuration)
			o.death.SetDeathState(o.attackerName(evt.SourceID), evt.ItemType, evt.SourceID)
			// Credit the killer; the room ignores attribution for absent ids.
			_ = o.net.SendKillAttribution(evt.SourceID)
		}
		return
	}
	o.entities.SetHealth(evt.TargetID, evt.RemainingHealth)
}

func (o *Orchestrator) handleRespawn(evt protocol.RespawnEvent) {
	if evt.SessionID == o.net.SelfID() {
		o.health = o.combat.MaxHealth
		o.deadUntil = time.Time{}
		o.death.SetHealth(o.combat.MaxHealth)
		o.death.Respawn(evt.Position)
		return
	}
	if snap, ok := o.entities.Snapshot(evt.SessionID); ok {
		snap.Health = o.combat.MaxHealth
		snap.State = protocol.StateIdle
		snap.Position = evt.Position
		// Respawn displacement lands in the teleport bucket, so the proxy
		// snaps rather than glides across the map.
		o.entities.UpdatePlayer(snap)
		o.entities.SetHealth(evt.SessionID, o.combat.MaxHealth)
	}
}

func (o *Orchestrator) attackerName(sourceID string) string {
	if snap, ok := o.entities.Snapshot(sourceID); ok {
		return snap.Name
	}
	for _, snap := range o.net.Roster() {
		if snap.SessionID == sourceID {
			return snap.Name
		}
	}
	return sourceID
}

// reportHit is the simulator's callback: send the claim first, play the
// optimistic effect immediately, and let the authoritative broadcast drive
// the real health change.
func (o *Orchestrator) reportHit(rep protocol.HitReport) {
	_ = o.net.SendHitReport(rep)
	if rep.SourceID == o.net.SelfID() {
		o.effects.HitMarker(rep.TargetID)
	}
	if rep.TargetID == o.net.SelfID() {
		o.effects.ScreenFlash()
	}
}

// Throw spawns the local player's own projectile: simulated locally for
// thrower-side detection and relayed to everyone else through the room.
func (o *Orchestrator) Throw(itemType string, origin, direction gamemath.Vec3) error {
	if o.IsDead() {
		return fmt.Errorf("cannot throw while dead")
	}
	item := config.ItemOrDefault(o.items, itemType)
	spawn := protocol.ProjectileSpawn{
		ID:         uuid.NewString(),
		PlayerID:   o.net.SelfID(),
		Origin:     origin,
		Direction:  direction,
		ItemType:   itemType,
		Speed:      item.Speed,
		Gravity:    item.Gravity,
		ArcBias:    item.ArcBias,
		Scale:      item.Scale,
		LifetimeMs: item.Lifetime.Milliseconds(),
	}
	o.sim.Spawn(spawn, true)
	return o.net.SendProjectile(spawn)
}

// SetLocalState forwards a behavioral state change; death blocks state
// changes until the death window elapses.
func (o *Orchestrator) SetLocalState(state protocol.PlayerState) error {
	if o.IsDead() {
		return nil
	}
	return o.net.SendState(state)
}

// EquipItem forwards an equip change.
func (o *Orchestrator) EquipItem(itemID string) error {
	return o.net.SendEquip(itemID)
}

// RefreshLeaderboard asks the server for a fresh standings unicast; the
// result arrives as a LeaderboardUpdated event.
func (o *Orchestrator) RefreshLeaderboard() error {
	return o.net.RequestLeaderboard()
}

// safely absorbs panics from one update stage so the frame loop survives any
// broken network path.
func (o *Orchestrator) safely(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[sync] %s stage panic: %v", stage, r)
		}
	}()
	fn()
}
