// Package room implements the authoritative game room: a single-goroutine
// actor that owns the canonical player map, arbitrates damage, schedules
// respawns, relays projectiles, and replicates state diffs to clients.
package room

import (
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// Config bundles the tuning the room needs.
type Config struct {
	Room   config.RoomConfig
	Combat config.CombatConfig
	Items  map[string]config.ItemConfig
}

// DefaultConfig returns live tuning.
func DefaultConfig() Config {
	return Config{
		Room:   config.DefaultRoom(),
		Combat: config.DefaultCombat(),
		Items:  config.DefaultItems(),
	}
}

// Room serializes all inbound commands and its own tick onto one goroutine.
// Handlers complete mutations synchronously, so no field needs a lock and the
// mutate-then-broadcast sequence is atomic from any client's point of view.
type Room struct {
	Inbox chan any

	Code    string
	OnEmpty func(code string)

	cfg      Config
	players  map[string]*player
	conns    map[string]Conn
	lastSent map[string]protocol.PlayerSnapshot

	// recentHits implements the duplicate hit-report window: key is the
	// report's HitID, or a source/target/time-bucket fallback.
	recentHits map[string]time.Time

	// respawns holds the pending one-shot respawn timer per dead player.
	// Cancelled on leave; the fire path re-checks existence regardless.
	respawns map[string]*time.Timer

	rng       *rand.Rand
	quit      chan struct{}
	occupancy atomic.Int64
}

// New creates a room. Run must be started on its own goroutine.
func New(cfg Config) *Room {
	return &Room{
		Inbox:      make(chan any, 256),
		cfg:        cfg,
		players:    make(map[string]*player),
		conns:      make(map[string]Conn),
		lastSent:   make(map[string]protocol.PlayerSnapshot),
		recentHits: make(map[string]time.Time),
		respawns:   make(map[string]*time.Timer),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		quit:       make(chan struct{}),
	}
}

// Stop terminates the actor and cancels pending respawn timers.
func (r *Room) Stop() {
	close(r.quit)
}

// NumPlayers returns the current occupancy. Safe from any goroutine.
func (r *Room) NumPlayers() int {
	return int(r.occupancy.Load())
}

// Run drives the actor until Stop. Commands and the tick never interleave.
func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.Room.TickHz))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.shutdown()
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Leave:
		r.handleLeave(c.SessionID)
	case Move:
		r.handleMove(c)
	case Damage:
		r.applyDamage(c.SessionID, c.Damage.TargetID, c.Damage.Amount, "", "", time.Now())
		r.touch(c.SessionID)
	case Hit:
		rep := c.Report
		r.applyDamage(rep.SourceID, rep.TargetID, rep.Damage, rep.ItemType, rep.HitID, time.Now())
		r.touch(c.SessionID)
	case Projectile:
		r.handleProjectile(c)
	case Equip:
		r.handleEquip(c)
	case SetState:
		r.handleSetState(c)
	case KillAttribution:
		r.handleKillAttribution(c)
	case LeaderboardRequest:
		r.handleLeaderboardRequest(c.SessionID)
	case respawnFired:
		r.handleRespawn(c.SessionID)
	default:
		log.Printf("[room %s] unknown command %T", r.Code, cmd)
	}
}

func (r *Room) handleJoin(c Join) {
	if len(r.players) >= r.cfg.Room.MaxPlayers {
		reason := "room full"
		if b, err := protocol.Encode(protocol.MsgJoinRejected, protocol.JoinRejected{Reason: reason}); err == nil {
			_ = c.Conn.Send(b)
		}
		_ = c.Conn.Close()
		c.Reply <- JoinResult{Rejected: reason}
		return
	}

	id := uuid.NewString()
	name := c.Name
	if name == "" {
		name = fmt.Sprintf("Player-%s", id[:8])
	}
	p := &player{
		PlayerSnapshot: protocol.PlayerSnapshot{
			SessionID:      id,
			Name:           name,
			CharacterModel: c.CharacterModel,
			ClientID:       c.ClientID,
			Position:       r.randomSpawn(),
			Health:         r.cfg.Combat.MaxHealth,
			State:          protocol.StateIdle,
		},
		lastSeen: time.Now(),
	}

	r.players[id] = p
	r.conns[id] = c.Conn
	r.lastSent[id] = p.snapshot()
	r.occupancy.Store(int64(len(r.players)))

	r.broadcast(protocol.MsgPlayerJoined, protocol.PlayerJoined{Player: p.snapshot()}, id)

	roster := make([]protocol.PlayerSnapshot, 0, len(r.players))
	for _, other := range r.players {
		roster = append(roster, other.snapshot())
	}
	r.unicast(id, protocol.MsgJoinAccepted, protocol.JoinAccepted{
		SessionID: id,
		Roster:    roster,
	})

	log.Printf("[room %s] %s joined as %s (%d/%d)", r.Code, name, id, len(r.players), r.cfg.Room.MaxPlayers)
	c.Reply <- JoinResult{SessionID: id}
}

func (r *Room) handleLeave(id string) {
	p, ok := r.players[id]
	if !ok {
		return
	}

	if t, pending := r.respawns[id]; pending {
		t.Stop()
		delete(r.respawns, id)
	}

	delete(r.players, id)
	delete(r.lastSent, id)
	r.occupancy.Store(int64(len(r.players)))
	if conn, ok := r.conns[id]; ok {
		delete(r.conns, id)
		_ = conn.Close()
	}

	r.broadcast(protocol.MsgPlayerLeft, protocol.PlayerLeft{SessionID: id}, "")
	log.Printf("[room %s] %s (%s) left", r.Code, p.Name, id)

	if len(r.players) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) handleMove(c Move) {
	p, ok := r.players[c.SessionID]
	if !ok {
		return
	}
	// Trusted overwrite: no plausibility or rate validation on this side of
	// the trust boundary.
	p.Position = gamemath.Vec3{X: c.Move.X, Y: c.Move.Y, Z: c.Move.Z}
	p.RotationY = c.Move.RotationY
	p.lastSeen = time.Now()
}

// applyDamage is the single arbitration point for both raw damage claims and
// projectile hit reports.
func (r *Room) applyDamage(sourceID, targetID string, amount int, itemType, hitID string, now time.Time) {
	target, ok := r.players[targetID]
	if !ok || amount < 0 {
		return
	}
	if !target.alive() {
		return
	}
	if r.isDuplicateHit(sourceID, targetID, hitID, now) {
		return
	}

	target.Health -= amount
	if target.Health < 0 {
		target.Health = 0
	}

	if target.Health == 0 {
		target.State = protocol.StateDeath
		r.scheduleRespawn(targetID)
	} else {
		target.State = protocol.StateHit
	}

	evt := protocol.DamageEvent{
		TargetID:        targetID,
		SourceID:        sourceID,
		Damage:          amount,
		RemainingHealth: target.Health,
		ItemType:        itemType,
		HitID:           hitID,
		Timestamp:       now.UnixMilli(),
	}
	// Every client's view must stay consistent, so the event goes to all of
	// them; the victim also gets a direct copy as a delivery aid.
	r.broadcast(protocol.MsgPlayerDamaged, evt, "")
	r.unicast(targetID, protocol.MsgPlayerHit, evt)
}

// isDuplicateHit records and checks the idempotency window. The thrower's and
// the victim's clients may both legitimately report one collision; only the
// first report inside the window mutates anything. The target is part of the
// key so a single projectile passing through two players damages both.
func (r *Room) isDuplicateHit(sourceID, targetID, hitID string, now time.Time) bool {
	var key string
	if hitID != "" {
		key = fmt.Sprintf("%s|%s", hitID, targetID)
	} else {
		bucket := now.UnixMilli() / r.cfg.Room.HitBucket.Milliseconds()
		key = fmt.Sprintf("%s|%s|%d", sourceID, targetID, bucket)
	}
	if seen, ok := r.recentHits[key]; ok && now.Sub(seen) < r.cfg.Room.HitWindow {
		return true
	}
	r.recentHits[key] = now
	return false
}

func (r *Room) scheduleRespawn(id string) {
	if _, pending := r.respawns[id]; pending {
		return
	}
	r.respawns[id] = time.AfterFunc(r.cfg.Room.RespawnDelay, func() {
		select {
		case r.Inbox <- respawnFired{SessionID: id}:
		case <-r.quit:
		}
	})
}

func (r *Room) handleRespawn(id string) {
	delete(r.respawns, id)
	p, ok := r.players[id]
	if !ok {
		// Player left between death and timer fire.
		return
	}
	p.Health = r.cfg.Combat.MaxHealth
	p.State = protocol.StateIdle
	p.Position = r.randomSpawn()

	r.broadcast(protocol.MsgPlayerRespawned, protocol.RespawnEvent{
		SessionID: id,
		Position:  p.Position,
	}, "")
}

func (r *Room) handleProjectile(c Projectile) {
	if _, ok := r.players[c.SessionID]; !ok {
		return
	}
	r.touch(c.SessionID)

	// Pure relay: stamp the sender and rebroadcast. No physics, no storage.
	spawn := c.Spawn
	spawn.PlayerID = c.SessionID
	r.broadcast(protocol.MsgProjectile, spawn, c.SessionID)
}

func (r *Room) handleEquip(c Equip) {
	p, ok := r.players[c.SessionID]
	if !ok {
		return
	}
	p.EquippedItem = c.ItemID
	p.lastSeen = time.Now()
}

func (r *Room) handleSetState(c SetState) {
	p, ok := r.players[c.SessionID]
	if !ok || !c.State.Valid() {
		return
	}
	// Death is owned by the damage path; clients cannot talk themselves out
	// of it early.
	if p.State == protocol.StateDeath && !p.alive() {
		return
	}
	p.State = c.State
	p.lastSeen = time.Now()
}

func (r *Room) handleKillAttribution(c KillAttribution) {
	r.touch(c.SessionID)
	killer, ok := r.players[c.KillerID]
	if !ok {
		return
	}
	killer.Score++
	r.broadcast(protocol.MsgLeaderboardUpdate, protocol.LeaderboardUpdate{Entries: r.leaderboard()}, "")
}

func (r *Room) handleLeaderboardRequest(id string) {
	r.touch(id)
	r.unicast(id, protocol.MsgLeaderboardUpdate, protocol.LeaderboardUpdate{Entries: r.leaderboard()})
}

// tick prunes silent sessions and expired hit keys, then replicates a full
// snapshot for every player whose fields changed since the last broadcast.
func (r *Room) tick(now time.Time) {
	for id, p := range r.players {
		if now.Sub(p.lastSeen) > r.cfg.Room.HeartbeatTimeout {
			log.Printf("[room %s] dropping %s after heartbeat timeout", r.Code, id)
			r.handleLeave(id)
		}
	}

	for key, seen := range r.recentHits {
		if now.Sub(seen) >= r.cfg.Room.HitWindow {
			delete(r.recentHits, key)
		}
	}

	for id, p := range r.players {
		snap := p.snapshot()
		if snap == r.lastSent[id] {
			continue
		}
		r.lastSent[id] = snap
		r.broadcast(protocol.MsgPlayerUpdate, protocol.PlayerUpdate{Player: snap}, "")
	}
}

func (r *Room) touch(id string) {
	if p, ok := r.players[id]; ok {
		p.lastSeen = time.Now()
	}
}

func (r *Room) randomSpawn() gamemath.Vec3 {
	points := r.cfg.Room.SpawnPoints
	return points[r.rng.Intn(len(points))]
}

// broadcast encodes once and sends to every connection except the excluded
// session. Failed connections are dropped after the send loop so the conn map
// is never mutated mid-iteration.
func (r *Room) broadcast(t string, payload any, except string) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("[room %s] encode %s: %v", r.Code, t, err)
		return
	}

	var failed []string
	for id, conn := range r.conns {
		if id == except {
			continue
		}
		if err := conn.Send(b); err != nil {
			log.Printf("[room %s] send %s to %s: %v", r.Code, t, id, err)
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.handleLeave(id)
	}
}

func (r *Room) unicast(id, t string, payload any) {
	conn, ok := r.conns[id]
	if !ok {
		return
	}
	b, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("[room %s] encode %s: %v", r.Code, t, err)
		return
	}
	if err := conn.Send(b); err != nil {
		log.Printf("[room %s] send %s to %s: %v", r.Code, t, id, err)
		r.handleLeave(id)
	}
}

func (r *Room) shutdown() {
	for id, t := range r.respawns {
		t.Stop()
		delete(r.respawns, id)
	}
	for id, conn := range r.conns {
		_ = conn.Close()
		delete(r.conns, id)
	}
}
