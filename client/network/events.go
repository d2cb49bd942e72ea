package network

import "github.com/brazzo/sandstrike-mp/shared/protocol"

// Event is the closed set of domain events the connection manager emits.
// Consumers receive them on one channel and dispatch by type switch.
type Event interface {
	isEvent()
}

// Connected fires after a successful join handshake, including the one that
// ends a reconnect loop.
type Connected struct {
	SelfID string
	Roster []protocol.PlayerSnapshot
}

// Disconnected is terminal: an explicit leave or a normal closure. No retry
// follows it.
type Disconnected struct{}

// Reconnecting fires before each retry after an unexpected close.
type Reconnecting struct {
	Attempt int
}

// ErrorEvent surfaces a transport error. It does not itself imply
// disconnection; a Disconnected or Reconnecting event follows from the close
// signal if the connection actually died.
type ErrorEvent struct {
	Err error
}

// PlayerJoined announces a new remote player.
type PlayerJoined struct {
	Player protocol.PlayerSnapshot
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	SessionID string
}

// PlayerChanged carries a full coalesced snapshot: all field changes landing
// within the coalescing window collapse into one of these.
type PlayerChanged struct {
	Player protocol.PlayerSnapshot
}

// ProjectileCreated relays another client's projectile spawn.
type ProjectileCreated struct {
	Spawn protocol.ProjectileSpawn
}

// PlayerDamaged is the authoritative health change broadcast.
type PlayerDamaged struct {
	Event protocol.DamageEvent
}

// PlayerRespawned announces a respawn.
type PlayerRespawned struct {
	Event protocol.RespawnEvent
}

// LeaderboardUpdated carries fresh standings in descending score order.
type LeaderboardUpdated struct {
	Entries []protocol.LeaderboardEntry
}

func (Connected) isEvent()          {}
func (Disconnected) isEvent()       {}
func (Reconnecting) isEvent()       {}
func (ErrorEvent) isEvent()         {}
func (PlayerJoined) isEvent()       {}
func (PlayerLeft) isEvent()         {}
func (PlayerChanged) isEvent()      {}
func (ProjectileCreated) isEvent()  {}
func (PlayerDamaged) isEvent()      {}
func (PlayerRespawned) isEvent()    {}
func (LeaderboardUpdated) isEvent() {}
