package room

import "github.com/brazzo/sandstrike-mp/shared/protocol"

// Conn is the transport seen by the room: a serialized byte sink plus close.
// The gateway adapts websockets to it; tests use in-memory fakes.
type Conn interface {
	Send(b []byte) error
	Close() error
}

// Join is issued once per connection after the join handshake is parsed.
type Join struct {
	Conn           Conn
	Name           string
	CharacterModel string
	ClientID       string
	Reply          chan<- JoinResult
}

// JoinResult is delivered on the Join reply channel.
type JoinResult struct {
	SessionID string
	Rejected  string // non-empty reason when the join was refused
}

// Leave is issued when a client disconnects or is dropped.
type Leave struct {
	SessionID string
}

// Move overwrites the sender's pose. Trusted as-is, at any rate.
type Move struct {
	SessionID string
	Move      protocol.Move
}

// Damage is a raw damage claim from the sender against a target.
type Damage struct {
	SessionID string
	Damage    protocol.Damage
}

// Hit is a projectile hit report from either the thrower or the victim.
type Hit struct {
	SessionID string
	Report    protocol.HitReport
}

// Projectile asks the room to relay a spawn to every other client.
type Projectile struct {
	SessionID string
	Spawn     protocol.ProjectileSpawn
}

// Equip changes the sender's held item.
type Equip struct {
	SessionID string
	ItemID    string
}

// SetState reports the sender's behavioral state.
type SetState struct {
	SessionID string
	State     protocol.PlayerState
}

// KillAttribution credits a kill to the named player.
type KillAttribution struct {
	SessionID string
	KillerID  string
}

// LeaderboardRequest asks for a unicast leaderboard snapshot.
type LeaderboardRequest struct {
	SessionID string
}

// respawnFired re-enters the actor when a scheduled respawn timer fires, so
// the mutation is serialized with message handlers.
type respawnFired struct {
	SessionID string
}
