package protocol

import "github.com/brazzo/sandstrike-mp/shared/gamemath"

// JoinRequest is the first frame a client sends after the socket opens.
type JoinRequest struct {
	Version        string
	Name           string
	CharacterModel string
	ClientID       string
}

// JoinAccepted carries the assigned session id and the current roster so the
// client can seed its proxies before the first update arrives.
type JoinAccepted struct {
	SessionID string
	Roster    []PlayerSnapshot
	// SnapshotOnly tells the client the server will not push per-player
	// change notifications, so it must fall back to polling its roster cache.
	SnapshotOnly bool
}

// JoinRejected is sent instead of JoinAccepted, followed by a normal close.
type JoinRejected struct {
	Reason string
}

// Move is the client's periodic pose push. Trusted as-is: the room overwrites
// position and heading without plausibility checks.
type Move struct {
	X, Y, Z   float64
	RotationY float64
}

// Damage is a raw damage claim against a target.
type Damage struct {
	TargetID string
	Amount   int
}

// HitReport is a client-generated claim that a projectile collision occurred.
// Either the thrower's or the victim's client may send it; both sending for
// the same collision is legal, and the room deduplicates by HitID (or by a
// source/target time bucket when HitID is absent).
type HitReport struct {
	TargetID  string
	SourceID  string
	Damage    int
	ItemType  string
	HitID     string // usually the projectile id; may be empty
	Timestamp int64  // client clock, unix ms
}

// ProjectileSpawn describes a thrown projectile. The server relays it
// verbatim to every other client after stamping PlayerID; it simulates
// nothing and stores nothing.
type ProjectileSpawn struct {
	ID         string
	PlayerID   string // stamped by the server on relay
	Origin     gamemath.Vec3
	Direction  gamemath.Vec3
	ItemType   string
	Speed      float64
	Gravity    float64
	ArcBias    float64
	Scale      float64
	LifetimeMs int64
}

// Equip changes the player's held item.
type Equip struct {
	ItemID string
}

// StateChange reports the local player's behavioral state.
type StateChange struct {
	State PlayerState
}

// KillAttribution credits a kill to the named player.
type KillAttribution struct {
	KillerID string
}

// LeaderboardRequest asks for a unicast leaderboard snapshot.
type LeaderboardRequest struct{}

// PlayerJoined announces a new roster member.
type PlayerJoined struct {
	Player PlayerSnapshot
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	SessionID string
}

// PlayerUpdate carries a full snapshot for one player whose replicated fields
// changed since the last broadcast tick.
type PlayerUpdate struct {
	Player PlayerSnapshot
}

// DamageEvent is the authoritative broadcast of a health change. It is the
// single source of truth: clients never mutate health from their own reports.
type DamageEvent struct {
	TargetID        string
	SourceID        string
	Damage          int
	RemainingHealth int
	ItemType        string
	HitID           string
	Timestamp       int64 // server clock, unix ms
}

// RespawnEvent is emitted exactly once per death after the respawn delay.
type RespawnEvent struct {
	SessionID string
	Position  gamemath.Vec3
}

// LeaderboardUpdate lists entries in descending score order.
type LeaderboardUpdate struct {
	Entries []LeaderboardEntry
}
