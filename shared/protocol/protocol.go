// Package protocol defines the wire schema shared by client and server: the
// message vocabulary, the replicated player snapshot, and the msgpack
// envelope codec. It must not depend on anything client- or server-side.
package protocol

import "github.com/vmihailenco/msgpack/v5"

// Version is negotiated in the join handshake; mismatches are rejected.
const Version = "0.3.0"

// MaxRoomPlayers caps concurrent players per room.
const MaxRoomPlayers = 16

// Message type tags. Client to server unless noted; "playerHit" travels both
// ways: the client sends a HitReport claim, the server unicasts the
// authoritative DamageEvent back to the victim as a delivery aid.
const (
	MsgJoin               = "join"
	MsgMove               = "move"
	MsgDamage             = "damage"
	MsgPlayerHit          = "playerHit"
	MsgProjectile         = "projectile" // both ways; server stamps PlayerID
	MsgEquip              = "equip"
	MsgPlayerState        = "playerState"
	MsgKillAttribution    = "killAttribution"
	MsgRequestLeaderboard = "requestLeaderboard"

	// Server to client.
	MsgJoinAccepted      = "joinAccepted"
	MsgJoinRejected      = "joinRejected"
	MsgPlayerJoined      = "playerJoined"
	MsgPlayerLeft        = "playerLeft"
	MsgPlayerUpdate      = "playerUpdate"
	MsgPlayerDamaged     = "playerDamaged"
	MsgPlayerRespawned   = "playerRespawned"
	MsgLeaderboardUpdate = "leaderboardUpdate"
)

// Envelope frames every wire message: a type tag plus the raw msgpack
// payload, decoded lazily by tag.
type Envelope struct {
	T string
	P msgpack.RawMessage
}
