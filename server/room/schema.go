package room

import (
	"time"

	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// player is the canonical server-side record for one session. Only the room
// goroutine touches it; Health and Score have no other writer anywhere.
type player struct {
	protocol.PlayerSnapshot

	lastSeen time.Time
}

// snapshot copies the replicated fields for broadcasting.
func (p *player) snapshot() protocol.PlayerSnapshot {
	return p.PlayerSnapshot
}

// alive reports whether the player can take state changes and damage.
func (p *player) alive() bool {
	return p.Health > 0
}
