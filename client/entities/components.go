package entities

import (
	"time"

	"github.com/tanema/gween"
	"github.com/yohamta/donburi"

	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// ProxyData is the client-local mirror of one remote player: the last
// authoritative snapshot plus prediction state. Never authoritative.
type ProxyData struct {
	Snapshot   protocol.PlayerSnapshot
	Velocity   gamemath.Vec3 // estimated from consecutive snapshots, clamped
	Smoothed   gamemath.Vec3 // displayed position
	LastUpdate time.Time
}

// InterpData holds the active transition toward the latest target.
type InterpData struct {
	Start    gamemath.Vec3
	Target   gamemath.Vec3
	Progress *gween.Tween // nil when settled
}

var (
	Proxy  = donburi.NewComponentType[ProxyData]()
	Interp = donburi.NewComponentType[InterpData]()
)
