package sync

import (
	"github.com/brazzo/sandstrike-mp/client/network"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// LocalPlayer provides the local pose. Implemented by whichever concrete
// player/camera type the game uses; the orchestrator needs exactly this one
// capability.
type LocalPlayer interface {
	// CurrentPose returns the world position and the yaw heading (radians)
	// derived from the orientation's forward vector.
	CurrentPose() (gamemath.Vec3, float64)
}

// DeathHooks are the UI/gameplay callbacks for the local player's death and
// respawn presentation.
type DeathHooks interface {
	SetDeathState(attackerName, itemType, sourceID string)
	SetHealth(health int)
	Respawn(pos gamemath.Vec3)
}

// HitEffects are the optimistic local effects played before the server
// confirms anything.
type HitEffects interface {
	// HitMarker plays when our own shot connects with a remote proxy.
	HitMarker(targetID string)
	// ScreenFlash plays when a relayed projectile connects with us.
	ScreenFlash()
}

// Transport is the slice of the connection manager the orchestrator uses;
// tests substitute a fake.
type Transport interface {
	Events() <-chan network.Event
	SelfID() string
	Roster() []protocol.PlayerSnapshot
	SendMove(mv protocol.Move) error
	SendHitReport(rep protocol.HitReport) error
	SendProjectile(spawn protocol.ProjectileSpawn) error
	SendState(state protocol.PlayerState) error
	SendEquip(itemID string) error
	SendKillAttribution(killerID string) error
	RequestLeaderboard() error
}
