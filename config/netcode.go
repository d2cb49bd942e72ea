// Package config contains all tuning values for the netcode, grouped per
// concern. Defaults mirror live behavior; tests shrink the durations.
package config

import (
	"time"

	"github.com/brazzo/sandstrike-mp/shared/gamemath"
)

// NetworkConfig tunes the client-side connection manager and orchestrator.
type NetworkConfig struct {
	// Outbound pose push cadence, independent of render frame rate.
	PushInterval time.Duration
	// Window for collapsing rapid per-player updates into one event.
	CoalesceWindow time.Duration
	// Sampling cadence of the polling fallback change source.
	PollInterval time.Duration
	// Cadence of the stale-proxy reconciliation sweep.
	SweepInterval time.Duration

	// Reconnect timing after an unexpected close: first attempt after
	// ReconnectInitialDelay, then every ReconnectRetryDelay, unbounded.
	ReconnectInitialDelay time.Duration
	ReconnectRetryDelay   time.Duration

	// ForcePolling selects the polling change source even when the server
	// pushes change notifications.
	ForcePolling bool
}

// RoomConfig tunes the authoritative room.
type RoomConfig struct {
	MaxPlayers int
	TickHz     int

	// Respawn scheduling
	RespawnDelay time.Duration
	SpawnPoints  []gamemath.Vec3

	// Duplicate hit-report suppression: reports sharing a HitID inside
	// HitWindow apply once; reports without a HitID fall back to a
	// {source, target, HitBucket} key.
	HitWindow time.Duration
	HitBucket time.Duration

	// Sessions silent for longer than HeartbeatTimeout are treated as gone.
	HeartbeatTimeout time.Duration
}

// CombatConfig tunes health, collision, and death presentation.
type CombatConfig struct {
	MaxHealth        int
	CollisionRadius  float64 // projectile-to-player hit distance
	PlayerHalfHeight float64 // lifts collider centers off the ground plane
	DeathDuration    time.Duration
}

// InterpConfig tunes remote-proxy smoothing. Displacement buckets pick the
// tween: teleports snap fast with no prediction, ordinary movement eases
// longer with a short-horizon predictive offset.
type InterpConfig struct {
	TeleportDistance float64 // at or above: teleport bucket
	SmallDistance    float64 // below: small bucket; between: medium

	TeleportDuration time.Duration
	MediumDuration   time.Duration
	SmallDuration    time.Duration

	MaxSpeed           float64 // clamp for velocity estimates
	PredictionFraction float64 // of tween duration, scaled by velocity
}

// ItemConfig holds the physical and damage constants for one throwable item
// type. Identical on every client, which is the only trajectory agreement
// the system provides.
type ItemConfig struct {
	Damage   int
	Speed    float64
	Gravity  float64
	ArcBias  float64
	Scale    float64
	Lifetime time.Duration
}

func DefaultNetwork() NetworkConfig {
	return NetworkConfig{
		PushInterval:          50 * time.Millisecond,
		CoalesceWindow:        16 * time.Millisecond,
		PollInterval:          100 * time.Millisecond,
		SweepInterval:         5 * time.Second,
		ReconnectInitialDelay: 2 * time.Second,
		ReconnectRetryDelay:   5 * time.Second,
	}
}

func DefaultRoom() RoomConfig {
	return RoomConfig{
		MaxPlayers:   16,
		TickHz:       20,
		RespawnDelay: 3000 * time.Millisecond,
		SpawnPoints: []gamemath.Vec3{
			{X: 0, Y: 2, Z: 0},
			{X: 24, Y: 2, Z: 18},
			{X: -22, Y: 2, Z: 14},
			{X: 16, Y: 2, Z: -26},
			{X: -18, Y: 2, Z: -20},
		},
		HitWindow:        500 * time.Millisecond,
		HitBucket:        100 * time.Millisecond,
		HeartbeatTimeout: 15 * time.Second,
	}
}

func DefaultCombat() CombatConfig {
	return CombatConfig{
		MaxHealth:        100,
		CollisionRadius:  1.2,
		PlayerHalfHeight: 0.9,
		DeathDuration:    3 * time.Second,
	}
}

func DefaultInterp() InterpConfig {
	return InterpConfig{
		TeleportDistance:   8.0,
		SmallDistance:      0.8,
		TeleportDuration:   80 * time.Millisecond,
		MediumDuration:     160 * time.Millisecond,
		SmallDuration:      240 * time.Millisecond,
		MaxSpeed:           14.0,
		PredictionFraction: 0.5,
	}
}

// DefaultItems is the shared throwable catalog.
func DefaultItems() map[string]ItemConfig {
	return map[string]ItemConfig{
		"rock": {
			Damage:   30,
			Speed:    22,
			Gravity:  9.8,
			ArcBias:  2.5,
			Scale:    1.0,
			Lifetime: 4 * time.Second,
		},
		"snowball": {
			Damage:   10,
			Speed:    18,
			Gravity:  9.8,
			ArcBias:  3.5,
			Scale:    0.8,
			Lifetime: 3 * time.Second,
		},
		"dart": {
			Damage:   20,
			Speed:    30,
			Gravity:  4.0,
			ArcBias:  0.5,
			Scale:    0.5,
			Lifetime: 2 * time.Second,
		},
	}
}

// ItemOrDefault resolves an item type, falling back to the rock constants for
// unknown types so stale catalogs never break combat.
func ItemOrDefault(items map[string]ItemConfig, itemType string) ItemConfig {
	if it, ok := items[itemType]; ok {
		return it
	}
	return DefaultItems()["rock"]
}
