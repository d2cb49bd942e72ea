// Package projectile replays server-relayed projectile spawns as locally
// simulated ballistic bodies and performs the local collision tests that
// produce hit reports. Detection is deliberately duplicated across clients:
// the victim's simulation and the thrower's own rendered copy can each
// conclude "a hit occurred", and each emits its own report; the room
// deduplicates.
package projectile

import (
	"time"

	"github.com/brazzo/sandstrike-mp/client/entities"
	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// hardLifetimeCap bounds every body regardless of what the spawn claims.
const hardLifetimeCap = 10 * time.Second

// Reporter receives the single hit report a body may produce.
type Reporter func(rep protocol.HitReport)

type body struct {
	id       string
	owner    string
	itemType string
	damage   int
	pos      gamemath.Vec3
	vel      gamemath.Vec3
	gravity  float64
	age      float64
	lifetime float64
	ownShot  bool // the thrower's locally rendered copy of their own throw
}

// Simulator owns the live local bodies. Destruction is purely local and
// immediate: no server acknowledgment is involved.
type Simulator struct {
	combat config.CombatConfig
	items  map[string]config.ItemConfig
	bodies map[string]*body
	report Reporter
}

func NewSimulator(combat config.CombatConfig, items map[string]config.ItemConfig, report Reporter) *Simulator {
	return &Simulator{
		combat: combat,
		items:  items,
		bodies: make(map[string]*body),
		report: report,
	}
}

// Spawn starts simulating one projectile. ownShot marks the local player's
// own throw, which tests against remote proxies instead of the local player.
func (s *Simulator) Spawn(spawn protocol.ProjectileSpawn, ownShot bool) {
	item := config.ItemOrDefault(s.items, spawn.ItemType)
	damage := item.Damage

	lifetime := time.Duration(spawn.LifetimeMs) * time.Millisecond
	if lifetime <= 0 || lifetime > hardLifetimeCap {
		lifetime = hardLifetimeCap
	}

	s.bodies[spawn.ID] = &body{
		id:       spawn.ID,
		owner:    spawn.PlayerID,
		itemType: spawn.ItemType,
		damage:   damage,
		pos:      spawn.Origin,
		vel:      gamemath.LaunchVelocity(spawn.Direction, spawn.Speed, spawn.ArcBias),
		gravity:  spawn.Gravity,
		lifetime: lifetime.Seconds(),
		ownShot:  ownShot,
	}
}

// Advance integrates every body by dt seconds and runs the collision tests.
// localCenter is the local player's bounding-sphere center; colliders are the
// remote proxies' exposed volumes.
func (s *Simulator) Advance(dt float64, localID string, localCenter gamemath.Vec3, colliders map[string]entities.Sphere) {
	for id, b := range s.bodies {
		b.pos, b.vel = gamemath.StepBallistic(b.pos, b.vel, b.gravity, dt)
		b.age += dt
		if b.age >= b.lifetime {
			delete(s.bodies, id)
			continue
		}

		if !b.ownShot && b.owner != localID {
			// Victim side: a relayed projectile reaching the local player.
			if gamemath.Dist(b.pos, localCenter) < s.combat.CollisionRadius {
				s.emit(b, localID)
				delete(s.bodies, id)
				continue
			}
		}

		if b.ownShot {
			// Thrower side: our rendered copy reaching a remote proxy.
			for targetID, sphere := range colliders {
				if targetID == b.owner {
					continue
				}
				if gamemath.Dist(b.pos, sphere.Center) < sphere.Radius {
					s.emit(b, targetID)
					delete(s.bodies, id)
					break
				}
			}
		}
	}
}

func (s *Simulator) emit(b *body, targetID string) {
	s.report(protocol.HitReport{
		TargetID:  targetID,
		SourceID:  b.owner,
		Damage:    b.damage,
		ItemType:  b.itemType,
		HitID:     b.id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Count returns the number of live bodies.
func (s *Simulator) Count() int {
	return len(s.bodies)
}

// Positions exposes body positions for rendering collaborators.
func (s *Simulator) Positions() map[string]gamemath.Vec3 {
	out := make(map[string]gamemath.Vec3, len(s.bodies))
	for id, b := range s.bodies {
		out[id] = b.pos
	}
	return out
}
