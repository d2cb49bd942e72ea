package projectile

import (
	"testing"

	"github.com/brazzo/sandstrike-mp/client/entities"
	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

type reportRecorder struct {
	reports []protocol.HitReport
}

func (r *reportRecorder) report(rep protocol.HitReport) {
	r.reports = append(r.reports, rep)
}

func newTestSimulator() (*Simulator, *reportRecorder) {
	rec := &reportRecorder{}
	return NewSimulator(config.DefaultCombat(), config.DefaultItems(), rec.report), rec
}

// flatSpawn builds a gravity-free, bias-free spawn moving along +X so tests
// can reason about straight-line positions.
func flatSpawn(id, owner string, origin gamemath.Vec3) protocol.ProjectileSpawn {
	return protocol.ProjectileSpawn{
		ID:         id,
		PlayerID:   owner,
		Origin:     origin,
		Direction:  gamemath.Vec3{X: 1},
		ItemType:   "rock",
		Speed:      10,
		Gravity:    0,
		LifetimeMs: 4000,
	}
}

func noColliders() map[string]entities.Sphere {
	return map[string]entities.Sphere{}
}

func TestVictimSideDetectionReportsAgainstLocalPlayer(t *testing.T) {
	sim, rec := newTestSimulator()

	// A remote player's projectile flying toward the local player.
	sim.Spawn(flatSpawn("proj-1", "remote", gamemath.Vec3{X: 0, Y: 1}), false)

	localCenter := gamemath.Vec3{X: 5, Y: 1}
	for i := 0; i < 120 && len(rec.reports) == 0; i++ {
		sim.Advance(1.0/60.0, "me", localCenter, noColliders())
	}

	if len(rec.reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(rec.reports))
	}
	rep := rec.reports[0]
	if rep.TargetID != "me" || rep.SourceID != "remote" {
		t.Fatalf("report %q->%q, want remote->me", rep.SourceID, rep.TargetID)
	}
	if rep.Damage != config.DefaultItems()["rock"].Damage {
		t.Fatalf("damage %d, want rock damage", rep.Damage)
	}
	if rep.HitID != "proj-1" {
		t.Fatalf("hit id %q, want the body id", rep.HitID)
	}
	if sim.Count() != 0 {
		t.Fatalf("body survived its own hit")
	}
}

func TestThrowerSideDetectionReportsAgainstProxy(t *testing.T) {
	sim, rec := newTestSimulator()

	sim.Spawn(flatSpawn("proj-1", "me", gamemath.Vec3{Y: 1}), true)

	colliders := map[string]entities.Sphere{
		"victim": {Center: gamemath.Vec3{X: 5, Y: 1}, Radius: 1.2},
	}
	far := gamemath.Vec3{X: -100}
	for i := 0; i < 120 && len(rec.reports) == 0; i++ {
		sim.Advance(1.0/60.0, "me", far, colliders)
	}

	if len(rec.reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(rec.reports))
	}
	if rec.reports[0].TargetID != "victim" || rec.reports[0].SourceID != "me" {
		t.Fatalf("report %q->%q, want me->victim", rec.reports[0].SourceID, rec.reports[0].TargetID)
	}
}

func TestOwnShotNeverHitsItsThrower(t *testing.T) {
	sim, rec := newTestSimulator()

	sim.Spawn(flatSpawn("proj-1", "me", gamemath.Vec3{Y: 1}), true)

	// The thrower's own collider sits right on the flight path.
	colliders := map[string]entities.Sphere{
		"me": {Center: gamemath.Vec3{X: 1, Y: 1}, Radius: 1.2},
	}
	for i := 0; i < 60; i++ {
		sim.Advance(1.0/60.0, "me", gamemath.Vec3{X: 1, Y: 1}, colliders)
	}

	if len(rec.reports) != 0 {
		t.Fatalf("own shot reported a hit on its thrower: %+v", rec.reports)
	}
}

func TestRelayedProjectileIgnoresItsOwnerAsVictim(t *testing.T) {
	sim, rec := newTestSimulator()

	// The local player is the owner of a relayed body; victim-side detection
	// must skip it even when it passes through the local collider.
	sim.Spawn(flatSpawn("proj-1", "me", gamemath.Vec3{Y: 1}), false)

	for i := 0; i < 60; i++ {
		sim.Advance(1.0/60.0, "me", gamemath.Vec3{X: 1, Y: 1}, noColliders())
	}

	if len(rec.reports) != 0 {
		t.Fatalf("relayed own projectile hit its thrower: %+v", rec.reports)
	}
}

func TestBodyReportsAtMostOnce(t *testing.T) {
	sim, rec := newTestSimulator()

	sim.Spawn(flatSpawn("proj-1", "remote", gamemath.Vec3{X: 4.9, Y: 1}), false)

	localCenter := gamemath.Vec3{X: 5, Y: 1}
	for i := 0; i < 120; i++ {
		sim.Advance(1.0/60.0, "me", localCenter, noColliders())
	}

	if len(rec.reports) != 1 {
		t.Fatalf("got %d reports, want exactly 1", len(rec.reports))
	}
}

func TestLifetimeExpiryDespawnsWithoutReport(t *testing.T) {
	sim, rec := newTestSimulator()

	spawn := flatSpawn("proj-1", "remote", gamemath.Vec3{Y: 1})
	spawn.LifetimeMs = 100
	sim.Spawn(spawn, false)

	far := gamemath.Vec3{X: -100}
	for i := 0; i < 30; i++ {
		sim.Advance(1.0/60.0, "me", far, noColliders())
	}

	if sim.Count() != 0 {
		t.Fatalf("expired body still alive")
	}
	if len(rec.reports) != 0 {
		t.Fatalf("expiry produced a report: %+v", rec.reports)
	}
}

func TestLifetimeIsCappedForAbsurdClaims(t *testing.T) {
	sim, _ := newTestSimulator()

	spawn := flatSpawn("forever", "remote", gamemath.Vec3{Y: 1})
	spawn.LifetimeMs = 3600 * 1000
	sim.Spawn(spawn, false)

	far := gamemath.Vec3{X: -1000}
	// Step just past the hard cap in large increments.
	for i := 0; i < 11; i++ {
		sim.Advance(1.0, "me", far, noColliders())
	}

	if sim.Count() != 0 {
		t.Fatalf("capped body outlived the hard lifetime limit")
	}
}

func TestZeroLifetimeFallsBackToCap(t *testing.T) {
	sim, _ := newTestSimulator()

	spawn := flatSpawn("unset", "remote", gamemath.Vec3{Y: 1})
	spawn.LifetimeMs = 0
	sim.Spawn(spawn, false)

	sim.Advance(1.0/60.0, "me", gamemath.Vec3{X: -100}, noColliders())
	if sim.Count() != 1 {
		t.Fatalf("zero-lifetime spawn despawned immediately")
	}
}

func TestGravityPullsTrajectoryDown(t *testing.T) {
	sim, _ := newTestSimulator()

	spawn := flatSpawn("arc", "remote", gamemath.Vec3{Y: 10})
	spawn.Gravity = 9.8
	sim.Spawn(spawn, false)

	far := gamemath.Vec3{X: -100}
	for i := 0; i < 60; i++ {
		sim.Advance(1.0/60.0, "me", far, noColliders())
	}

	pos := sim.Positions()["arc"]
	if pos.Y >= 10 {
		t.Fatalf("after 1s under gravity Y=%v, want below launch height", pos.Y)
	}
	if pos.X <= 0 {
		t.Fatalf("forward motion missing: X=%v", pos.X)
	}
}
