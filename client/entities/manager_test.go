package entities

import (
	"testing"
	"time"

	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

func newTestManager() *Manager {
	return NewManager(config.DefaultInterp(), config.DefaultCombat())
}

func snapAt(id string, pos gamemath.Vec3) protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		SessionID: id,
		Name:      id,
		Position:  pos,
		Health:    100,
		State:     protocol.StateIdle,
	}
}

func TestAddAndRemovePlayer(t *testing.T) {
	m := newTestManager()

	m.AddPlayer(snapAt("p1", gamemath.Vec3{X: 1, Y: 2, Z: 3}))
	if m.Count() != 1 {
		t.Fatalf("count %d after add, want 1", m.Count())
	}
	pos, ok := m.SmoothedPosition("p1")
	if !ok || pos != (gamemath.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("smoothed position %+v ok=%v, want spawn position", pos, ok)
	}

	m.RemovePlayer("p1")
	if m.Count() != 0 {
		t.Fatalf("count %d after remove, want 0", m.Count())
	}
	if _, ok := m.SmoothedPosition("p1"); ok {
		t.Fatalf("removed proxy still resolvable")
	}
	// Removing twice must be a no-op.
	m.RemovePlayer("p1")
}

func TestAddExistingPlayerActsAsUpdate(t *testing.T) {
	m := newTestManager()

	m.AddPlayer(snapAt("p1", gamemath.Vec3{}))
	m.AddPlayer(snapAt("p1", gamemath.Vec3{X: 2}))

	if m.Count() != 1 {
		t.Fatalf("count %d, want 1 after duplicate add", m.Count())
	}
	snap, _ := m.Snapshot("p1")
	if snap.Position.X != 2 {
		t.Fatalf("snapshot position %+v, want updated X=2", snap.Position)
	}
}

func TestUpdateUnknownPlayerCreatesProxy(t *testing.T) {
	m := newTestManager()
	m.UpdatePlayer(snapAt("late", gamemath.Vec3{X: 5}))
	if m.Count() != 1 {
		t.Fatalf("count %d, want 1", m.Count())
	}
}

func TestAdvanceConvergesOnTarget(t *testing.T) {
	m := newTestManager()

	m.AddPlayer(snapAt("p1", gamemath.Vec3{}))
	m.UpdatePlayer(snapAt("p1", gamemath.Vec3{X: 0.5}))

	// Step well past the longest tween duration.
	for i := 0; i < 60; i++ {
		m.Advance(1.0 / 60.0)
	}

	pos, _ := m.SmoothedPosition("p1")
	// Small displacement gets a predictive offset on top of the target, so
	// the settled position is at or past it along the motion direction.
	if pos.X < 0.5-1e-9 {
		t.Fatalf("settled at X=%v, want at least the target 0.5", pos.X)
	}
}

func TestTeleportSnapsWithoutPrediction(t *testing.T) {
	m := newTestManager()
	cfg := config.DefaultInterp()

	m.AddPlayer(snapAt("p1", gamemath.Vec3{}))
	target := gamemath.Vec3{X: cfg.TeleportDistance * 2}
	m.UpdatePlayer(snapAt("p1", target))

	for i := 0; i < 30; i++ {
		m.Advance(1.0 / 60.0)
	}

	pos, _ := m.SmoothedPosition("p1")
	if pos != target {
		t.Fatalf("teleport settled at %+v, want exactly %+v", pos, target)
	}
}

func TestPickTweenBuckets(t *testing.T) {
	m := newTestManager()
	cfg := config.DefaultInterp()

	dur, _, predict := m.pickTween(cfg.TeleportDistance + 1)
	if dur != cfg.TeleportDuration || predict {
		t.Fatalf("teleport bucket: dur=%v predict=%v", dur, predict)
	}
	dur, _, predict = m.pickTween((cfg.SmallDistance + cfg.TeleportDistance) / 2)
	if dur != cfg.MediumDuration || !predict {
		t.Fatalf("medium bucket: dur=%v predict=%v", dur, predict)
	}
	dur, _, predict = m.pickTween(cfg.SmallDistance / 2)
	if dur != cfg.SmallDuration || !predict {
		t.Fatalf("small bucket: dur=%v predict=%v", dur, predict)
	}
}

func TestValidatePlayersRemovesOnlyStaleProxies(t *testing.T) {
	m := newTestManager()

	m.AddPlayer(snapAt("keep", gamemath.Vec3{}))
	m.AddPlayer(snapAt("stale", gamemath.Vec3{}))

	m.ValidatePlayers(map[string]bool{"keep": true})

	if m.Count() != 1 {
		t.Fatalf("count %d after sweep, want 1", m.Count())
	}
	if _, ok := m.Snapshot("keep"); !ok {
		t.Fatalf("known proxy removed by sweep")
	}
	if _, ok := m.Snapshot("stale"); ok {
		t.Fatalf("stale proxy survived sweep")
	}
}

func TestValidatePlayersWithCompleteRosterIsNoOp(t *testing.T) {
	m := newTestManager()
	m.AddPlayer(snapAt("a", gamemath.Vec3{}))
	m.AddPlayer(snapAt("b", gamemath.Vec3{}))

	m.ValidatePlayers(map[string]bool{"a": true, "b": true})
	if m.Count() != 2 {
		t.Fatalf("count %d, want 2 untouched", m.Count())
	}
}

func TestCollidersLiftCenterAndUseConfiguredRadius(t *testing.T) {
	combat := config.DefaultCombat()
	m := NewManager(config.DefaultInterp(), combat)

	m.AddPlayer(snapAt("p1", gamemath.Vec3{X: 3, Y: 0, Z: 4}))

	cols := m.Colliders()
	s, ok := cols["p1"]
	if !ok {
		t.Fatalf("missing collider for p1")
	}
	if s.Radius != combat.CollisionRadius {
		t.Fatalf("radius %v, want %v", s.Radius, combat.CollisionRadius)
	}
	want := gamemath.Vec3{X: 3, Y: combat.PlayerHalfHeight, Z: 4}
	if s.Center != want {
		t.Fatalf("center %+v, want %+v", s.Center, want)
	}
}

func TestSetHealthZeroMarksDeath(t *testing.T) {
	m := newTestManager()
	m.AddPlayer(snapAt("p1", gamemath.Vec3{}))

	m.SetHealth("p1", 40)
	snap, _ := m.Snapshot("p1")
	if snap.Health != 40 || snap.State == protocol.StateDeath {
		t.Fatalf("after non-lethal SetHealth: %+v", snap)
	}

	m.SetHealth("p1", 0)
	snap, _ = m.Snapshot("p1")
	if snap.Health != 0 || snap.State != protocol.StateDeath {
		t.Fatalf("after lethal SetHealth: %+v", snap)
	}
}

func TestVelocityEstimateIsClamped(t *testing.T) {
	cfg := config.DefaultInterp()
	m := NewManager(cfg, config.DefaultCombat())

	m.AddPlayer(snapAt("p1", gamemath.Vec3{}))
	time.Sleep(5 * time.Millisecond)
	// A huge jump in a few milliseconds implies an absurd velocity; the
	// estimate must clamp instead of poisoning prediction. Displacement is
	// below the teleport bucket so prediction stays on.
	m.UpdatePlayer(snapAt("p1", gamemath.Vec3{X: cfg.TeleportDistance - 1}))

	for i := 0; i < 60; i++ {
		m.Advance(1.0 / 60.0)
	}

	pos, _ := m.SmoothedPosition("p1")
	maxOvershoot := cfg.MaxSpeed * cfg.PredictionFraction * cfg.MediumDuration.Seconds()
	if pos.X > cfg.TeleportDistance-1+maxOvershoot+1e-9 {
		t.Fatalf("settled at X=%v, beyond clamped prediction bound %v",
			pos.X, cfg.TeleportDistance-1+maxOvershoot)
	}
}
