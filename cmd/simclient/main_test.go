package main

import (
	"testing"
	"time"

	"github.com/brazzo/sandstrike-mp/client/entities"
	"github.com/brazzo/sandstrike-mp/client/network"
	clientsync "github.com/brazzo/sandstrike-mp/client/sync"
	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

type stubTransport struct {
	projectiles []protocol.ProjectileSpawn
}

func (s *stubTransport) Events() <-chan network.Event { return nil }

func (s *stubTransport) SelfID() string { return "bot" }

func (s *stubTransport) Roster() []protocol.PlayerSnapshot { return nil }

func (s *stubTransport) SendMove(protocol.Move) error { return nil }

func (s *stubTransport) SendHitReport(protocol.HitReport) error { return nil }

func (s *stubTransport) SendProjectile(spawn protocol.ProjectileSpawn) error {
	s.projectiles = append(s.projectiles, spawn)
	return nil
}

func (s *stubTransport) SendState(protocol.PlayerState) error { return nil }

func (s *stubTransport) SendEquip(string) error { return nil }

func (s *stubTransport) SendKillAttribution(string) error { return nil }

func (s *stubTransport) RequestLeaderboard() error { return nil }

func newTestBot() (*bot, *stubTransport) {
	net := &stubTransport{}
	ents := entities.NewManager(config.DefaultInterp(), config.DefaultCombat())
	b := newBot(time.Second)
	b.orch = clientsync.New(config.DefaultNetwork(), config.DefaultCombat(), config.DefaultItems(),
		net, ents, b, b, b)
	return b, net
}

func proxyAt(id string, pos gamemath.Vec3) protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{SessionID: id, Name: id, Position: pos, Health: 100, State: protocol.StateIdle}
}

func TestNearestProxyPicksClosestInRange(t *testing.T) {
	b, _ := newTestBot()

	b.orch.Entities().AddPlayer(proxyAt("near", gamemath.Vec3{X: 5}))
	b.orch.Entities().AddPlayer(proxyAt("far", gamemath.Vec3{X: 20}))
	b.orch.Entities().AddPlayer(proxyAt("outside", gamemath.Vec3{X: 100}))

	id, ok := b.nearestProxy()
	if !ok || id != "near" {
		t.Fatalf("nearest = %q ok=%v, want near", id, ok)
	}
}

func TestNearestProxyIgnoresEverythingBeyondRange(t *testing.T) {
	b, _ := newTestBot()
	b.orch.Entities().AddPlayer(proxyAt("outside", gamemath.Vec3{X: 100}))

	if id, ok := b.nearestProxy(); ok {
		t.Fatalf("out-of-range proxy selected: %q", id)
	}
}

func TestStepThrowsAtNearbyProxy(t *testing.T) {
	b, net := newTestBot()
	b.orch.Entities().AddPlayer(proxyAt("victim", gamemath.Vec3{X: 8}))
	b.target = gamemath.Vec3{Z: 10} // keep wandering, away from the waypoint

	b.step(1.0 / 60.0)

	if len(net.projectiles) != 1 {
		t.Fatalf("threw %d projectiles, want 1", len(net.projectiles))
	}
	if net.projectiles[0].ItemType != "rock" {
		t.Fatalf("threw %q, want rock", net.projectiles[0].ItemType)
	}
}

func TestStepRespectsThrowGap(t *testing.T) {
	b, net := newTestBot()
	b.orch.Entities().AddPlayer(proxyAt("victim", gamemath.Vec3{X: 8}))
	b.target = gamemath.Vec3{Z: 10}

	b.step(1.0 / 60.0)
	b.step(1.0 / 60.0)

	if len(net.projectiles) != 1 {
		t.Fatalf("threw %d projectiles inside one throw gap, want 1", len(net.projectiles))
	}
}

func TestStepIsInertWhileDead(t *testing.T) {
	b, net := newTestBot()
	b.orch.Entities().AddPlayer(proxyAt("victim", gamemath.Vec3{X: 8}))
	b.target = gamemath.Vec3{Z: 10}
	b.dead = true
	before := b.pos

	b.step(1.0 / 60.0)

	if b.pos != before {
		t.Fatalf("dead bot moved: %+v", b.pos)
	}
	if len(net.projectiles) != 0 {
		t.Fatalf("dead bot threw a projectile")
	}
}
