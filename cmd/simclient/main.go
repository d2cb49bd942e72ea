// Command simclient is a headless bot client. It exercises the full client
// netcode stack against a live server: it connects, wanders between waypoints,
// throws projectiles at nearby players, and logs what the server tells it.
// Useful for load testing and for populating rooms during development.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brazzo/sandstrike-mp/client/entities"
	"github.com/brazzo/sandstrike-mp/client/network"
	"github.com/brazzo/sandstrike-mp/client/profile"
	clientsync "github.com/brazzo/sandstrike-mp/client/sync"
	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/gamemath"
)

// bot wanders between waypoints at walking speed and serves as the
// orchestrator's LocalPlayer. It also absorbs the death and effect hooks,
// logging instead of rendering.
type bot struct {
	pos      gamemath.Vec3
	heading  float64
	target   gamemath.Vec3
	speed    float64
	dead     bool
	orch     *clientsync.Orchestrator
	throwGap time.Duration
	lastShot time.Time
	rng      *rand.Rand
}

func newBot(throwGap time.Duration) *bot {
	b := &bot{
		speed:    4.0,
		throwGap: throwGap,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	b.target = b.pickWaypoint()
	return b
}

func (b *bot) pickWaypoint() gamemath.Vec3 {
	return gamemath.Vec3{
		X: b.rng.Float64()*40 - 20,
		Z: b.rng.Float64()*40 - 20,
	}
}

func (b *bot) CurrentPose() (gamemath.Vec3, float64) {
	return b.pos, b.heading
}

func (b *bot) SetDeathState(attackerName, itemType, sourceID string) {
	b.dead = true
	log.Printf("[bot] killed by %s (%s)", attackerName, itemType)
}

func (b *bot) SetHealth(health int) {
	log.Printf("[bot] health %d", health)
}

func (b *bot) Respawn(pos gamemath.Vec3) {
	b.dead = false
	b.pos = pos
	b.target = b.pickWaypoint()
	log.Printf("[bot] respawned at (%.1f, %.1f, %.1f)", pos.X, pos.Y, pos.Z)
}

func (b *bot) HitMarker(targetID string) {
	log.Printf("[bot] hit %s", targetID)
}

func (b *bot) ScreenFlash() {
	log.Printf("[bot] took a hit")
}

// step advances the wander and occasionally lobs a rock at whichever proxy
// is closest.
func (b *bot) step(dt float64) {
	if b.dead {
		return
	}
	to := b.target.Sub(b.pos)
	if to.Length() < 0.5 {
		b.target = b.pickWaypoint()
		return
	}
	dir := to.Normalized()
	b.pos = b.pos.Add(dir.Scale(b.speed * dt))
	b.heading = gamemath.HeadingFromForward(dir)

	if time.Since(b.lastShot) < b.throwGap {
		return
	}
	if id, ok := b.nearestProxy(); ok {
		if target, ok := b.orch.Entities().SmoothedPosition(id); ok {
			aim := target.Sub(b.pos)
			aim.Y = 0
			if aim.Length() > 0.1 {
				b.lastShot = time.Now()
				origin := b.pos
				origin.Y += 1.5
				if err := b.orch.Throw("rock", origin, aim.Normalized()); err != nil {
					log.Printf("[bot] throw failed: %v", err)
				}
			}
		}
	}
}

func (b *bot) nearestProxy() (string, bool) {
	best := ""
	bestDist := 30.0
	for _, id := range b.orch.Entities().IDs() {
		pos, ok := b.orch.Entities().SmoothedPosition(id)
		if !ok {
			continue
		}
		if d := gamemath.Dist(pos, b.pos); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != ""
}

func main() {
	addr := flag.String("addr", "ws://localhost:7373/ws", "Server websocket URL")
	roomCode := flag.String("room", "MAIN", "Room code to join")
	name := flag.String("name", "", "Bot display name (empty = saved profile name)")
	throwGap := flag.Duration("throwgap", 4*time.Second, "Minimum time between throws")
	polling := flag.Bool("polling", false, "Force polling fallback instead of event stream")
	flag.Parse()

	store := profile.Open("sandstrike-bot")
	prof := store.Load()
	if *name != "" {
		prof.Name = *name
		_ = store.Save(prof)
	}

	netCfg := config.DefaultNetwork()
	netCfg.ForcePolling = *polling
	combat := config.DefaultCombat()
	items := config.DefaultItems()

	mgr := network.NewManager(netCfg, *addr+"?room="+*roomCode, network.JoinParams{
		Name:           prof.Name,
		CharacterModel: prof.CharacterModel,
		ClientID:       prof.ClientID,
	})

	b := newBot(*throwGap)
	ents := entities.NewManager(config.DefaultInterp(), combat)
	orch := clientsync.New(netCfg, combat, items, mgr, ents, b, b, b)
	b.orch = orch

	mgr.Connect()
	orch.StartPushLoop()
	defer orch.StopPushLoop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("[bot] %s joining %s room %s", prof.Name, *addr, *roomCode)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-sigChan:
			log.Println("[bot] shutting down")
			mgr.Close()
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			orch.Update(dt)
			b.step(dt)
		}
	}
}
