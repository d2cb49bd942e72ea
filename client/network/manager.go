// Package network implements the client's connection manager: it owns the
// single live connection to the multiplayer service and translates the wire
// protocol into a small, fixed vocabulary of domain events consumed through
// one channel. It is constructor-injected into whatever owns the session;
// there is no package-global connection state.
package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/brazzo/sandstrike-mp/config"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

// State is the connection lifecycle phase.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	}
	return "unknown"
}

// ErrNotConnected is returned by sends while no connection is live. Callers
// may ignore it: a send in that state is a logged no-op by design.
var ErrNotConnected = errors.New("not connected")

// JoinParams identify the local player to the server.
type JoinParams struct {
	Name           string
	CharacterModel string
	ClientID       string
}

// Manager maintains exactly one active connection. All shared fields are
// protected by mu; the read pump, reconnect loop, and callers run on
// different goroutines.
type Manager struct {
	mu sync.RWMutex

	cfg     config.NetworkConfig
	address string
	join    JoinParams

	state  State
	conn   *websocket.Conn
	selfID string
	gen    int // connection generation; stale pumps compare before acting

	// roster caches the latest authoritative snapshot per player. It feeds
	// the polling change source and the Connected roster replay.
	roster map[string]protocol.PlayerSnapshot

	source changeSource
	events chan Event

	closed bool // explicit Close; terminal, no reconnects
	quit   chan struct{}
}

// NewManager wires a manager for the given websocket address
// (ws://host:port/ws?room=CODE). Connect starts the handshake.
func NewManager(cfg config.NetworkConfig, address string, join JoinParams) *Manager {
	return &Manager{
		cfg:     cfg,
		address: address,
		join:    join,
		roster:  make(map[string]protocol.PlayerSnapshot),
		events:  make(chan Event, 256),
		quit:    make(chan struct{}),
	}
}

// Events is the single channel all domain events arrive on.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SelfID returns the session id assigned by the server for the current
// connection; empty while not connected.
func (m *Manager) SelfID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selfID
}

// Roster returns a copy of the latest known snapshots.
func (m *Manager) Roster() []protocol.PlayerSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]protocol.PlayerSnapshot, 0, len(m.roster))
	for _, snap := range m.roster {
		out = append(out, snap)
	}
	return out
}

// Connect dials in the background. A failed first connection surfaces as an
// ErrorEvent and leaves the manager Disconnected; it is not retried here.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.closed || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()

	go func() {
		if err := m.dialAndJoin(); err != nil {
			log.Printf("[network] connect failed: %v", err)
			m.mu.Lock()
			m.state = StateDisconnected
			m.mu.Unlock()
			m.emit(ErrorEvent{Err: err})
		}
	}()
}

// Close is the explicit leave: terminal, never followed by a reconnect.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	src := m.source
	m.source = nil
	m.mu.Unlock()

	close(m.quit)
	if src != nil {
		src.stop()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "leaving")
	}
	m.emit(Disconnected{})
}

func (m *Manager) dialAndJoin() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, m.address, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.address, err)
	}

	req := protocol.JoinRequest{
		Version:        protocol.Version,
		Name:           m.join.Name,
		CharacterModel: m.join.CharacterModel,
		ClientID:       m.join.ClientID,
	}
	b, err := protocol.Encode(protocol.MsgJoin, req)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "encode")
		return err
	}
	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	_, frame, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read join reply: %w", err)
	}
	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		conn.Close(websocket.StatusInvalidFramePayloadData, "bad join reply")
		return err
	}

	switch env.T {
	case protocol.MsgJoinRejected:
		rej, _ := protocol.DecodePayload[protocol.JoinRejected](env)
		_ = conn.Close(websocket.StatusNormalClosure, "rejected")
		return fmt.Errorf("join rejected: %s", rej.Reason)
	case protocol.MsgJoinAccepted:
		acc, err := protocol.DecodePayload[protocol.JoinAccepted](env)
		if err != nil {
			conn.Close(websocket.StatusInvalidFramePayloadData, "bad join reply")
			return err
		}
		m.becomeConnected(conn, acc)
		return nil
	default:
		conn.Close(websocket.StatusPolicyViolation, "unexpected reply")
		return fmt.Errorf("unexpected join reply %q", env.T)
	}
}

func (m *Manager) becomeConnected(conn *websocket.Conn, acc protocol.JoinAccepted) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "leaving")
		return
	}
	if m.source != nil {
		m.source.stop()
	}
	m.conn = conn
	m.selfID = acc.SessionID
	m.state = StateConnected
	m.gen++
	gen := m.gen

	m.roster = make(map[string]protocol.PlayerSnapshot, len(acc.Roster))
	for _, snap := range acc.Roster {
		m.roster[snap.SessionID] = snap
	}

	emitChanged := func(snap protocol.PlayerSnapshot) {
		m.emit(PlayerChanged{Player: snap})
	}
	if acc.SnapshotOnly || m.cfg.ForcePolling {
		m.source = newPollingSource(m.cfg.PollInterval, m.sampleRoster, emitChanged)
	} else {
		m.source = newStreamSource(m.cfg.CoalesceWindow, emitChanged)
	}
	m.source.start()
	m.mu.Unlock()

	log.Printf("[network] connected as %s (%d players online)", acc.SessionID, len(acc.Roster))
	m.emit(Connected{SelfID: acc.SessionID, Roster: acc.Roster})

	go m.readPump(conn, gen)
}

func (m *Manager) sampleRoster() []protocol.PlayerSnapshot {
	return m.Roster()
}

// readPump decodes inbound frames until the connection dies, then decides
// between a terminal disconnect and the reconnect loop.
func (m *Manager) readPump(conn *websocket.Conn, gen int) {
	ctx := context.Background()
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			m.handleReadFailure(gen, err)
			return
		}

		env, derr := protocol.DecodeEnvelope(frame)
		if derr != nil {
			log.Printf("[network] bad frame: %v", derr)
			m.emit(ErrorEvent{Err: derr})
			continue
		}
		m.handleMessage(env)
	}
}

func (m *Manager) handleMessage(env protocol.Envelope) {
	switch env.T {
	case protocol.MsgPlayerJoined:
		msg, err := protocol.DecodePayload[protocol.PlayerJoined](env)
		if err != nil {
			break
		}
		m.mu.Lock()
		m.roster[msg.Player.SessionID] = msg.Player
		m.mu.Unlock()
		m.emit(PlayerJoined{Player: msg.Player})

	case protocol.MsgPlayerLeft:
		msg, err := protocol.DecodePayload[protocol.PlayerLeft](env)
		if err != nil {
			break
		}
		m.mu.Lock()
		delete(m.roster, msg.SessionID)
		m.mu.Unlock()
		m.emit(PlayerLeft{SessionID: msg.SessionID})

	case protocol.MsgPlayerUpdate:
		msg, err := protocol.DecodePayload[protocol.PlayerUpdate](env)
		if err != nil {
			break
		}
		m.mu.Lock()
		m.roster[msg.Player.SessionID] = msg.Player
		src := m.source
		m.mu.Unlock()
		if src != nil {
			src.offer(msg.Player)
		}

	case protocol.MsgProjectile:
		msg, err := protocol.DecodePayload[protocol.ProjectileSpawn](env)
		if err != nil {
			break
		}
		m.emit(ProjectileCreated{Spawn: msg})

	case protocol.MsgPlayerDamaged, protocol.MsgPlayerHit:
		// MsgPlayerHit here is the server's direct-to-victim copy of the same
		// DamageEvent; consumers apply it idempotently.
		msg, err := protocol.DecodePayload[protocol.DamageEvent](env)
		if err != nil {
			break
		}
		m.emit(PlayerDamaged{Event: msg})

	case protocol.MsgPlayerRespawned:
		msg, err := protocol.DecodePayload[protocol.RespawnEvent](env)
		if err != nil {
			break
		}
		m.emit(PlayerRespawned{Event: msg})

	case protocol.MsgLeaderboardUpdate:
		msg, err := protocol.DecodePayload[protocol.LeaderboardUpdate](env)
		if err != nil {
			break
		}
		m.emit(LeaderboardUpdated{Entries: msg.Entries})

	default:
		log.Printf("[network] unhandled message %q", env.T)
	}
}

func (m *Manager) handleReadFailure(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		// A newer connection replaced this pump already.
		m.mu.Unlock()
		return
	}
	closed := m.closed
	m.conn = nil
	status := websocket.CloseStatus(err)
	if closed || expectedClose(status) {
		m.state = StateDisconnected
		src := m.source
		m.source = nil
		m.mu.Unlock()
		if src != nil {
			src.stop()
		}
		if !closed {
			m.emit(Disconnected{})
		}
		return
	}
	m.state = StateReconnecting
	m.mu.Unlock()

	log.Printf("[network] connection lost (%v), reconnecting", err)
	m.emit(ErrorEvent{Err: err})
	go m.reconnectLoop()
}

// expectedClose reports whether a close status means a deliberate shutdown,
// which must not trigger the reconnect loop.
func expectedClose(status websocket.StatusCode) bool {
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}

// reconnectLoop retries on a fixed cadence, first after the initial delay and
// then repeatedly after the retry delay, until a connection sticks or Close
// is called. Attempts are unbounded.
func (m *Manager) reconnectLoop() {
	delay := m.cfg.ReconnectInitialDelay
	for attempt := 1; ; attempt++ {
		m.emit(Reconnecting{Attempt: attempt})
		select {
		case <-m.quit:
			return
		case <-time.After(delay):
		}

		err := m.dialAndJoin()
		if err == nil {
			return
		}
		log.Printf("[network] reconnect attempt %d failed: %v", attempt, err)
		delay = m.cfg.ReconnectRetryDelay
	}
}

// send encodes and writes one frame. While disconnected it logs and returns
// ErrNotConnected without touching the wire.
func (m *Manager) send(t string, payload any) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil {
		log.Printf("[network] dropping %s: %v", t, ErrNotConnected)
		return ErrNotConnected
	}

	b, err := protocol.Encode(t, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		// Surface but do not disconnect; the read pump owns that decision.
		m.emit(ErrorEvent{Err: err})
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

func (m *Manager) SendMove(mv protocol.Move) error {
	return m.send(protocol.MsgMove, mv)
}

func (m *Manager) SendHitReport(rep protocol.HitReport) error {
	return m.send(protocol.MsgPlayerHit, rep)
}

func (m *Manager) SendProjectile(spawn protocol.ProjectileSpawn) error {
	return m.send(protocol.MsgProjectile, spawn)
}

func (m *Manager) SendEquip(itemID string) error {
	return m.send(protocol.MsgEquip, protocol.Equip{ItemID: itemID})
}

func (m *Manager) SendState(state protocol.PlayerState) error {
	return m.send(protocol.MsgPlayerState, protocol.StateChange{State: state})
}

func (m *Manager) SendKillAttribution(killerID string) error {
	return m.send(protocol.MsgKillAttribution, protocol.KillAttribution{KillerID: killerID})
}

func (m *Manager) RequestLeaderboard() error {
	return m.send(protocol.MsgRequestLeaderboard, protocol.LeaderboardRequest{})
}

// emit delivers an event without ever blocking a network goroutine; if the
// consumer has fallen 256 events behind, the oldest information is already
// stale and the event is dropped with a log line.
func (m *Manager) emit(e Event) {
	select {
	case m.events <- e:
	default:
		log.Printf("[network] event channel full, dropping %T", e)
	}
}
