// Package gateway accepts websocket connections, runs the join handshake,
// and pumps decoded wire messages into room commands. It holds no game state:
// everything authoritative lives behind the room's inbox.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/brazzo/sandstrike-mp/server/room"
	"github.com/brazzo/sandstrike-mp/shared/protocol"
)

const (
	joinTimeout = 10 * time.Second
	// DefaultRoomCode is used when a client connects without ?room=.
	DefaultRoomCode = "MAIN"
)

// Server terminates websockets for a room manager.
type Server struct {
	mgr *room.Manager
}

func New(mgr *room.Manager) *Server {
	return &Server{mgr: mgr}
}

// Handler exposes the websocket endpoint plus room listing and health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(s.mgr.ListRooms()); err != nil {
		log.Printf("[gateway] rooms encode error: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		code = DefaultRoomCode
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[gateway] accept: %v", err)
		return
	}

	go s.serve(conn, code)
}

// serve owns one connection for its lifetime: handshake, then the read pump.
func (s *Server) serve(conn *websocket.Conn, code string) {
	wc := newWSConn(conn)

	req, err := s.readJoin(conn)
	if err != nil {
		log.Printf("[gateway] join handshake: %v", err)
		conn.Close(websocket.StatusPolicyViolation, "bad join")
		return
	}
	if req.Version != "" && req.Version != protocol.Version {
		reject(wc, "version mismatch")
		return
	}

	rm := s.mgr.GetOrCreateRoom(code)
	if rm == nil {
		reject(wc, "invalid room")
		return
	}

	reply := make(chan room.JoinResult, 1)
	rm.Inbox <- room.Join{
		Conn:           wc,
		Name:           req.Name,
		CharacterModel: req.CharacterModel,
		ClientID:       req.ClientID,
		Reply:          reply,
	}

	var res room.JoinResult
	select {
	case res = <-reply:
	case <-time.After(joinTimeout):
		conn.Close(websocket.StatusTryAgainLater, "join timeout")
		return
	}
	if res.Rejected != "" {
		// The room already sent JoinRejected and closed the conn.
		return
	}

	s.readPump(conn, rm, res.SessionID)
}

func (s *Server) readJoin(conn *websocket.Conn) (protocol.JoinRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	_, b, err := conn.Read(ctx)
	if err != nil {
		return protocol.JoinRequest{}, err
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return protocol.JoinRequest{}, err
	}
	return protocol.DecodePayload[protocol.JoinRequest](env)
}

// readPump decodes frames into room commands until the connection dies, then
// issues the Leave. Unknown tags and malformed payloads are dropped with a
// log line; they never terminate the session.
func (s *Server) readPump(conn *websocket.Conn, rm *room.Room, sessionID string) {
	ctx := context.Background()
	defer func() {
		rm.Inbox <- room.Leave{SessionID: sessionID}
	}()

	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				log.Printf("[gateway] %s closed (%v)", sessionID, status)
			} else {
				log.Printf("[gateway] %s read error: %v", sessionID, err)
			}
			return
		}

		env, err := protocol.DecodeEnvelope(b)
		if err != nil {
			log.Printf("[gateway] %s bad frame: %v", sessionID, err)
			continue
		}
		if cmd, ok := decodeCommand(env, sessionID); ok {
			rm.Inbox <- cmd
		} else {
			log.Printf("[gateway] %s unhandled message %q", sessionID, env.T)
		}
	}
}

// decodeCommand maps a wire envelope onto a room command.
func decodeCommand(env protocol.Envelope, sessionID string) (any, bool) {
	switch env.T {
	case protocol.MsgMove:
		if m, err := protocol.DecodePayload[protocol.Move](env); err == nil {
			return room.Move{SessionID: sessionID, Move: m}, true
		}
	case protocol.MsgDamage:
		if d, err := protocol.DecodePayload[protocol.Damage](env); err == nil {
			return room.Damage{SessionID: sessionID, Damage: d}, true
		}
	case protocol.MsgPlayerHit:
		if h, err := protocol.DecodePayload[protocol.HitReport](env); err == nil {
			return room.Hit{SessionID: sessionID, Report: h}, true
		}
	case protocol.MsgProjectile:
		if p, err := protocol.DecodePayload[protocol.ProjectileSpawn](env); err == nil {
			return room.Projectile{SessionID: sessionID, Spawn: p}, true
		}
	case protocol.MsgEquip:
		if e, err := protocol.DecodePayload[protocol.Equip](env); err == nil {
			return room.Equip{SessionID: sessionID, ItemID: e.ItemID}, true
		}
	case protocol.MsgPlayerState:
		if st, err := protocol.DecodePayload[protocol.StateChange](env); err == nil {
			return room.SetState{SessionID: sessionID, State: st.State}, true
		}
	case protocol.MsgKillAttribution:
		if k, err := protocol.DecodePayload[protocol.KillAttribution](env); err == nil {
			return room.KillAttribution{SessionID: sessionID, KillerID: k.KillerID}, true
		}
	case protocol.MsgRequestLeaderboard:
		return room.LeaderboardRequest{SessionID: sessionID}, true
	}
	return nil, false
}

func reject(wc *wsConn, reason string) {
	if b, err := protocol.Encode(protocol.MsgJoinRejected, protocol.JoinRejected{Reason: reason}); err == nil {
		_ = wc.Send(b)
	}
	_ = wc.Close()
}
