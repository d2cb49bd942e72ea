// Package registry implements the master-server directory: game servers
// register and heartbeat their occupancy, clients list servers to pick one.
package registry

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// ServerInfo describes a game server visible to clients.
type ServerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Rooms      int    `json:"rooms"`
	Version    string `json:"version"`
	Region     string `json:"region"`
}

type serverRecord struct {
	ServerInfo
	LastSeen time.Time
}

// Registry is an in-memory store of active game servers with TTL expiry.
type Registry struct {
	mu      sync.RWMutex
	servers map[string]*serverRecord
	ttl     time.Duration
	stopCh  chan struct{}
}

func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		servers: make(map[string]*serverRecord),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

func (r *Registry) Stop() {
	close(r.stopCh)
}

func (r *Registry) Register(info ServerInfo) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	id := fmt.Sprintf("%x", b)
	info.ID = id

	r.mu.Lock()
	r.servers[id] = &serverRecord{ServerInfo: info, LastSeen: time.Now()}
	r.mu.Unlock()

	return id
}

func (r *Registry) Heartbeat(id string, players, rooms int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.servers[id]
	if !ok {
		return false
	}
	rec.LastSeen = time.Now()
	rec.Players = players
	rec.Rooms = rooms
	return true
}

func (r *Registry) List() []ServerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ServerInfo, 0, len(r.servers))
	for _, rec := range r.servers {
		result = append(result, rec.ServerInfo)
	}
	return result
}

func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for id, rec := range r.servers {
				if now.Sub(rec.LastSeen) >= r.ttl {
					log.Printf("[registry] expired server %q (id=%s, last seen %s ago)",
						rec.Name, id, now.Sub(rec.LastSeen).Round(time.Second))
					delete(r.servers, id)
				}
			}
			r.mu.Unlock()
		}
	}
}

type registerRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Rooms      int    `json:"rooms"`
	Version    string `json:"version"`
	Region     string `json:"region"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type heartbeatRequest struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Rooms   int    `json:"rooms"`
}

const maxRequestBody = 1 << 16 // 64 KB

// Handler returns the master HTTP API.
func (r *Registry) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /servers", r.handleList)
	mux.HandleFunc("POST /servers/register", r.handleRegister)
	mux.HandleFunc("POST /servers/heartbeat", r.handleHeartbeat)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func (r *Registry) handleList(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(r.List()); err != nil {
		log.Printf("[registry] list encode error: %v", err)
	}
}

func (r *Registry) handleRegister(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req.Body = http.MaxBytesReader(w, req.Body, maxRequestBody)
	var body registerRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Address == "" {
		http.Error(w, `{"error":"name and address required"}`, http.StatusBadRequest)
		return
	}

	id := r.Register(ServerInfo{
		Name:       body.Name,
		Address:    body.Address,
		Players:    body.Players,
		MaxPlayers: body.MaxPlayers,
		Rooms:      body.Rooms,
		Version:    body.Version,
		Region:     body.Region,
	})
	log.Printf("[registry] registered server %q at %s (id=%s)", body.Name, body.Address, id)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registerResponse{ID: id})
}

func (r *Registry) handleHeartbeat(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req.Body = http.MaxBytesReader(w, req.Body, maxRequestBody)
	var body heartbeatRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if !r.Heartbeat(body.ID, body.Players, body.Rooms) {
		http.Error(w, `{"error":"unknown server"}`, http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
