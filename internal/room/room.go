// Package room implements the per-tenant relay hub described by
// SPEC_FULL.md §3–§5: peer admission and single-peer invariants, RPC
// multiplexing to the browser and local back-ends, the target registry,
// the read-time ledger, keepalive, and room lifecycle.
package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/workspace/room-relay/internal/config"
	"github.com/workspace/room-relay/internal/metrics"
	"github.com/workspace/room-relay/internal/roomerr"
)

// Room is the stateful, per-tenant hub (spec §3 "Room"). All fields are
// guarded by mu; mu is held only across in-memory transitions and is
// released before any blocking socket write (SPEC_FULL.md §5).
type Room struct {
	ID     string
	cfg    *config.Config
	logger *slog.Logger

	mu         sync.Mutex
	peers      *peerRegistry
	auth       *authenticator
	targets    *targetRegistry
	ledger     *readTimeLedger
	browserMux *multiplexer
	localMux   *multiplexer

	keepaliveStop chan struct{}
	keepaliveOn   bool

	emptySince time.Time // zero while the room holds at least one peer
}

func newRoom(id string, cfg *config.Config, logger *slog.Logger) *Room {
	return &Room{
		ID:         id,
		cfg:        cfg,
		logger:     logger.With("room", id),
		peers:      newPeerRegistry(),
		auth:       newAuthenticator(cfg.AuthRateLimitPerMinute),
		targets:    newTargetRegistry(),
		ledger:     newReadTimeLedger(),
		browserMux: newMultiplexer("Extension"),
		localMux:   newMultiplexer("Local client"),
		emptySince: time.Now(),
	}
}

// Authenticate validates a passphrase against the room's first-writer-wins
// digest (spec §4.1, C2).
func (r *Room) Authenticate(passphrase string) error {
	err := r.auth.validate(passphrase)
	if err != nil {
		reason := "mismatch"
		if err == roomerr.ErrUnauthorized {
			reason = "missing"
		}
		metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
	return err
}

// Admit admits a WebSocket peer into the room under the rules of spec
// §4.2. When clientID is empty and role is Agent, a random UUID is
// generated as the client id (spec's default-generated clientId expansion).
func (r *Room) Admit(role Role, clientID string, conn *websocket.Conn) (*Peer, error) {
	if role == RoleAgent && clientID == "" {
		clientID = uuid.NewString()
	}

	r.mu.Lock()
	peer, err := r.peers.admit(role, clientID, conn)
	if err == nil {
		r.emptySince = time.Time{}
	}
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	metrics.PeersConnected.WithLabelValues(string(role)).Inc()
	r.ensureKeepalive()
	r.logger.Info("peer admitted", "role", role, "clientId", clientID)
	return peer, nil
}

// Disconnect handles a peer's departure and runs the lifecycle transitions
// of spec §4.8 (C10).
func (r *Room) Disconnect(p *Peer) {
	r.mu.Lock()
	r.peers.remove(p)
	empty := r.peers.isEmpty()
	if empty && r.emptySince.IsZero() {
		r.emptySince = time.Now()
	}
	r.mu.Unlock()

	metrics.PeersConnected.WithLabelValues(string(p.Role)).Dec()
	r.logger.Info("peer disconnected", "role", p.Role, "clientId", p.ClientID)

	switch p.Role {
	case RoleBrowser:
		r.onBrowserClosed()
	case RoleLocal:
		r.onLocalClosed()
	case RoleAgent:
		// Closure affects nothing beyond removal from fan-out (spec §4.8).
	}

	r.maybeStopKeepalive()
	if empty {
		metrics.RoomsActive.Dec()
	}
}

func (r *Room) onBrowserClosed() {
	r.mu.Lock()
	r.targets.clear()
	agents := r.peers.agentsSnapshot()
	r.mu.Unlock()

	r.browserMux.rejectAll(&roomerr.Closed{Peer: "Extension"})

	for _, agent := range agents {
		_ = agent.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Extension disconnected"),
			time.Now().Add(2*time.Second))
		_ = agent.Conn.Close()
	}
}

func (r *Room) onLocalClosed() {
	r.mu.Lock()
	r.ledger.clear()
	r.mu.Unlock()

	r.localMux.rejectAll(&roomerr.Closed{Peer: "Local client"})
}

// WouldConflict reports whether admitting role/clientID would violate the
// single-peer invariants of spec §4.2, without actually admitting anyone.
// HTTP handlers use this to return 409 before upgrading the connection;
// a race against a concurrent admission is still caught by Admit itself.
func (r *Room) WouldConflict(role Role, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch role {
	case RoleBrowser:
		return r.peers.lookupBrowser() != nil
	case RoleLocal:
		return r.peers.lookupLocal() != nil
	case RoleAgent:
		return clientID != "" && r.peers.lookupAgent(clientID) != nil
	default:
		return false
	}
}

// BrowserConnected reports whether a browser peer is currently admitted.
func (r *Room) BrowserConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peers.lookupBrowser() != nil
}

// LocalConnected reports whether a local peer is currently admitted.
func (r *Room) LocalConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peers.lookupLocal() != nil
}

// --- RoomManager -----------------------------------------------------

// Manager is the process-wide, mutex-guarded registry of rooms
// (SPEC_FULL.md §3 "RoomManager"). Rooms are created lazily on first
// admission and removed after an idle grace period once empty (spec
// §4.8, "persists briefly").
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger, rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for id, constructing it on first use.
func (m *Manager) GetOrCreate(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rm, ok := m.rooms[id]; ok {
		return rm
	}
	rm := newRoom(id, m.cfg, m.logger)
	m.rooms[id] = rm
	metrics.RoomsActive.Inc()
	return rm
}

// Get returns the room for id if it already exists, without creating one.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.rooms[id]
	return rm, ok
}

// ReapIdle removes rooms that have had no peers for at least the
// configured grace period. It sweeps once per grace period on its own
// ticker and blocks until ctx is cancelled, so the owning process runs it
// in a goroutine (as cmd/room-relay does).
func (m *Manager) ReapIdle(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.RoomIdleGrace)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rm := range m.rooms {
		rm.mu.Lock()
		stale := !rm.emptySince.IsZero() && time.Since(rm.emptySince) >= m.cfg.RoomIdleGrace
		rm.mu.Unlock()
		if stale {
			delete(m.rooms, id)
			m.logger.Info("room reaped", "room", id)
		}
	}
}
