package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/workspace/room-relay/internal/config"
	"github.com/workspace/room-relay/internal/room"
	"github.com/workspace/room-relay/internal/roomerr"
)

// Server is the HTTP entrypoint for the relay (spec §6).
type Server struct {
	cfg      *config.Config
	manager  *room.Manager
	logger   *slog.Logger
	upgrader websocket.Upgrader
	mcp      http.Handler // mounted at /room/{roomId}/mcp-server
}

func New(cfg *config.Config, manager *room.Manager, logger *slog.Logger, mcp http.Handler) *Server {
	return &Server{
		cfg:      cfg,
		manager:  manager,
		logger:   logger,
		upgrader: newUpgrader(cfg),
		mcp:      mcp,
	}
}

// Routes registers the spec §6 surface on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /room/{roomId}/extension", s.handleExtensionWS)
	mux.HandleFunc("GET /room/{roomId}/extension/status", s.handleExtensionStatus)

	mux.HandleFunc("GET /room/{roomId}/local", s.handleLocalWS)
	mux.HandleFunc("GET /room/{roomId}/local/{clientId}", s.handleLocalWS)
	mux.HandleFunc("GET /room/{roomId}/local/status", s.handleLocalStatus)

	mux.HandleFunc("GET /room/{roomId}/mcp", s.handleAgentWS)
	mux.HandleFunc("GET /room/{roomId}/mcp/{clientId}", s.handleAgentWS)

	if s.mcp != nil {
		mux.HandleFunc("/room/{roomId}/mcp-server", s.handleMCPServer)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Liveness is always available without a passphrase (spec §6). An
	// optional ?passphrase= on /health triggers the first-set side effect
	// against a room, matching the "triggers first-set side effect" note.
	if rid := r.URL.Query().Get("room"); rid != "" {
		if pass := r.URL.Query().Get("passphrase"); pass != "" {
			_ = s.manager.GetOrCreate(rid).Authenticate(pass)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metricsHandler(w, r)
}

func (s *Server) handleExtensionStatus(w http.ResponseWriter, r *http.Request) {
	rid := r.PathValue("roomId")
	if rid == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rm, ok := s.manager.Get(rid)
	connected := ok && rm.BrowserConnected()
	writeJSON(w, http.StatusOK, map[string]any{"connected": connected})
}

func (s *Server) handleLocalStatus(w http.ResponseWriter, r *http.Request) {
	rid := r.PathValue("roomId")
	if rid == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rm, ok := s.manager.Get(rid)
	connected := ok && rm.LocalConnected()
	writeJSON(w, http.StatusOK, map[string]any{"connected": connected})
}

func (s *Server) handleExtensionWS(w http.ResponseWriter, r *http.Request) {
	s.admitAndServe(w, r, room.RoleBrowser, "")
}

func (s *Server) handleLocalWS(w http.ResponseWriter, r *http.Request) {
	s.admitAndServe(w, r, room.RoleLocal, r.PathValue("clientId"))
}

func (s *Server) handleAgentWS(w http.ResponseWriter, r *http.Request) {
	s.admitAndServe(w, r, room.RoleAgent, r.PathValue("clientId"))
}

// admitAndServe performs the common admission sequence for §6's WebSocket
// endpoints: passphrase check, role/clientId admission, upgrade, then
// hands the connection to the role-appropriate read pump.
func (s *Server) admitAndServe(w http.ResponseWriter, r *http.Request, roleTag room.Role, clientID string) {
	rid := r.PathValue("roomId")
	if rid == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rm := s.manager.GetOrCreate(rid)

	if err := rm.Authenticate(passphraseFrom(r)); err != nil {
		writeAuthError(w, err)
		return
	}

	if rm.WouldConflict(roleTag, clientID) {
		w.WriteHeader(http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "room", rid, "error", err)
		return
	}

	peer, err := rm.Admit(roleTag, clientID, conn)
	if err != nil {
		// Lost a race against a concurrent admission; the pre-check above
		// makes this rare in practice.
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "conflict"), time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	switch roleTag {
	case room.RoleBrowser:
		go runBrowserPump(rm, peer)
	case room.RoleLocal:
		go runLocalPump(rm, peer)
	case room.RoleAgent:
		go runAgentPump(rm, peer, s.logger)
	}
}

func runBrowserPump(rm *room.Room, peer *room.Peer) {
	defer rm.Disconnect(peer)
	for {
		_, raw, err := peer.Conn.ReadMessage()
		if err != nil {
			return
		}
		rm.HandleBrowserMessage(raw)
	}
}

func runLocalPump(rm *room.Room, peer *room.Peer) {
	defer rm.Disconnect(peer)
	for {
		_, raw, err := peer.Conn.ReadMessage()
		if err != nil {
			return
		}
		rm.HandleLocalMessage(raw)
	}
}

func runAgentPump(rm *room.Room, peer *room.Peer, logger *slog.Logger) {
	defer rm.Disconnect(peer)
	for {
		_, raw, err := peer.Conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd room.AgentCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			// Malformed JSON is dropped and logged, no reply synthesized
			// (spec §7.8).
			logger.Error("malformed agent message", "clientId", peer.ClientID, "error", err)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		rm.RouteAgentCommand(ctx, peer, cmd)
		cancel()
	}
}

func (s *Server) handleMCPServer(w http.ResponseWriter, r *http.Request) {
	rid := r.PathValue("roomId")
	rm := s.manager.GetOrCreate(rid)
	if err := rm.Authenticate(passphraseFrom(r)); err != nil {
		writeAuthError(w, err)
		return
	}
	s.mcp.ServeHTTP(w, r)
}

// passphraseFrom extracts the passphrase from either a bearer-style
// Authorization header or a query parameter (spec §4.1, §6).
func passphraseFrom(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if p, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return p
		}
	}
	return r.URL.Query().Get("passphrase")
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roomerr.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, roomerr.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
	default:
		w.WriteHeader(http.StatusForbidden)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
