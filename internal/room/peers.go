package room

import (
	"github.com/gorilla/websocket"
	"github.com/workspace/room-relay/internal/roomerr"
)

// peerRegistry maintains the set of live peers in a room (spec §4.2, C1).
// It is not safe for concurrent use on its own; callers hold the owning
// Room's mutex.
type peerRegistry struct {
	byKey   map[peerKey]*Peer
	browser *Peer
	local   *Peer
}

func newPeerRegistry() *peerRegistry {
	return &peerRegistry{byKey: make(map[peerKey]*Peer)}
}

// admit applies the admission rules of spec §4.2. Returns roomerr.ErrConflict
// when the role/clientId combination is already taken.
func (r *peerRegistry) admit(role Role, clientID string, conn *websocket.Conn) (*Peer, error) {
	switch role {
	case RoleBrowser:
		if r.browser != nil {
			return nil, roomerr.ErrConflict
		}
		p := newPeer(role, "", conn)
		r.browser = p
		r.byKey[peerKey{role: RoleBrowser}] = p
		return p, nil
	case RoleLocal:
		if r.local != nil {
			return nil, roomerr.ErrConflict
		}
		p := newPeer(role, clientID, conn)
		r.local = p
		r.byKey[peerKey{role: RoleLocal}] = p
		return p, nil
	case RoleAgent:
		key := peerKey{role: RoleAgent, clientID: clientID}
		if _, exists := r.byKey[key]; exists {
			return nil, roomerr.ErrConflict
		}
		p := newPeer(role, clientID, conn)
		r.byKey[key] = p
		return p, nil
	default:
		return nil, roomerr.ErrConflict
	}
}

// remove drops a peer from the registry. Safe to call more than once.
func (r *peerRegistry) remove(p *Peer) {
	switch p.Role {
	case RoleBrowser:
		if r.browser == p {
			r.browser = nil
		}
		delete(r.byKey, peerKey{role: RoleBrowser})
	case RoleLocal:
		if r.local == p {
			r.local = nil
		}
		delete(r.byKey, peerKey{role: RoleLocal})
	case RoleAgent:
		delete(r.byKey, peerKey{role: RoleAgent, clientID: p.ClientID})
	}
}

func (r *peerRegistry) lookupBrowser() *Peer { return r.browser }
func (r *peerRegistry) lookupLocal() *Peer   { return r.local }

func (r *peerRegistry) lookupAgent(clientID string) *Peer {
	return r.byKey[peerKey{role: RoleAgent, clientID: clientID}]
}

// agentsSnapshot returns a point-in-time copy of agent peers, used by the
// Event Broadcaster (spec §4.6, "fan-out snapshotting").
func (r *peerRegistry) agentsSnapshot() []*Peer {
	out := make([]*Peer, 0, len(r.byKey))
	for k, p := range r.byKey {
		if k.role == RoleAgent {
			out = append(out, p)
		}
	}
	return out
}

func (r *peerRegistry) isEmpty() bool {
	return r.browser == nil && r.local == nil && len(r.agentsSnapshot()) == 0
}
