package room

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Role tags a Peer's class within a room (spec §3, "Peer").
type Role string

const (
	RoleBrowser Role = "browser"
	RoleLocal   Role = "local"
	RoleAgent   Role = "agent"
)

// Peer is a single admitted WebSocket connection. Role and ClientID are
// fixed at admission and never change (spec §3 invariant).
//
// Every admitted Peer is held in the Room's registry, and outbound sends
// (RPC dispatch, broadcast, keepalive) look the target peer up there at
// send time. Each inbound read pump in the transport package holds its
// own Peer for the life of the connection.
type Peer struct {
	Role     Role
	ClientID string // empty for Browser
	Conn     *websocket.Conn

	writeMu chan struct{} // 1-buffered mutex guarding concurrent writes to Conn
}

func newPeer(role Role, clientID string, conn *websocket.Conn) *Peer {
	p := &Peer{Role: role, ClientID: clientID, Conn: conn, writeMu: make(chan struct{}, 1)}
	p.writeMu <- struct{}{}
	return p
}

// WriteJSON serializes v and writes it to the peer's socket, serializing
// concurrent writers (gorilla/websocket connections are not safe for
// concurrent writes).
func (p *Peer) WriteJSON(v interface{}) error {
	<-p.writeMu
	defer func() { p.writeMu <- struct{}{} }()
	return p.Conn.WriteJSON(v)
}

// peerKey identifies a peer within the registry: role alone for
// Browser/Local, role+clientID for Agent. A Local peer's clientId is kept
// on its Peer but is not part of the key (spec §4.2).
type peerKey struct {
	role     Role
	clientID string
}

// TargetInfo mirrors the CDP TargetInfo shape carried by lifecycle events.
type TargetInfo struct {
	TargetID         string `json:"targetId"`
	Type             string `json:"type,omitempty"`
	Title            string `json:"title,omitempty"`
	URL              string `json:"url,omitempty"`
	Attached         bool   `json:"attached,omitempty"`
	BrowserContextID string `json:"browserContextId,omitempty"`
}

// Target is a mirrored browser attachment unit (spec §3, "Target").
type Target struct {
	SessionID string
	TargetID  string
	Info      TargetInfo
}

// PendingRequest tracks one in-flight RPC dispatched to a back-end peer
// (spec §3, "PendingRequest").
type PendingRequest struct {
	ID             int
	Method         string
	Deadline       time.Time
	OriginClientID string

	resultCh chan rpcResult
	timer    *time.Timer
}

type rpcResult struct {
	result json.RawMessage
	err    error
}
