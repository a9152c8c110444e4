// Package roomerr defines the typed error taxonomy shared by the room
// subsystem and its HTTP/WS admission layer (spec §7).
package roomerr

import (
	"errors"
	"strconv"
)

// Sentinel admission errors (§7.1). HTTP handlers map these to status codes
// before any WebSocket upgrade happens.
var (
	ErrUnauthorized = errors.New("passphrase required")
	ErrForbidden    = errors.New("passphrase mismatch")
	ErrConflict     = errors.New("peer role already present")
)

// NotConnected is returned by the Command Router when an agent command
// needs a back-end peer that isn't attached (§7.2).
type NotConnected struct {
	Peer string // "Extension" or "Local client"
}

func (e *NotConnected) Error() string {
	return e.Peer + " not connected"
}

// Timeout is returned when an RPC's deadline fires before a response
// arrives (§7.4).
type Timeout struct {
	Peer   string // "Extension" or "Local client"
	Method string
	Millis int64
}

func (e *Timeout) Error() string {
	return e.Peer + " request timeout after " + strconv.FormatInt(e.Millis, 10) + "ms: " + e.Method
}

// Closed is returned for all pending requests rejected by a back-end peer
// disconnect (§7.5).
type Closed struct {
	Peer string // "Extension" or "Local client"
}

func (e *Closed) Error() string {
	return e.Peer + " connection closed"
}

// WriteBeforeRead is the synchronous pre-dispatch failure for §4.5 / §7.6.
type WriteBeforeRead struct {
	Path string
}

func (e *WriteBeforeRead) Error() string {
	return "Cannot write to " + e.Path + ": file has not been read yet. Read the file first to ensure you have the latest content."
}
