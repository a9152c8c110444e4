package room

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/workspace/room-relay/internal/roomerr"
)

// multiplexer is the pending-request table shared by the Browser (C3) and
// Local (C4) RPC multiplexers (spec §3 "PendingRequest"; §9 "Pending-request
// table"). Each call allocates a monotonically increasing id from its own
// counter, which never resets during the life of the room even across
// reconnects of the peer on the other end (spec §4.4).
type multiplexer struct {
	peerName string // "Extension" or "Local client", used in error messages

	counter int64 // atomic

	mu      sync.Mutex
	pending map[int]*PendingRequest
}

func newMultiplexer(peerName string) *multiplexer {
	return &multiplexer{peerName: peerName, pending: make(map[int]*PendingRequest)}
}

// nextID allocates the next strictly-increasing correlation id.
func (m *multiplexer) nextID() int {
	return int(atomic.AddInt64(&m.counter, 1))
}

// register records a PendingRequest and arms its deadline timer. The
// returned channel receives exactly one rpcResult: a response, a timeout,
// or a disconnect rejection.
func (m *multiplexer) register(id int, method, originClientID string, timeout time.Duration) *PendingRequest {
	pr := &PendingRequest{
		ID:             id,
		Method:         method,
		Deadline:       time.Now().Add(timeout),
		OriginClientID: originClientID,
		resultCh:       make(chan rpcResult, 1),
	}
	m.mu.Lock()
	m.pending[id] = pr
	m.mu.Unlock()

	pr.timer = time.AfterFunc(timeout, func() {
		m.resolveWithError(id, &roomerr.Timeout{
			Peer:   m.peerName,
			Method: method,
			Millis: timeout.Milliseconds(),
		})
	})
	return pr
}

// resolve completes a pending request with a response, matching CDP-style
// result/error framing (non-empty error string means failure).
func (m *multiplexer) resolve(id int, result json.RawMessage, errStr string) bool {
	m.mu.Lock()
	pr, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	pr.timer.Stop()

	var err error
	if errStr != "" {
		err = errString(errStr)
	}
	pr.resultCh <- rpcResult{result: result, err: err}
	return true
}

func (m *multiplexer) resolveWithError(id int, err error) {
	m.mu.Lock()
	pr, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	pr.resultCh <- rpcResult{err: err}
}

// rejectAll rejects every pending request with err, used on back-end peer
// disconnect (spec §4.4/§4.5, "reject all pending").
func (m *multiplexer) rejectAll(err error) {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[int]*PendingRequest)
	m.mu.Unlock()

	for _, pr := range pending {
		pr.timer.Stop()
		pr.resultCh <- rpcResult{err: err}
	}
}

// pendingCount reports the number of in-flight requests.
func (m *multiplexer) pendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// errString is a plain string error, used to carry back-end error messages
// verbatim (spec §7: "errors from back-end peers are opaque strings").
type errString string

func (e errString) Error() string { return string(e) }
