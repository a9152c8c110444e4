package room

import (
	"github.com/workspace/room-relay/internal/metrics"
)

// broadcast fans an event out to every currently-registered agent peer
// (spec §4.6, C7). A snapshot of the agent set is taken before iterating
// so that an agent disconnecting mid-broadcast cannot mutate the set
// being iterated (spec §9 "Fan-out snapshotting"); one peer's send
// failure is isolated and never prevents delivery to the others (spec §8
// "fan-out completeness").
func (r *Room) broadcast(event AgentEvent) {
	r.mu.Lock()
	agents := r.peers.agentsSnapshot()
	r.mu.Unlock()

	metrics.EventsBroadcast.WithLabelValues(event.Method).Inc()

	for _, agent := range agents {
		if err := agent.WriteJSON(event); err != nil {
			r.logger.Warn("broadcast send failed", "clientId", agent.ClientID, "method", event.Method, "error", err)
		}
	}
}

// sendToAgent delivers a single synthesized event or reply to one agent
// (used by the Command Router for per-agent synthesis and by RPC reply
// delivery).
func (r *Room) sendToAgent(p *Peer, v interface{}) {
	if err := p.WriteJSON(v); err != nil {
		r.logger.Warn("send to agent failed", "clientId", p.ClientID, "error", err)
	}
}
