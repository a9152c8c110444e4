// Package metrics exposes the Prometheus instrumentation for the room
// relay (SPEC_FULL.md §4 "ambient stack", C11).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "room_relay",
		Name:      "rooms_active",
		Help:      "Number of rooms currently holding at least one peer.",
	})

	PeersConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "room_relay",
		Name:      "peers_connected",
		Help:      "Number of connected peers by role.",
	}, []string{"role"})

	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "room_relay",
		Name:      "rpc_requests_total",
		Help:      "RPCs dispatched to a back-end peer, by target peer and method.",
	}, []string{"peer", "method"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "room_relay",
		Name:      "rpc_duration_seconds",
		Help:      "RPC round-trip latency by target peer and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"peer", "outcome"})

	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "room_relay",
		Name:      "events_broadcast_total",
		Help:      "Events fanned out to agent peers.",
	}, []string{"method"})

	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "room_relay",
		Name:      "auth_failures_total",
		Help:      "Admission attempts rejected, by reason.",
	}, []string{"reason"})
)
