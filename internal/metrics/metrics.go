package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the host's prometheus collectors.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	PublicBroadcasts  prometheus.Counter
	TargetedSends     prometheus.Counter
	SnapshotRequests  prometheus.Counter
	RejectedActions   prometheus.Counter
	RoomsActive       prometheus.Gauge
}

// New registers the collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		ActiveConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active websocket connections",
		}),
		PublicBroadcasts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "public_broadcast_total",
			Help: "Public messages fanned out to rooms",
		}),
		TargetedSends: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "targeted_send_total",
			Help: "Messages targeted at a single UID",
		}),
		SnapshotRequests: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "snapshot_request_total",
			Help: "Resync snapshot requests answered",
		}),
		RejectedActions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rejected_action_total",
			Help: "Player actions rejected by the coordinator",
		}),
		RoomsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Rooms currently registered on this host",
		}),
	}
}
