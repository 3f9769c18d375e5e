package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the relay.
type Metrics struct {
	// Connections
	Connections      prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	AdmissionsDenied prometheus.Counter
	KeepalivesMissed prometheus.Counter

	// Rooms
	ActiveRooms    prometheus.Gauge
	RoomsCreated   prometheus.Counter
	RoomsDestroyed *prometheus.CounterVec

	// Frames
	FramesReceived  *prometheus.CounterVec
	FramesDelivered *prometheus.CounterVec
	FramesDropped   prometheus.Counter
	FramesMalformed prometheus.Counter
	FramesLimited   prometheus.Counter

	// Liveness
	Sweeps        prometheus.Counter
	SweepDuration prometheus.Histogram
}

// New creates all collectors and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Name: "streamrelay_connections",
			Help: "Current number of open connections",
		}),
		ConnectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_connections_total",
			Help: "Total number of accepted connections",
		}),
		AdmissionsDenied: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_admissions_denied_total",
			Help: "Total number of connections rejected by the admission check",
		}),
		KeepalivesMissed: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_keepalives_missed_total",
			Help: "Connections expired because a ping went unanswered",
		}),

		ActiveRooms: f.NewGauge(prometheus.GaugeOpts{
			Name: "streamrelay_active_rooms",
			Help: "Current number of rooms in the registry",
		}),
		RoomsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_rooms_created_total",
			Help: "Total number of start events that created or replaced a room",
		}),
		RoomsDestroyed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamrelay_rooms_destroyed_total",
			Help: "Total number of rooms destroyed, by cause",
		}, []string{"cause"}),

		FramesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamrelay_frames_received_total",
			Help: "Inbound frames by event kind",
		}, []string{"event"}),
		FramesDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamrelay_frames_delivered_total",
			Help: "Outbound frames queued to a peer, by event",
		}, []string{"event"}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_frames_dropped_total",
			Help: "Outbound frames dropped because the peer was closed or its queue was full",
		}),
		FramesMalformed: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_frames_malformed_total",
			Help: "Inbound frames that could not be parsed and were dropped",
		}),
		FramesLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_frames_rate_limited_total",
			Help: "Inbound frames dropped by the per-connection rate limiter",
		}),

		Sweeps: f.NewCounter(prometheus.CounterOpts{
			Name: "streamrelay_liveness_sweeps_total",
			Help: "Total number of liveness sweeps run",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamrelay_liveness_sweep_duration_seconds",
			Help:    "Time spent in a liveness sweep",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8), // 10us to ~160ms
		}),
	}
}
