package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "favordesk_queue_active_total",
			Help: "Active (approved) tickets per creator and lane",
		},
		[]string{"creator", "lane"},
	)

	engineOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favordesk_engine_operations_total",
			Help: "Scheduling engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "favordesk_sync_duration_seconds",
			Help:    "Duration of tag synchronization passes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favordesk_submissions_total",
			Help: "Favor submissions by lane and outcome",
		},
		[]string{"lane", "outcome"},
	)

	snapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favordesk_snapshot_cache_total",
			Help: "Queue snapshot cache lookups by result",
		},
		[]string{"result"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) SetQueueActive(creator, lane string, count int) {
	queueActive.WithLabelValues(creator, lane).Set(float64(count))
}

func (m *Monitor) TrackEngineOp(operation, outcome string) {
	engineOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Monitor) TrackSyncDuration(d time.Duration) {
	syncDuration.Observe(d.Seconds())
}

func (m *Monitor) TrackSubmission(lane, outcome string) {
	submissions.WithLabelValues(lane, outcome).Inc()
}

func (m *Monitor) TrackSnapshotCache(result string) {
	snapshotCache.WithLabelValues(result).Inc()
}
