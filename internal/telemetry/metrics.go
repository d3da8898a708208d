package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsEnqueued      = prometheus.NewCounter(prometheus.CounterOpts{Name: "genjobs_enqueued_total", Help: "Total generation jobs accepted"})
	JobsCompleted     = prometheus.NewCounter(prometheus.CounterOpts{Name: "genjobs_completed_total", Help: "Jobs that finished with an artifact"})
	JobsFailed        = prometheus.NewCounter(prometheus.CounterOpts{Name: "genjobs_failed_total", Help: "Jobs that terminated with an error"})
	RateLimitRejects  = prometheus.NewCounter(prometheus.CounterOpts{Name: "genjobs_rate_limit_rejects_total", Help: "Submissions rejected by the rate limiter"})
	QueueDepthGauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "genjobs_queue_depth", Help: "Pending jobs awaiting the worker"})
	InProgressGauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "genjobs_in_progress", Help: "Jobs currently executing (0 or 1)"})
	EventsPublished   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "events_published_total", Help: "Events delivered per channel"}, []string{"channel"})
	EventsFailed      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "events_failed_total", Help: "Event deliveries that failed per channel"}, []string{"channel"})
	MonitorHeartbeats = prometheus.NewCounter(prometheus.CounterOpts{Name: "monitor_heartbeats_total", Help: "Heartbeat events emitted by the host monitor"})
	SpotInterruptions = prometheus.NewCounter(prometheus.CounterOpts{Name: "monitor_spot_interruptions_total", Help: "Spot interruption warnings observed"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsEnqueued,
			JobsCompleted,
			JobsFailed,
			RateLimitRejects,
			QueueDepthGauge,
			InProgressGauge,
			EventsPublished,
			EventsFailed,
			MonitorHeartbeats,
			SpotInterruptions,
		)
	})
	return promhttp.Handler()
}
