package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration is labelled with the chi route pattern, not the raw path
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	LeaveSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leave_submissions_total",
			Help: "Total number of leave requests submitted",
		},
		[]string{"type"},
	)

	LeaveDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leave_decisions_total",
			Help: "Total number of leave requests approved or rejected",
		},
		[]string{"status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leave_events_published_total",
			Help: "Leave events handed to the broker",
		},
		[]string{"routing_key", "result"}, // result: ok, error
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of e-mails sent by the worker",
		},
		[]string{"template", "status"}, // status: success, failed, skipped
	)

	StatsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Stats snapshot cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	SSEEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sse_events_dropped_total",
			Help: "Events a slow notification stream could not take",
		},
		[]string{"event"},
	)

	CronRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Scheduled job executions",
		},
		[]string{"job", "result"}, // result: ok, error
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func IncrementLeaveSubmission(leaveType string) {
	LeaveSubmissions.WithLabelValues(leaveType).Inc()
}

func IncrementLeaveDecision(status string) {
	LeaveDecisions.WithLabelValues(status).Inc()
}

func IncrementEventPublished(routingKey string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(routingKey, result).Inc()
}

func IncrementEmailSent(template, status string) {
	EmailsSent.WithLabelValues(template, status).Inc()
}

func IncrementStatsCacheLookup(result string) {
	StatsCacheLookups.WithLabelValues(result).Inc()
}

func IncrementSSEEventDropped(event string) {
	SSEEventsDropped.WithLabelValues(event).Inc()
}

func IncrementCronRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CronRuns.WithLabelValues(job, result).Inc()
}

// RegisterSSESubscribers exposes the live stream count. Call once at startup.
func RegisterSSESubscribers(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sse_subscribers",
		Help: "Open notification streams",
	}, func() float64 { return float64(count()) })
}
