// Package metrics holds the Prometheus collectors shared by the API and the
// notifier. All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	DetectionsCreated     *prometheus.CounterVec // by crop_type
	DetectionsReviewed    *prometheus.CounterVec // by status
	UploadFailures        prometheus.Counter
	AIRequests            *prometheus.CounterVec // by result
	AIRequestDuration     prometheus.Histogram
	NotificationsQueued   *prometheus.CounterVec // by type, result
	NotificationDelivered *prometheus.CounterVec // by channel, result
	ChangeEvents          *prometheus.CounterVec // by table
	RealtimeClients       prometheus.Gauge

	registry *prometheus.Registry
}

func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()

	for _, c := range m.collectors() {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.DetectionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bantayani_detections_created_total",
		Help: "Detections submitted by farmers, by crop type",
	}, []string{"crop_type"})

	m.DetectionsReviewed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bantayani_detections_reviewed_total",
		Help: "Review transitions applied, by resulting status",
	}, []string{"status"})

	m.UploadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bantayani_image_upload_failures_total",
		Help: "Detection image uploads that failed",
	})

	m.AIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bantayani_ai_requests_total",
		Help: "Pest identification calls, by result",
	}, []string{"result"})

	m.AIRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bantayani_ai_request_duration_seconds",
		Help:    "Latency of pest identification calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
	})

	m.NotificationsQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bantayani_notifications_queued_total",
		Help: "Notification events published to the broker, by type and result",
	}, []string{"type", "result"})

	m.NotificationDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bantayani_notifications_delivered_total",
		Help: "Notification deliveries, by channel and result",
	}, []string{"channel", "result"})

	m.ChangeEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bantayani_change_events_total",
		Help: "Change events published, by table",
	}, []string{"table"})

	m.RealtimeClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bantayani_realtime_clients",
		Help: "Connected websocket clients",
	})
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DetectionsCreated, m.DetectionsReviewed, m.UploadFailures,
		m.AIRequests, m.AIRequestDuration, m.NotificationsQueued,
		m.NotificationDelivered, m.ChangeEvents, m.RealtimeClients,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordDetectionCreated(cropType string) {
	if m == nil {
		return
	}
	m.DetectionsCreated.WithLabelValues(cropType).Inc()
}

func (m *Metrics) RecordDetectionReviewed(status string) {
	if m == nil {
		return
	}
	m.DetectionsReviewed.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordUploadFailure() {
	if m == nil {
		return
	}
	m.UploadFailures.Inc()
}

func (m *Metrics) RecordAIRequest(result string, seconds float64) {
	if m == nil {
		return
	}
	m.AIRequests.WithLabelValues(result).Inc()
	m.AIRequestDuration.Observe(seconds)
}

func (m *Metrics) RecordNotificationQueued(notificationType, result string) {
	if m == nil {
		return
	}
	m.NotificationsQueued.WithLabelValues(notificationType, result).Inc()
}

func (m *Metrics) RecordDelivery(channel, result string) {
	if m == nil {
		return
	}
	m.NotificationDelivered.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) RecordChangeEvent(table string) {
	if m == nil {
		return
	}
	m.ChangeEvents.WithLabelValues(table).Inc()
}

func (m *Metrics) RealtimeClientDelta(delta float64) {
	if m == nil {
		return
	}
	m.RealtimeClients.Add(delta)
}
