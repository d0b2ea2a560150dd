package handlers

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/microtoolco/threadforge/internal/monitoring"
)

// AppMetrics holds the domain counters the handlers report into.
type AppMetrics struct {
	ConversionRequests *prometheus.CounterVec
	ConversionDuration *prometheus.HistogramVec
	ExportRequests     *prometheus.CounterVec
	WebhookEvents      *prometheus.CounterVec
}

// NewAppMetrics registers the domain metrics on the service collector.
func NewAppMetrics(mc *monitoring.MetricsCollector) *AppMetrics {
	return &AppMetrics{
		ConversionRequests: mc.NewCounter("conversions_total",
			"Conversion requests by outcome", []string{"status"}),
		ConversionDuration: mc.NewHistogram("conversion_duration_seconds",
			"End-to-end conversion duration", []string{"multi_format"}, nil),
		ExportRequests: mc.NewCounter("exports_total",
			"Export requests by platform and outcome", []string{"platform", "status"}),
		WebhookEvents: mc.NewCounter("webhook_events_total",
			"Billing webhook events by type and outcome", []string{"type", "status"}),
	}
}

func (m *AppMetrics) IncConversion(status string) {
	if m == nil || m.ConversionRequests == nil {
		return
	}
	m.ConversionRequests.WithLabelValues(status).Inc()
}

func (m *AppMetrics) ObserveConversion(multiFormat bool, seconds float64) {
	if m == nil || m.ConversionDuration == nil {
		return
	}
	label := "false"
	if multiFormat {
		label = "true"
	}
	m.ConversionDuration.WithLabelValues(label).Observe(seconds)
}

func (m *AppMetrics) IncExport(platform, status string) {
	if m == nil || m.ExportRequests == nil {
		return
	}
	m.ExportRequests.WithLabelValues(platform, status).Inc()
}

func (m *AppMetrics) IncWebhook(eventType, status string) {
	if m == nil || m.WebhookEvents == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, status).Inc()
}
