package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_webhooks_received_total",
			Help: "Total number of call-completed webhooks received",
		},
		[]string{"status"},
	)

	ExtractionMethod = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_method_total",
			Help: "Winning extraction method per transcript",
		},
		[]string{"method"},
	)

	ExtractionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_confidence",
			Help:    "Aggregate confidence of extraction results",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	IntakesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_intakes_created_total",
			Help: "Total number of intake records persisted",
		},
		[]string{"call_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_notifications_sent_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"channel", "status"},
	)
)
