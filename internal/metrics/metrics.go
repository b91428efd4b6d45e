package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)

	OrdersInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_initiated_total",
			Help: "Payment orders created after the gateway accepted the pay request",
		},
		[]string{"target"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_transitions_total",
			Help: "Guarded status writes by source and resulting status",
		},
		[]string{"source", "status"},
	)

	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_requests_total",
			Help: "Calls made to the payment gateway",
		},
		[]string{"endpoint", "outcome"},
	)

	WebhookRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_rejections_total",
			Help: "Gateway callbacks rejected before touching any order",
		},
		[]string{"reason"},
	)

	OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_outbox_published_total",
			Help: "Outbox rows handed to the broker",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		OrdersInitiated,
		StatusTransitions,
		GatewayRequests,
		WebhookRejections,
		OutboxPublished,
	)
}
