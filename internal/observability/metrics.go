package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// BookingsCreated counts bookings created by accommodation type.
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_bookings_created_total",
		Help: "Total number of bookings created",
	}, []string{"accommodation_type"})

	// PaymentsProcessed counts payment transitions by resulting status.
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_payments_processed_total",
		Help: "Total number of payment status transitions",
	}, []string{"status"})

	// ApprovalDecisions counts admin approval decisions by content kind and outcome.
	ApprovalDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_approval_decisions_total",
		Help: "Total number of admin approval decisions",
	}, []string{"kind", "decision"})

	// ReportsSubmitted counts trust and safety reports by target kind.
	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_reports_submitted_total",
		Help: "Total number of moderation reports submitted",
	}, []string{"target_type"})

	// WebSocketConnections is the gauge of active WebSocket connections per hub.
	WebSocketConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wayfare_websocket_connections",
		Help: "Number of active WebSocket connections per hub",
	}, []string{"hub"})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or its channel already closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ChatMessagesSent counts chat messages persisted and published.
	ChatMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wayfare_chat_messages_sent_total",
		Help: "Total number of chat messages sent",
	})

	// DomainEventsPublished counts domain events handed to the broker by topic key.
	DomainEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfare_domain_events_published_total",
		Help: "Total number of domain events published to the broker",
	}, []string{"event_type"})
)
