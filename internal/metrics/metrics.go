package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook item outcomes.
const (
	OutcomeProcessed        = "processed"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeUnverifiable     = "unverifiable"
	OutcomeUnrecognized     = "unrecognized"
	OutcomeIgnored          = "ignored"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	webhookItems    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	paymentLinks    *prometheus.CounterVec
	commandMessages *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		webhookItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "webhook_items_total",
			Help:      "Notification items seen, by outcome.",
		}, []string{"event_code", "outcome"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "status_transitions_total",
			Help:      "Persisted payment status changes.",
		}, []string{"from", "to"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "gateway_commands_total",
			Help:      "Capture, refund and cancel calls, by result.",
		}, []string{"command", "result"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payment",
			Name:      "gateway_command_duration_seconds",
			Help:      "Gateway round trip time of modification commands.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		paymentLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "payment_links_total",
			Help:      "Hosted payment link requests, by result.",
		}, []string{"result"}),
		commandMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "command_messages_total",
			Help:      "Payment commands consumed from Kafka, by outcome.",
		}, []string{"command", "outcome"}),
	}
}

func (m *Metrics) WebhookItem(eventCode, outcome string) {
	if m == nil {
		return
	}
	m.webhookItems.WithLabelValues(eventCode, outcome).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// Command records one modification call. result is "success", "rejected" or
// "error".
func (m *Metrics) Command(command, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, result).Inc()
	m.commandDuration.WithLabelValues(command).Observe(took.Seconds())
}

func (m *Metrics) PaymentLink(result string) {
	if m == nil {
		return
	}
	m.paymentLinks.WithLabelValues(result).Inc()
}

func (m *Metrics) CommandMessage(command, outcome string) {
	if m == nil {
		return
	}
	m.commandMessages.WithLabelValues(command, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
