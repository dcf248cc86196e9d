package metrics

import "github.com/prometheus/client_golang/prometheus"

// TurnMetrics exposes counters for the WhatsApp turn pipeline.
type TurnMetrics struct {
	inboundTotal    *prometheus.CounterVec
	completionTotal *prometheus.CounterVec
	ordersTotal     *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
}

func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	m := &TurnMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasbot",
			Subsystem: "whatsapp",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound webhook events by outcome",
		}, []string{"outcome"}),
		completionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasbot",
			Subsystem: "llm",
			Name:      "completions_total",
			Help:      "Total model completions by status",
		}, []string{"status"}),
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasbot",
			Subsystem: "orders",
			Name:      "materialized_total",
			Help:      "Total order materialization attempts by status",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gasbot",
			Subsystem: "whatsapp",
			Name:      "outbound_total",
			Help:      "Total outbound sends by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.completionTotal, m.ordersTotal, m.outboundTotal)
	return m
}

func (m *TurnMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *TurnMetrics) ObserveCompletion(status string) {
	if m == nil {
		return
	}
	m.completionTotal.WithLabelValues(status).Inc()
}

func (m *TurnMetrics) ObserveOrder(status string) {
	if m == nil {
		return
	}
	m.ordersTotal.WithLabelValues(status).Inc()
}

func (m *TurnMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}
