package metrics

import "github.com/prometheus/client_golang/prometheus"

// TurnMetrics exposes counters/histograms for conversation turn processing.
type TurnMetrics struct {
	turnsTotal    *prometheus.CounterVec
	modelFailures prometheus.Counter
	quotaDeclines prometheus.Counter
	functionCalls *prometheus.CounterVec
	turnDuration  prometheus.Histogram
}

func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	m := &TurnMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"status"}),
		modelFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "conversation",
			Name:      "model_failures_total",
			Help:      "Total language model call failures",
		}),
		quotaDeclines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "conversation",
			Name:      "quota_declines_total",
			Help:      "Total turns declined by the daily quota",
		}),
		functionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "conversation",
			Name:      "function_calls_total",
			Help:      "Total dispatched model function calls",
		}, []string{"function", "status"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "conversation",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn processing latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.modelFailures, m.quotaDeclines, m.functionCalls, m.turnDuration)
	return m
}

func (m *TurnMetrics) ObserveTurn(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnDuration.Observe(seconds)
}

func (m *TurnMetrics) ObserveModelFailure() {
	if m == nil {
		return
	}
	m.modelFailures.Inc()
}

func (m *TurnMetrics) ObserveQuotaDecline() {
	if m == nil {
		return
	}
	m.quotaDeclines.Inc()
}

func (m *TurnMetrics) ObserveFunctionCall(function, status string) {
	if m == nil {
		return
	}
	m.functionCalls.WithLabelValues(function, status).Inc()
}
