package bot

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles Prometheus collectors for the bot.
type Metrics struct {
	Registry         *prometheus.Registry
	MessagesTotal    *prometheus.CounterVec
	PredictionsTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers the bot metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	messages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Incoming messages by kind.",
		},
		[]string{"kind"},
	)
	predictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_predictions_total",
			Help: "Predictions served by label.",
		},
		[]string{"label"},
	)

	registry.MustRegister(messages, predictions)

	return &Metrics{
		Registry:         registry,
		MessagesTotal:    messages,
		PredictionsTotal: predictions,
	}
}

// IncMessage counts one message of the given kind.
func (m *Metrics) IncMessage(kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(kind).Inc()
}

// IncPrediction counts one prediction for label.
func (m *Metrics) IncPrediction(label string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(label).Inc()
}
