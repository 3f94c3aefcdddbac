package mockgateway

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles Prometheus collectors for the mock gateway
type Metrics struct {
	registry         *prometheus.Registry
	Requests         *prometheus.CounterVec
	CompressionInput prometheus.Counter
	CompressionSaved prometheus.Counter
}

// NewMetrics constructs a registry with the gateway collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edgee_mock_requests_total",
		Help: "Chat completion requests by response status",
	}, []string{"status"})

	input := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "edgee_mock_compression_input_tokens_total",
		Help: "User-message tokens seen by compression",
	})

	saved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "edgee_mock_compression_saved_tokens_total",
		Help: "Tokens removed by compression",
	})

	reg.MustRegister(reqs, input, saved)

	return &Metrics{
		registry:         reg,
		Requests:         reqs,
		CompressionInput: input,
		CompressionSaved: saved,
	}
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
