package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(connectivityUp) }

var connectivityUp = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "backend_up",
		Help: "1 when the last probe of a backend succeeded, 0 otherwise.",
	},
	[]string{"backend"}, // 'postgres', 'storage'
)

func SetBackendUp(backend string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	connectivityUp.WithLabelValues(norm(backend)).Set(v)
}
