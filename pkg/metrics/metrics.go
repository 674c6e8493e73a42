package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the checkout pipeline instrumentation.
type Metrics struct {
	CheckoutsTotal  *prometheus.CounterVec
	CheckoutLatency prometheus.Histogram
	StockConflicts  prometheus.Counter
}

// New registers the POS metrics on the given registerer. Tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "checkouts_total",
			Help:      "Total number of checkout attempts by outcome.",
		}, []string{"status"}),
		CheckoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pos",
			Name:      "checkout_duration_ms",
			Help:      "Checkout commit latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		StockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "stock_conflicts_total",
			Help:      "Checkouts rejected because stock would have gone negative.",
		}),
	}

	reg.MustRegister(m.CheckoutsTotal, m.CheckoutLatency, m.StockConflicts)
	return m
}

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
