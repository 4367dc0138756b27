package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Iterations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bot_iterations_total", Help: "Trading iterations attempted"},
	)
	IterationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bot_iteration_failures_total", Help: "Trading iterations that failed"},
	)
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bot_orders_submitted_total", Help: "Orders submitted to the broker"},
		[]string{"side"},
	)
	MarketClosedSleeps = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bot_market_closed_sleeps_total", Help: "Sleeps taken because the market was closed"},
	)
	RetriesExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bot_retries_exhausted_total", Help: "Shutdowns caused by exhausting the retry budget"},
	)
)

func init() {
	prometheus.MustRegister(Iterations, IterationFailures, OrdersSubmitted, MarketClosedSleeps, RetriesExhausted)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
