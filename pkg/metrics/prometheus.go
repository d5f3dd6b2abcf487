package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus metrics for the candle pipeline.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	upstreamRetries  *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	fetchLatency     *prometheus.HistogramVec
	candlesServed    *prometheus.CounterVec
	lastClose        *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		upstreamRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_upstream_requests_total",
				Help: "Total number of requests sent to the upstream klines endpoint",
			},
			[]string{"symbol", "status"},
		),
		upstreamRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_upstream_retries_total",
				Help: "Total number of upstream retry attempts",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_errors_total",
				Help: "Total number of pipeline errors by kind",
			},
			[]string{"kind"},
		),
		fetchLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlepull_upstream_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"symbol"},
		),
		candlesServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_candles_served_total",
				Help: "Total number of normalized candles served to clients",
			},
			[]string{"symbol", "interval"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "candlepull_last_close_price",
				Help: "Close price of the most recent candle served",
			},
			[]string{"symbol"},
		),
	}
}

// UpstreamRequest records one upstream HTTP attempt with its outcome.
func (r *Recorder) UpstreamRequest(symbol, status string) {
	r.upstreamRequests.WithLabelValues(symbol, status).Inc()
}

// UpstreamRetry records one retry attempt for symbol.
func (r *Recorder) UpstreamRetry(symbol string) {
	r.upstreamRetries.WithLabelValues(symbol).Inc()
}

// PipelineError records an error by kind (unavailable, malformed, invalid_row, ...).
func (r *Recorder) PipelineError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// FetchLatency records the duration of a whole fetch call including retries.
func (r *Recorder) FetchLatency(symbol string, d time.Duration) {
	r.fetchLatency.WithLabelValues(symbol).Observe(d.Seconds())
}

// CandlesServed records how many candles went out in one response.
func (r *Recorder) CandlesServed(symbol, interval string, n int) {
	r.candlesServed.WithLabelValues(symbol, interval).Add(float64(n))
}

// LastClose records the close price of the latest candle.
func (r *Recorder) LastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}
