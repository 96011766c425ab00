package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deeplink_requests_total",
			Help: "Total link requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deeplink_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "deeplink_in_flight",
		Help: "In-flight HTTP requests",
	})
	RequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deeplink_request_errors_total",
			Help: "Total errors by type",
		}, []string{"type"},
	)
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deeplink_resolutions_total",
			Help: "Resolved actions by kind and matching platform",
		}, []string{"action", "platform"},
	)
	RoutesLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "deeplink_routes_loaded",
		Help: "Paths in the active route snapshot",
	})
	SnapshotRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deeplink_snapshot_refreshes_total",
			Help: "Route snapshot rebuilds triggered by change notifications",
		}, []string{"result"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, RequestErrors, Resolutions, RoutesLoaded, SnapshotRefreshes)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
