package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	metricPrefix = "fleetsync_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	transportConnected prometheus.Gauge
	transportConnects  prometheus.Counter
	framesTotal        *prometheus.CounterVec
	framesDropped      *prometheus.CounterVec
	schemaViolations   *prometheus.CounterVec
	fetchesSent        *prometheus.CounterVec
	refreshTotal       *prometheus.CounterVec
	refreshLatency     prometheus.Histogram
	sinkWrites         *prometheus.CounterVec
)

// Init registers every collector with reg. Helpers are no-ops until Init runs.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		transportConnected = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "transport_connected",
			Help: "1 while the websocket is open",
		})
		transportConnects = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "transport_connects_total",
			Help: "Total websocket connections opened",
		})
		framesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "router_frames_total",
				Help: "Total inbound frames by target",
			},
			[]string{"target"},
		)
		framesDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "router_frames_dropped_total",
				Help: "Total inbound frames dropped by reason",
			},
			[]string{"reason"},
		)
		schemaViolations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "graph_schema_violations_total",
				Help: "Total rejected commits by entity kind",
			},
			[]string{"kind"},
		)
		fetchesSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "hydrate_fetches_total",
				Help: "Total fetch commands sent by entity kind",
			},
			[]string{"kind"},
		)
		refreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "graph_refresh_total",
				Help: "Total snapshot refreshes by result",
			},
			[]string{"result"},
		)
		refreshLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "graph_refresh_latency_seconds",
			Help:    "Snapshot refresh latency in seconds",
			Buckets: prometheus.DefBuckets,
		})
		sinkWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "publisher_writes_total",
				Help: "Total sink writes by sink and result",
			},
			[]string{"sink", "result"},
		)

		reg.MustRegister(
			transportConnected,
			transportConnects,
			framesTotal,
			framesDropped,
			schemaViolations,
			fetchesSent,
			refreshTotal,
			refreshLatency,
			sinkWrites,
		)
	})
}

func SetConnected(open bool) {
	if transportConnected == nil {
		return
	}
	if open {
		transportConnected.Set(1)
		transportConnects.Inc()
		return
	}
	transportConnected.Set(0)
}

func IncFrame(target string) {
	if target == "" {
		target = "none"
	}
	if framesTotal != nil {
		framesTotal.WithLabelValues(target).Inc()
	}
}

func IncDropped(reason string) {
	if framesDropped != nil {
		framesDropped.WithLabelValues(reason).Inc()
	}
}

func IncSchemaViolation(kind string) {
	if schemaViolations != nil {
		schemaViolations.WithLabelValues(kind).Inc()
	}
}

func IncFetch(kind string) {
	if fetchesSent != nil {
		fetchesSent.WithLabelValues(kind).Inc()
	}
}

// ObserveRefresh records snapshot refresh duration and result.
func ObserveRefresh(result string, duration time.Duration) {
	if refreshTotal != nil {
		refreshTotal.WithLabelValues(result).Inc()
	}
	if refreshLatency != nil {
		refreshLatency.Observe(duration.Seconds())
	}
}

func IncSinkWrite(sink, result string) {
	if sinkWrites != nil {
		sinkWrites.WithLabelValues(sink, result).Inc()
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
