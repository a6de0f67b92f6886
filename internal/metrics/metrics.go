// Package metrics exposes node counters for prometheus scraping.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/temoto/yc01-bridge/internal/network"
	"github.com/temoto/yc01-bridge/internal/tele"
	"github.com/temoto/yc01-bridge/log2"
)

const namespace = "yc01"

type Metrics struct {
	Registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	deliveryFails *prometheus.CounterVec
	logErrors     prometheus.Counter
	cycleDuration prometheus.Histogram
	networkState  prometheus.Gauge
	reading       *prometheus.GaugeVec
	readingTime   prometheus.Gauge
}

func New() *Metrics {
	self := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Acquisition cycles by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_attempts_total",
			Help:      "Sensor session attempts by result.",
		}, []string{"result"}),
		deliveryFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Dropped deliveries by sink.",
		}, []string{"sink"}),
		logErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_errors_total",
			Help:      "Errors reported into log.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Acquisition cycle duration.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		networkState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_state",
			Help:      "Connectivity state: 0 joining, 1 connected, 2 fallback hosting.",
		}),
		reading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading",
			Help:      "Last successful reading by quantity.",
		}, []string{"quantity"}),
		readingTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading_timestamp_seconds",
			Help:      "Time of last successful reading.",
		}),
	}
	self.Registry.MustRegister(
		self.cycles, self.attempts, self.deliveryFails, self.logErrors,
		self.cycleDuration, self.networkState, self.reading, self.readingTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return self
}

// ObserveCycle nil receiver is valid and does nothing, same for other observers.
func (self *Metrics) ObserveCycle(s *tele.Status, d time.Duration) {
	if self == nil {
		return
	}
	self.cycles.WithLabelValues(s.Outcome).Inc()
	self.cycleDuration.Observe(d.Seconds())
	if r := s.Reading; r != nil {
		for k, v := range r.Fields() {
			self.reading.WithLabelValues(k).Set(v)
		}
		self.reading.WithLabelValues("rssi").Set(float64(r.RSSI))
		self.readingTime.Set(float64(r.Time.UnixNano()) / 1e9)
	}
}

func (self *Metrics) ObserveAttempt(ok bool) {
	if self == nil {
		return
	}
	result := "fail"
	if ok {
		result = "ok"
	}
	self.attempts.WithLabelValues(result).Inc()
}

func (self *Metrics) ObserveDeliveryError(e *tele.DeliveryError) {
	if self == nil {
		return
	}
	self.deliveryFails.WithLabelValues(e.Sink).Inc()
}

func (self *Metrics) ObserveNetworkState(s network.State) {
	if self == nil {
		return
	}
	self.networkState.Set(float64(s))
}

// ErrorFunc is hook for log2.Log.SetErrorFunc.
func (self *Metrics) ErrorFunc() log2.ErrorFunc {
	return func(error) {
		if self != nil {
			self.logErrors.Inc()
		}
	}
}

// Serve starts http exposition on listen address, stops with ctx.
func (self *Metrics) Serve(ctx context.Context, log *log2.Log, listen string) (net.Addr, error) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, errors.Annotatef(err, "metrics listen=%s", listen)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(self.Registry, promhttp.HandlerOpts{ErrorLog: log}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics serve err=%v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Infof("metrics listen=%s", ln.Addr())
	return ln.Addr(), nil
}
