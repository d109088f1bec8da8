package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rony4d/go-stakesim/simulator"
)

const namespace = "stakesim"

// Metrics exports run progress to prometheus, labelled by run.
type Metrics struct {
	produced *prometheus.CounterVec
	adopted  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	height   *prometheus.GaugeVec
	interval *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		produced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "produced_total",
			Help:      "Count of blocks minted, genesis included.",
		}, []string{"run"}),
		adopted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "adopted_total",
			Help:      "Count of head changes over all nodes.",
		}, []string{"run"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "rejected_total",
			Help:      "Count of received blocks dropped by fork choice.",
		}, []string{"run"}),
		height: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "head_height",
			Help:      "Highest head adopted by any node.",
		}, []string{"run"}),
		interval: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "interval_seconds",
			Help:      "Simulated time between a minted block and its parent.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"run"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "finished_total",
			Help:      "Count of finished runs by stop reason.",
		}, []string{"reason"}),
	}
}

// ForRun returns the recorder of one run.
func (m *Metrics) ForRun(run string) simulator.Recorder {
	return &runMetrics{
		m:        m,
		produced: m.produced.WithLabelValues(run),
		adopted:  m.adopted.WithLabelValues(run),
		rejected: m.rejected.WithLabelValues(run),
		height:   m.height.WithLabelValues(run),
		interval: m.interval.WithLabelValues(run),
	}
}

// RunFailed counts an aborted run.
func (m *Metrics) RunFailed() {
	m.runs.WithLabelValues("failed").Inc()
}

type runMetrics struct {
	m        *Metrics
	produced prometheus.Counter
	adopted  prometheus.Counter
	rejected prometheus.Counter
	height   prometheus.Gauge
	interval prometheus.Observer
	best     idx.Block
}

func (r *runMetrics) BlockProduced(rep simulator.Report) {
	r.produced.Inc()
	if rep.Height > 0 {
		r.interval.Observe(rep.Interval.Duration().Seconds())
	}
}

func (r *runMetrics) BlockAdopted(_ idx.ValidatorID, rep simulator.Report) {
	r.adopted.Inc()
	if rep.Height > r.best {
		r.best = rep.Height
		r.height.Set(float64(rep.Height))
	}
}

func (r *runMetrics) BlockRejected(idx.ValidatorID, simulator.Report) {
	r.rejected.Inc()
}

func (r *runMetrics) SimulationEnd(res *simulator.Result) {
	r.m.runs.WithLabelValues(string(res.Reason)).Inc()
}

// Serve exposes the registry on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
