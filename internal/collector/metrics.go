package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// instruments holds the prometheus instrumentation for the collection
// loop. Nil when no registerer is configured.
type instruments struct {
	samplesCollected prometheus.Counter
	collectErrors    prometheus.Counter
	bufferSize       prometheus.Gauge
	cycleDuration    prometheus.Histogram
}

func newInstruments(reg prometheus.Registerer) *instruments {
	ins := &instruments{
		samplesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scadactl",
			Subsystem: "collector",
			Name:      "samples_collected_total",
			Help:      "Number of snapshots appended to the history ring.",
		}),
		collectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scadactl",
			Subsystem: "collector",
			Name:      "errors_total",
			Help:      "Number of per-point read failures and cycle failures.",
		}),
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scadactl",
			Subsystem: "collector",
			Name:      "buffer_size",
			Help:      "Number of snapshots currently retained.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scadactl",
			Subsystem: "collector",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one collection cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(ins.samplesCollected, ins.collectErrors, ins.bufferSize, ins.cycleDuration)

	return ins
}
