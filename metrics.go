package spmstitch

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the optional Prometheus instrumentation for a pipeline
// run. The zero value is safe to use: every method is a no-op until
// NewMetrics registers real collectors.
type Metrics struct {
	tilesLoaded      prometheus.Counter
	tilesFailed      prometheus.Counter
	alignmentRuns    prometheus.Counter
	mosaicPixels     prometheus.Counter
	saveDuration     prometheus.Histogram
}

// NewMetrics registers a set of collectors on reg and returns a Metrics
// that reports to them. Passing a nil registry yields a no-op Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		tilesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spmstitch",
			Name:      "tiles_loaded_total",
			Help:      "Number of SPM tiles successfully decoded.",
		}),
		tilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spmstitch",
			Name:      "tiles_failed_total",
			Help:      "Number of SPM tiles that failed to decode.",
		}),
		alignmentRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spmstitch",
			Name:      "alignment_runs_total",
			Help:      "Number of pairwise tile alignments attempted.",
		}),
		mosaicPixels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spmstitch",
			Name:      "mosaic_pixels_written_total",
			Help:      "Number of canvas pixels painted by the compositor.",
		}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spmstitch",
			Name:      "save_duration_seconds",
			Help:      "Wall-clock duration of a full Save invocation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.tilesLoaded, m.tilesFailed, m.alignmentRuns, m.mosaicPixels, m.saveDuration)
	return m
}

func (m *Metrics) tileLoaded() {
	if m != nil && m.tilesLoaded != nil {
		m.tilesLoaded.Inc()
	}
}

func (m *Metrics) tileFailed() {
	if m != nil && m.tilesFailed != nil {
		m.tilesFailed.Inc()
	}
}

func (m *Metrics) alignmentRun() {
	if m != nil && m.alignmentRuns != nil {
		m.alignmentRuns.Inc()
	}
}

func (m *Metrics) pixelsWritten(n int) {
	if m != nil && m.mosaicPixels != nil {
		m.mosaicPixels.Add(float64(n))
	}
}

func (m *Metrics) observeSaveDuration(seconds float64) {
	if m != nil && m.saveDuration != nil {
		m.saveDuration.Observe(seconds)
	}
}
