// Package metrics exposes Prometheus instrumentation for the capture
// pipeline. Counters are fed from the event bus so the acquisition loop
// stays free of instrumentation calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/framegrab/internal/events"
)

// Pipeline holds the capture pipeline metrics on a private registry.
type Pipeline struct {
	registry *prometheus.Registry

	FramesCaptured prometheus.Counter
	FramesSkipped  *prometheus.CounterVec
	CaptureErrors  prometheus.Counter
	BytesWritten   prometheus.Counter
	ProcessSeconds prometheus.Histogram
}

// NewPipeline creates the pipeline metric set.
func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		FramesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framegrab_frames_captured_total",
			Help: "Frames converted and persisted to disk.",
		}),
		FramesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framegrab_frames_skipped_total",
			Help: "Capture cycles that produced no frame, by reason.",
		}, []string{"reason"}),
		CaptureErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framegrab_capture_errors_total",
			Help: "Fatal acquisition errors.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framegrab_bytes_written_total",
			Help: "RGB payload bytes persisted to frame files.",
		}),
		ProcessSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "framegrab_frame_process_seconds",
			Help:    "Time spent converting and persisting one frame.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	p.registry.MustRegister(p.FramesCaptured, p.FramesSkipped, p.CaptureErrors, p.BytesWritten, p.ProcessSeconds)
	return p
}

// Bind subscribes the metric set to the event bus. Returns an
// unsubscribe function releasing all subscriptions.
func (p *Pipeline) Bind(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.FrameCapturedEvent) {
			p.FramesCaptured.Inc()
			p.BytesWritten.Add(float64(e.Bytes))
			p.ProcessSeconds.Observe(e.Elapsed.Seconds())
		}),
		bus.Subscribe(func(e events.FrameSkippedEvent) {
			p.FramesSkipped.WithLabelValues(e.Reason).Inc()
		}),
		bus.Subscribe(func(e events.CaptureErrorEvent) {
			p.CaptureErrors.Inc()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}
