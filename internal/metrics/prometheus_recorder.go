package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "dotrewrite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	jobDuration    prom.Histogram
	jobOutcome     *prom.CounterVec
	entries        *prom.CounterVec
	contentBytes   *prom.CounterVec
	downloads      *prom.CounterVec
	notifyFailures prom.Counter
	lastSwept      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		jobDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of archive transformation jobs",
			Buckets:   prom.DefBuckets,
		}),
		jobOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "job_outcomes_total",
			Help:      "Archive jobs by final status",
		}, []string{"outcome"}),
		entries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Archive entries processed by kind",
		}, []string{"kind"}),
		contentBytes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_bytes_total",
			Help:      "Entry content bytes read and written",
		}, []string{"direction"}),
		downloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Artifact download attempts by result",
		}, []string{"result"}),
		notifyFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Job events that could not be published",
		}),
		lastSwept: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifacts_swept_last_run",
			Help:      "Expired artifacts removed by the most recent cleanup sweep",
		}),
	}
	reg.MustRegister(pr.jobDuration, pr.jobOutcome, pr.entries, pr.contentBytes, pr.downloads, pr.notifyFailures, pr.lastSwept)
	return pr
}

func (p *PrometheusRecorder) ObserveJobDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.jobDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.jobOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncEntry(kind string) {
	if p == nil {
		return
	}
	p.entries.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) AddContentBytes(dir Direction, n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.contentBytes.WithLabelValues(string(dir)).Add(float64(n))
}

func (p *PrometheusRecorder) IncDownload(result DownloadLabel) {
	if p == nil {
		return
	}
	p.downloads.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncNotifyFailure() {
	if p == nil {
		return
	}
	p.notifyFailures.Inc()
}

func (p *PrometheusRecorder) SetArtifactsSwept(n int) {
	if p == nil {
		return
	}
	p.lastSwept.Set(float64(n))
}
