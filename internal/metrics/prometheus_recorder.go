package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	generateDuration prom.Histogram
	generateResults  *prom.CounterVec
	watchTriggers    *prom.CounterVec
	treeFiles        prom.Gauge
	treeDirs         prom.Gauge
	treeComponents   prom.Gauge
}

// NewPrometheusRecorder constructs and registers generation metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		generateDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "wixpack",
			Name:      "generate_duration_seconds",
			Help:      "Total manifest generation duration",
			Buckets:   prom.DefBuckets,
		}),
		generateResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wixpack",
			Name:      "generate_results_total",
			Help:      "Generation outcomes by result",
		}, []string{"result"}),
		watchTriggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wixpack",
			Name:      "watch_triggers_total",
			Help:      "Regenerations by trigger source",
		}, []string{"trigger"}),
		treeFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "wixpack",
			Name:      "tree_files",
			Help:      "Files in the last generated manifest",
		}),
		treeDirs: prom.NewGauge(prom.GaugeOpts{
			Namespace: "wixpack",
			Name:      "tree_directories",
			Help:      "Directories in the last generated manifest",
		}),
		treeComponents: prom.NewGauge(prom.GaugeOpts{
			Namespace: "wixpack",
			Name:      "tree_components",
			Help:      "Components in the last generated manifest",
		}),
	}
	reg.MustRegister(pr.generateDuration, pr.generateResults, pr.watchTriggers,
		pr.treeFiles, pr.treeDirs, pr.treeComponents)
	return pr
}

func (p *PrometheusRecorder) ObserveGenerateDuration(d time.Duration) {
	if p == nil || p.generateDuration == nil {
		return
	}
	p.generateDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncGenerateResult(result ResultLabel) {
	if p == nil || p.generateResults == nil {
		return
	}
	p.generateResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncWatchTrigger(trigger TriggerLabel) {
	if p == nil || p.watchTriggers == nil {
		return
	}
	p.watchTriggers.WithLabelValues(string(trigger)).Inc()
}

func (p *PrometheusRecorder) SetTreeSize(files, dirs, components int) {
	if p == nil || p.treeFiles == nil {
		return
	}
	p.treeFiles.Set(float64(files))
	p.treeDirs.Set(float64(dirs))
	p.treeComponents.Set(float64(components))
}

// HTTPHandler serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
