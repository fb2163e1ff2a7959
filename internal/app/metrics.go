package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chrysalis-build/chrysalis/internal/build"
)

// Metrics mirrors build.Stats as a set of Prometheus gauges. Registration
// is opt-in via NewMetrics so library callers never trip a global-registry
// side effect just by importing this package.
type Metrics struct {
	filesTotal    prometheus.Gauge
	filesMinified prometheus.Gauge
	filesHashed   prometheus.Gauge
	filesChunked  prometheus.Gauge
	chunksTotal   prometheus.Gauge
	bytesSaved    prometheus.Gauge
}

// NewMetrics constructs and registers the chrysalis_* gauges against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		filesTotal:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "chrysalis_files_total", Help: "Files seen by the most recent build."}),
		filesMinified: prometheus.NewGauge(prometheus.GaugeOpts{Name: "chrysalis_files_minified", Help: "Files minified by the most recent build."}),
		filesHashed:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "chrysalis_files_hashed", Help: "Files renamed with a content hash by the most recent build."}),
		filesChunked:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "chrysalis_files_chunked", Help: "Files split into chunks by the most recent build."}),
		chunksTotal:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "chrysalis_chunks_total", Help: "Total chunk files written by the most recent build."}),
		bytesSaved:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "chrysalis_bytes_saved", Help: "Bytes removed by minification in the most recent build."}),
	}
	reg.MustRegister(m.filesTotal, m.filesMinified, m.filesHashed, m.filesChunked, m.chunksTotal, m.bytesSaved)
	return m
}

// Observe copies stats into the registered gauges.
func (m *Metrics) Observe(stats *build.Stats) {
	m.filesTotal.Set(float64(stats.TotalFiles))
	m.filesMinified.Set(float64(stats.MinifiedFiles))
	m.filesHashed.Set(float64(stats.HashedFiles))
	m.filesChunked.Set(float64(stats.ChunkedFiles))
	m.chunksTotal.Set(float64(stats.TotalChunks))
	m.bytesSaved.Set(float64(stats.BytesSaved))
}
