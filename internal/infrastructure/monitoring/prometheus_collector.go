package monitoring

import (
	"time"

	"srtalert/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.AlertMetrics
type PrometheusCollector struct {
	// Stream
	streamBitrate prometheus.Gauge
	streamRTT     prometheus.Gauge
	streamActive  prometheus.Gauge
	fetchDuration *prometheus.HistogramVec

	// Connections
	connectionUp      *prometheus.GaugeVec
	reconnectAttempts *prometheus.CounterVec

	// Alerts
	warningsRaised     prometheus.Counter
	warningsSuppressed prometheus.Counter
	warningActive      prometheus.Gauge
	gracePhase         *prometheus.GaugeVec
	overlayErrors      *prometheus.CounterVec
}

var gracePhases = []string{"idle", "grace", "steady"}

// NewPrometheusCollector registers the collector's metrics with reg
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		streamBitrate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "srtalert_stream_bitrate_kbps",
			Help: "Last observed publisher bitrate in kbps",
		}),

		streamRTT: factory.NewGauge(prometheus.GaugeOpts{
			Name: "srtalert_stream_rtt_ms",
			Help: "Last observed publisher round-trip time in milliseconds",
		}),

		streamActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "srtalert_stream_active",
			Help: "1 while the publisher has an active stream",
		}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "srtalert_stats_fetch_duration_seconds",
			Help:    "Duration of stats endpoint requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"result"}),

		connectionUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "srtalert_connection_up",
			Help: "1 while the dependency is reachable",
		}, []string{"target"}),

		reconnectAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "srtalert_reconnect_attempts_total",
			Help: "Failed connection attempts per dependency",
		}, []string{"target"}),

		warningsRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "srtalert_warnings_raised_total",
			Help: "Warnings shown on the overlay",
		}),

		warningsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "srtalert_warnings_suppressed_total",
			Help: "Threshold violations dropped by cooldown or an active warning",
		}),

		warningActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "srtalert_warning_active",
			Help: "1 while the warning overlay is shown",
		}),

		gracePhase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "srtalert_grace_phase",
			Help: "Current startup grace phase (1 for the active phase)",
		}, []string{"phase"}),

		overlayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "srtalert_overlay_errors_total",
			Help: "Failed overlay operations",
		}, []string{"operation"}),
	}
}

func (p *PrometheusCollector) ObserveSample(sample domain.Sample) {
	p.streamRTT.Set(sample.RTT)
	if sample.HasStream() {
		p.streamActive.Set(1)
		p.streamBitrate.Set(*sample.Bitrate)
		return
	}
	p.streamActive.Set(0)
	p.streamBitrate.Set(0)
}

func (p *PrometheusCollector) ObserveFetchDuration(d time.Duration, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	p.fetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *PrometheusCollector) SetConnectionUp(target string, up bool) {
	p.connectionUp.WithLabelValues(target).Set(boolToFloat(up))
}

func (p *PrometheusCollector) IncReconnectAttempt(target string) {
	p.reconnectAttempts.WithLabelValues(target).Inc()
}

func (p *PrometheusCollector) IncWarningRaised() {
	p.warningsRaised.Inc()
}

func (p *PrometheusCollector) IncWarningSuppressed() {
	p.warningsSuppressed.Inc()
}

func (p *PrometheusCollector) SetWarningActive(active bool) {
	p.warningActive.Set(boolToFloat(active))
}

func (p *PrometheusCollector) SetGracePhase(phase string) {
	for _, ph := range gracePhases {
		p.gracePhase.WithLabelValues(ph).Set(boolToFloat(ph == phase))
	}
}

func (p *PrometheusCollector) IncOverlayError(operation string) {
	p.overlayErrors.WithLabelValues(operation).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
