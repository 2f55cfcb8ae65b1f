package metrics

import (
	"net/http"

	"vigilo/src/modules/certificate"
	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/monitor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink records per-monitor gauges. It is safe for concurrent use; the
// prometheus client serializes updates internally.
type Sink struct {
	status       *prometheus.GaugeVec
	responseTime *prometheus.GaugeVec
	certDaysLeft *prometheus.GaugeVec
	registry     *prometheus.Registry
}

func NewSink() *Sink {
	s := &Sink{
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "monitor_status",
			Help: "Monitor status (0=down, 1=up, 2=pending, 3=maintenance)",
		}, []string{"monitor_id", "monitor_name", "monitor_type"}),
		responseTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "monitor_response_time_ms",
			Help: "Last probe latency in milliseconds (-1 when unknown)",
		}, []string{"monitor_id", "monitor_name", "monitor_type"}),
		certDaysLeft: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "monitor_cert_days_remaining",
			Help: "Days until the leaf certificate expires",
		}, []string{"monitor_id", "monitor_name"}),
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(s.status, s.responseTime, s.certDaysLeft)
	return s
}

// Update records the outcome of one beat.
func (s *Sink) Update(m *monitor.Model, hb *heartbeat.Model, tlsInfo *certificate.TLSInfo) {
	s.status.WithLabelValues(m.ID, m.Name, m.Type).Set(float64(hb.Status))

	ping := -1.0
	if hb.Ping != nil {
		ping = float64(*hb.Ping)
	}
	s.responseTime.WithLabelValues(m.ID, m.Name, m.Type).Set(ping)

	if tlsInfo != nil && tlsInfo.CertInfo != nil {
		s.certDaysLeft.WithLabelValues(m.ID, m.Name).Set(float64(tlsInfo.CertInfo.DaysRemaining))
	}
}

// Remove drops all series of a deleted monitor.
func (s *Sink) Remove(m *monitor.Model) {
	s.status.DeletePartialMatch(prometheus.Labels{"monitor_id": m.ID})
	s.responseTime.DeletePartialMatch(prometheus.Labels{"monitor_id": m.ID})
	s.certDaysLeft.DeletePartialMatch(prometheus.Labels{"monitor_id": m.ID})
}

// Handler serves the scrape endpoint.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
