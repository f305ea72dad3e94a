// Package metrics exposes the gateway's Prometheus collectors, in the
// shape of this codebase's other metrics packages: one struct built
// once with promauto at startup and passed down by reference.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "enocean2mqtt"
)

// Metrics holds every collector the controller and gateway touch.
type Metrics struct {
	CrcErrors            prometheus.Counter
	PacketsReceived       *prometheus.CounterVec
	PacketsSent           *prometheus.CounterVec
	ReceiveQueueDepth     prometheus.Gauge
	TransmitQueueDepth    prometheus.Gauge
	ProfileLookupMisses   prometheus.Counter
	CommandQueueDepth     prometheus.Gauge
	TeachInsAccepted      prometheus.Counter
	TeachInsRejected      prometheus.Counter
}

// New registers and returns the gateway's metric collectors.
func New() *Metrics {
	subsystem := "controller"
	return &Metrics{
		CrcErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "crc_errors_total",
			Help:      "Frames dropped due to header or body CRC-8 mismatch.",
		}),
		PacketsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_received_total",
			Help:      "ESP3 packets parsed off the transport, labeled by packet type.",
		}, []string{"type"}),
		PacketsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_sent_total",
			Help:      "ESP3 packets serialized onto the transport, labeled by packet type.",
		}, []string{"type"}),
		ReceiveQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "receive_queue_depth",
			Help:      "Number of decoded packets buffered for the gateway consumer.",
		}),
		TransmitQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transmit_queue_depth",
			Help:      "Number of encoded packets buffered for the transport writer.",
		}),
		ProfileLookupMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eep",
			Name:      "profile_lookup_misses_total",
			Help:      "get_profile calls that found no matching (RORG, FUNC, TYPE).",
		}),
		CommandQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "command_queue_depth",
			Help:      "Outstanding common-commands awaiting a Response packet.",
		}),
		TeachInsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "teach_ins_accepted_total",
			Help:      "UTE teach-in requests accepted.",
		}),
		TeachInsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "teach_ins_rejected_total",
			Help:      "UTE teach-in requests refused or ignored.",
		}),
	}
}

// Server serves the collector registry's /metrics endpoint over HTTP.
type Server struct {
	http *http.Server
}

// NewServer builds a metrics HTTP server bound to addr (e.g. ":9100").
// It does not start listening; call Start.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{http: &http.Server{Addr: addr, Handler: mux}}
}

// Start blocks serving metrics until the server is shut down, returning
// nil on a clean Stop rather than propagating http.ErrServerClosed.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics: server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
