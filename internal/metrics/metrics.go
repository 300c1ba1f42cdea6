package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kentavv/ms670x/internal/payload"
	"github.com/kentavv/ms670x/internal/stream"
)

// NewRegistry creates a private registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Meter holds the stream counters. It implements stream.Observer.
type Meter struct {
	Events       *prometheus.CounterVec // labels: event
	DecodeErrors *prometheus.CounterVec // labels: reason
	UnknownBits  prometheus.Counter
	Level        *prometheus.GaugeVec // labels: source, weighting
}

var _ stream.Observer = (*Meter)(nil)

// NewMeter registers the stream counters on reg.
func NewMeter(reg prometheus.Registerer) *Meter {
	m := &Meter{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ms670x_events_total",
			Help: "Stream events by kind.",
		}, []string{"event"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ms670x_decode_errors_total",
			Help: "Discarded payloads by reason.",
		}, []string{"reason"}),
		UnknownBits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ms670x_unknown_status_bits_total",
			Help: "Records whose status byte had unknown bits set.",
		}),
		Level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ms670x_sound_level_db",
			Help: "Last decoded sound level in dB.",
		}, []string{"source", "weighting"}),
	}
	reg.MustRegister(m.Events, m.DecodeErrors, m.UnknownBits, m.Level)
	return m
}

// Observe implements stream.Observer.
func (m *Meter) Observe(res stream.Result) {
	m.Events.WithLabelValues(res.Kind.String()).Inc()
	switch res.Kind {
	case stream.EventRecord:
		rec := res.Record
		if rec.Flags.HasUnknownBits() {
			m.UnknownBits.Inc()
		}
		m.Level.WithLabelValues(rec.Source.String(), rec.Flags.Weighting.String()).Set(rec.Decibels.Float64())
	case stream.EventDecodeFailure:
		m.DecodeErrors.WithLabelValues(reason(res.Err)).Inc()
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, payload.ErrInvalidDigit):
		return "digit"
	case errors.Is(err, payload.ErrInvalidTimestamp):
		return "timestamp"
	case errors.Is(err, payload.ErrInvalidRange):
		return "range"
	case errors.Is(err, payload.ErrInvalidSource):
		return "source"
	default:
		return "other"
	}
}
