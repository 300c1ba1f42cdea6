package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/kentavv/ms670x/internal/frame"
	"github.com/kentavv/ms670x/internal/payload"
	"github.com/kentavv/ms670x/internal/stream"
)

func TestMeterObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMeter(reg)

	m.Observe(stream.Result{
		Kind: stream.EventRecord,
		Record: payload.Record{
			Source:   frame.KindLive,
			Decibels: 517,
			Flags:    payload.StatusFlags{Weighting: payload.WeightingA, UnknownBits: 0x80},
		},
	})
	m.Observe(stream.Result{
		Kind: stream.EventDecodeFailure,
		Err:  &payload.DecodeError{Err: payload.ErrInvalidTimestamp},
	})
	m.Observe(stream.Result{Kind: stream.EventTimeout})
	m.Observe(stream.Result{Kind: stream.EventTimeout})

	require.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("record")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("timeout")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors.WithLabelValues("timestamp")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.UnknownBits))
	require.InDelta(t, 51.7, testutil.ToFloat64(m.Level.WithLabelValues("live", "A")), 1e-9)
}

func TestHandlerServesMeter(t *testing.T) {
	reg := NewRegistry()
	m := NewMeter(reg)
	m.Observe(stream.Result{Kind: stream.EventEndOfDump})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `ms670x_events_total{event="end_of_dump"} 1`))
	require.True(t, strings.Contains(body, "go_goroutines"))
}
