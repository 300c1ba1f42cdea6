package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/kentavv/ms670x/internal/frame"
	"github.com/kentavv/ms670x/internal/payload"
)

var (
	// 51.7 dB, A weighting bit set, slow, 2016-07-03 19:01:12.
	bodyOK = []byte{0x0C, 0, 5, 1, 7, 1, 6, 0, 7, 4, 3, 1, 9, 0, 1, 1, 2}
	// month 13
	bodyBadDate = []byte{0x0C, 0, 5, 1, 7, 1, 6, 1, 3, 4, 3, 1, 9, 0, 1, 1, 2}
	// bit 7 set in the status byte
	bodyUnknownBits = []byte{0x88, 0, 6, 0, 0, 1, 6, 0, 7, 4, 3, 1, 9, 0, 1, 1, 3}
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "read timeout" }
func (timeoutErr) Timeout() bool { return true }

// chunkReader serves one chunk per Read call; a nil chunk is a timeout.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	ch := c.chunks[0]
	if ch == nil {
		c.chunks = c.chunks[1:]
		return 0, timeoutErr{}
	}
	n := copy(p, ch)
	if n == len(ch) {
		c.chunks = c.chunks[1:]
	} else {
		c.chunks[0] = ch[n:]
	}
	return n, nil
}

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func nullLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func collect(t *testing.T, r *Reader) []Result {
	t.Helper()
	var out []Result
	for {
		res, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, res)
	}
}

func kinds(results []Result) []EventKind {
	out := make([]EventKind, len(results))
	for i, r := range results {
		out[i] = r.Kind
	}
	return out
}

func TestReaderStream(t *testing.T) {
	data := join(
		[]byte{0x01, 200},
		[]byte{161}, bodyOK,
		[]byte{0x05, 200},
		[]byte{129}, bodyBadDate,
		[]byte{129}, bodyOK,
		[]byte{144, 141},
	)
	r := NewReader(NewIOSource(bytes.NewReader(data)), WithLogger(nullLogger()))
	results := collect(t, r)

	require.Equal(t, []EventKind{
		EventUnknownMarker,
		EventRecord,
		EventUnknownMarker,
		EventDecodeFailure,
		EventRecord,
		EventEndOfDump,
		EventEndOfDumpUnconfirmed,
	}, kinds(results))

	require.True(t, results[0].BeforeSync)
	require.False(t, results[2].BeforeSync)
	require.Equal(t, byte(200), results[2].Marker)

	live := results[1].Record
	require.Equal(t, frame.KindLive, live.Source)
	require.Equal(t, "51.7", live.Decibels.String())
	require.Equal(t, payload.WeightingA, live.Flags.Weighting)
	require.Equal(t, payload.ResponseSlow, live.Flags.Response)
	require.Equal(t, frame.Range{Low: 40, High: 90}, live.Range)
	require.Equal(t, time.Date(2016, time.July, 3, 19, 1, 12, 0, time.UTC), live.Timestamp)
	require.Equal(t, bodyOK, results[1].Payload)

	require.ErrorIs(t, results[3].Err, payload.ErrInvalidTimestamp)
	require.Equal(t, frame.KindPreRecorded, results[3].Frame)

	pre := results[4].Record
	require.Equal(t, frame.KindPreRecorded, pre.Source)
	require.Equal(t, payload.WeightingC, pre.Flags.Weighting)

	require.Equal(t, frame.EndMarker, results[5].Marker)
	require.Equal(t, frame.EndMarkerUnconfirmed, results[6].Marker)
	require.Equal(t, frame.AwaitingSync, r.State())
}

func TestReaderShortReadResyncs(t *testing.T) {
	src := &chunkReader{chunks: [][]byte{
		{161},
		bodyOK[:5],
		nil,
		join([]byte{0x02, 162}, bodyOK),
	}}
	r := NewReader(NewIOSource(src), WithLogger(nullLogger()))
	results := collect(t, r)

	require.Equal(t, []EventKind{EventShortRead, EventRecord}, kinds(results))
	require.ErrorIs(t, results[0].Err, ErrShortRead)
	require.Len(t, results[0].Payload, 5)
	require.Equal(t, frame.KindLive, results[0].Frame)
	require.Equal(t, frame.Range{Low: 50, High: 100}, results[1].Record.Range)
}

func TestReaderShortReadAtEOF(t *testing.T) {
	data := join([]byte{130}, bodyOK[:10])
	r := NewReader(NewIOSource(bytes.NewReader(data)), WithLogger(nullLogger()))
	results := collect(t, r)
	require.Equal(t, []EventKind{EventShortRead}, kinds(results))
	require.Equal(t, frame.AwaitingSync, r.State())
}

func TestReaderTimeoutWhileAwaitingSync(t *testing.T) {
	src := &chunkReader{chunks: [][]byte{nil, nil, {160}, bodyOK}}
	r := NewReader(NewIOSource(src), WithLogger(nullLogger()))
	results := collect(t, r)
	require.Equal(t, []EventKind{EventTimeout, EventTimeout, EventRecord}, kinds(results))
	require.True(t, results[0].Advisory())
	require.False(t, results[2].Advisory())
}

func TestReaderUnknownStatusBitsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	data := join([]byte{160}, bodyUnknownBits)
	r := NewReader(NewIOSource(bytes.NewReader(data)), WithLogger(logger))
	results := collect(t, r)

	require.Len(t, results, 1)
	require.Equal(t, EventRecord, results[0].Kind)
	require.Equal(t, byte(0x80), results[0].Record.Flags.UnknownBits)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.WarnLevel, entry.Level)
	require.Equal(t, "0b10000000", entry.Data["unknown_bits"])
}

type countingObserver struct {
	seen map[EventKind]int
}

func (c *countingObserver) Observe(res Result) { c.seen[res.Kind]++ }

func TestReaderObserverAndRun(t *testing.T) {
	data := join([]byte{160}, bodyOK, []byte{133}, bodyBadDate, []byte{144})
	obs := &countingObserver{seen: map[EventKind]int{}}
	r := NewReader(NewIOSource(bytes.NewReader(data)), WithLogger(nullLogger()), WithObserver(obs))

	out := make(chan Result, 8)
	require.NoError(t, r.Run(context.Background(), out))
	close(out)

	var got []EventKind
	for res := range out {
		got = append(got, res.Kind)
	}
	require.Equal(t, []EventKind{EventRecord, EventDecodeFailure, EventEndOfDump}, got)
	require.Equal(t, 1, obs.seen[EventRecord])
	require.Equal(t, 1, obs.seen[EventDecodeFailure])
	require.Equal(t, 1, obs.seen[EventEndOfDump])
}

func TestReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReader(NewIOSource(bytes.NewReader(join([]byte{160}, bodyOK))), WithLogger(nullLogger()))
	_, err := r.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)

	res, err := r.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, EventRecord, res.Kind)
}

func TestIsTimeout(t *testing.T) {
	require.True(t, IsTimeout(timeoutErr{}))
	require.False(t, IsTimeout(io.ErrNoProgress))
	require.False(t, IsTimeout(io.EOF))
}
