package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kentavv/ms670x/internal/frame"
	"github.com/kentavv/ms670x/internal/payload"
)

// Observer sees every event the Reader emits.
type Observer interface {
	Observe(Result)
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger routes advisory logging to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reader) { r.log = l }
}

// WithObserver registers o for every emitted event.
func WithObserver(o Observer) Option {
	return func(r *Reader) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// Reader drives the synchronizer and payload decoder over a Source. A
// Reader owns its framing state and must not be shared between goroutines.
type Reader struct {
	src       Source
	sync      *frame.Synchronizer
	log       logrus.FieldLogger
	observers []Observer
	buf       [frame.PayloadSize]byte
}

// NewReader returns a Reader awaiting sync on src.
func NewReader(src Source, opts ...Option) *Reader {
	r := &Reader{
		src:  src,
		sync: frame.NewSynchronizer(),
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the framing state, for diagnostics.
func (r *Reader) State() frame.State { return r.sync.State() }

// Next returns the next event. Only source errors (io.EOF included) and
// context cancellation are returned as errors; protocol and decode problems
// are events. After an error the Reader is awaiting sync and may be resumed.
func (r *Reader) Next(ctx context.Context) (Result, error) {
	for {
		if p, ok := r.sync.Pending(); ok {
			return r.readPayload(ctx, p)
		}
		b, ok, err := r.src.NextByte(ctx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return r.emit(Result{Kind: EventTimeout}), nil
		}
		joined := r.sync.Joined()
		res := r.sync.Feed(b)
		switch res.Kind {
		case frame.NeedMore, frame.Frame:
			continue
		case frame.End:
			return r.emit(Result{Kind: EventEndOfDump, Frame: res.Frame, Marker: b}), nil
		case frame.EndUnconfirmed:
			return r.emit(Result{Kind: EventEndOfDumpUnconfirmed, Frame: res.Frame, Marker: b}), nil
		default:
			return r.emit(Result{Kind: EventUnknownMarker, Marker: b, BeforeSync: !joined}), nil
		}
	}
}

func (r *Reader) readPayload(ctx context.Context, p frame.Pending) (Result, error) {
	n, err := r.src.ReadPayload(ctx, r.buf[:])
	if n < frame.PayloadSize {
		r.sync.Reset()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		short := fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, frame.PayloadSize)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			short = fmt.Errorf("%w: %v", short, err)
		}
		return r.emit(Result{
			Kind:    EventShortRead,
			Err:     short,
			Frame:   p.Kind,
			Marker:  p.Marker,
			Payload: append([]byte(nil), r.buf[:n]...),
		}), nil
	}
	r.sync.Complete()

	res := Result{
		Frame:   p.Kind,
		Marker:  p.Marker,
		Payload: append([]byte(nil), r.buf[:]...),
	}
	rec, err := payload.Decode(r.buf, p.Kind, p.Range)
	if err != nil {
		res.Kind = EventDecodeFailure
		res.Err = err
		return r.emit(res), nil
	}
	res.Kind = EventRecord
	res.Record = rec
	return r.emit(res), nil
}

// Run pumps events into out until the source ends or ctx is cancelled.
// io.EOF ends the run cleanly.
func (r *Reader) Run(ctx context.Context, out chan<- Result) error {
	for {
		res, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		select {
		case out <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Reader) emit(res Result) Result {
	r.logEvent(res)
	for _, o := range r.observers {
		o.Observe(res)
	}
	return res
}

func (r *Reader) logEvent(res Result) {
	entry := r.log.WithField("event", res.Kind.String())
	switch res.Kind {
	case EventRecord:
		if res.Record.Flags.HasUnknownBits() {
			entry.WithField("unknown_bits", fmt.Sprintf("%#08b", res.Record.Flags.UnknownBits)).
				Warn("status byte has unknown bits set")
		}
	case EventDecodeFailure:
		entry.WithError(res.Err).WithField("marker", res.Marker).Warn("discarding undecodable payload")
	case EventEndOfDump:
		entry.Info("done reading pre-recorded measurements")
	case EventEndOfDumpUnconfirmed:
		entry.WithField("marker", res.Marker).Warn("unconfirmed end-of-dump marker")
	case EventUnknownMarker:
		e := entry.WithField("marker", res.Marker)
		if res.BeforeSync {
			e.Debug("skipping marker-like byte before first frame")
			return
		}
		e.Warn("unknown start-end flag")
	case EventShortRead:
		entry.WithError(res.Err).Warn("resyncing after short read")
	case EventTimeout:
		entry.Debug("no data from device")
	}
}
