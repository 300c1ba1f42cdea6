package stream

import (
	"context"
	"errors"
	"io"
	"os"
)

// Source supplies the meter byte stream. Reads are bounded: a source whose
// transport times out reports "no data" rather than blocking forever.
type Source interface {
	// NextByte returns one byte. ok is false when the wait timed out.
	NextByte(ctx context.Context) (b byte, ok bool, err error)
	// ReadPayload fills buf as far as the transport allows and returns the
	// number of bytes read. A count below len(buf) is a short read.
	ReadPayload(ctx context.Context, buf []byte) (int, error)
}

// IOSource adapts an io.Reader such as a serial port or a capture file.
type IOSource struct {
	r   io.Reader
	one [1]byte
}

var _ Source = (*IOSource)(nil)

// NewIOSource wraps r.
func NewIOSource(r io.Reader) *IOSource {
	return &IOSource{r: r}
}

// NextByte implements Source.
func (s *IOSource) NextByte(ctx context.Context) (byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	n, err := s.r.Read(s.one[:])
	if n == 1 {
		return s.one[0], true, nil
	}
	if err == nil || IsTimeout(err) {
		return 0, false, nil
	}
	return 0, false, err
}

// ReadPayload implements Source.
func (s *IOSource) ReadPayload(ctx context.Context, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		m, err := s.r.Read(buf[n:])
		n += m
		if err != nil {
			if IsTimeout(err) {
				return n, nil
			}
			return n, err
		}
		if m == 0 {
			return n, nil
		}
	}
	return n, nil
}

// IsTimeout reports whether err is a transport read timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
