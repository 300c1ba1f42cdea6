package payload

import (
	"fmt"
	"time"

	"github.com/kentavv/ms670x/internal/frame"
)

// Payload layout:
//
//	[S, D, D, D, D, Y, Y, M, M, D, D, h, h, m, m, s, s]
//
// S is the status byte, every other byte is one raw decimal digit.
const (
	statusOffset  = 0
	decibelOffset = 1
	dateOffset    = 5
	clockOffset   = 11
)

// Record is one decoded measurement.
type Record struct {
	Source    frame.Kind
	Timestamp time.Time
	Decibels  Tenths
	Flags     StatusFlags
	Range     frame.Range
}

// Auto reports whether the reading was taken in auto-range mode.
func (r Record) Auto() bool {
	auto, _ := frame.RangeAuto.Range()
	return r.Range == auto
}

// Decode turns one payload into a Record. source must be KindLive or
// KindPreRecorded and code the range code carried by the frame marker.
func Decode(p [frame.PayloadSize]byte, source frame.Kind, code frame.RangeCode) (Record, error) {
	if source != frame.KindLive && source != frame.KindPreRecorded {
		return Record{}, &DecodeError{Err: ErrInvalidSource, Detail: source.String()}
	}
	if err := checkDigits(p[decibelOffset:], decibelOffset); err != nil {
		return Record{}, err
	}
	ts, err := decodeTimestamp(p[dateOffset:clockOffset], p[clockOffset:])
	if err != nil {
		return Record{}, err
	}
	rng, ok := code.Range()
	if !ok {
		return Record{}, &DecodeError{Err: ErrInvalidRange, Detail: fmt.Sprintf("code %d", code)}
	}
	return Record{
		Source:    source,
		Timestamp: ts,
		Decibels:  decodeDecibels(p[decibelOffset:dateOffset]),
		Flags:     decodeStatus(p[statusOffset], source == frame.KindPreRecorded),
		Range:     rng,
	}, nil
}

// DecodeSlice is Decode for callers holding a slice. It rejects anything
// that is not exactly one payload long.
func DecodeSlice(b []byte, source frame.Kind, code frame.RangeCode) (Record, error) {
	if len(b) != frame.PayloadSize {
		return Record{}, fmt.Errorf("payload must be %d bytes, got %d", frame.PayloadSize, len(b))
	}
	var p [frame.PayloadSize]byte
	copy(p[:], b)
	return Decode(p, source, code)
}
