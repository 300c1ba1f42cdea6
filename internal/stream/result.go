package stream

import (
	"errors"
	"fmt"

	"github.com/kentavv/ms670x/internal/frame"
	"github.com/kentavv/ms670x/internal/payload"
)

// ErrShortRead is wrapped by the error of an EventShortRead result.
var ErrShortRead = errors.New("incomplete read from device")

// EventKind tells what a Result carries.
type EventKind uint8

const (
	// EventRecord carries a decoded measurement.
	EventRecord EventKind = iota
	// EventDecodeFailure carries a payload that could not be decoded.
	EventDecodeFailure
	// EventEndOfDump marks the end of a pre-recorded dump.
	EventEndOfDump
	// EventEndOfDumpUnconfirmed is the unverified 141 end marker.
	EventEndOfDumpUnconfirmed
	// EventUnknownMarker is a byte with bit 7 set that is not a known marker.
	EventUnknownMarker
	// EventShortRead is a payload that arrived incomplete.
	EventShortRead
	// EventTimeout means no byte arrived while awaiting sync.
	EventTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventRecord:
		return "record"
	case EventDecodeFailure:
		return "decode_failure"
	case EventEndOfDump:
		return "end_of_dump"
	case EventEndOfDumpUnconfirmed:
		return "end_of_dump_unconfirmed"
	case EventUnknownMarker:
		return "unknown_marker"
	case EventShortRead:
		return "short_read"
	case EventTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// MarshalText renders the event name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is one event produced by the Reader, in arrival order.
type Result struct {
	Kind   EventKind
	Record payload.Record
	Err    error

	// Frame and Marker describe the marker that produced the event.
	Frame  frame.Kind
	Marker byte
	// Payload holds the raw body for records, decode failures and short reads.
	Payload []byte
	// BeforeSync is set on unknown markers seen before the first frame,
	// when the stream was likely joined mid-payload.
	BeforeSync bool
}

// Advisory reports whether the event is informational only: everything
// except records and decode failures.
func (r Result) Advisory() bool {
	return r.Kind != EventRecord && r.Kind != EventDecodeFailure
}
