package frame

import "fmt"

// Kind identifies what a marker byte announces.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindLive
	KindPreRecorded
	KindEndOfPreRecorded
)

func (k Kind) String() string {
	switch k {
	case KindLive:
		return "live"
	case KindPreRecorded:
		return "pre-recorded"
	case KindEndOfPreRecorded:
		return "end-of-pre-recorded"
	default:
		return "unknown"
	}
}

// Marker byte layout. Bit 7 flags a marker, bit 5 a live reading and the
// low three bits carry the range code.
const (
	markerBit     = 0x80
	liveBit       = 0x20
	preRecordedLo = 128
	preRecordedHi = 134
	liveLo        = preRecordedLo + liveBit
	liveHi        = preRecordedHi + liveBit

	// EndMarker closes a pre-recorded dump.
	EndMarker byte = 144
	// EndMarkerUnconfirmed was seen once in place of EndMarker and never
	// reproduced.
	EndMarkerUnconfirmed byte = 141
)

// RangeCode selects one of the meter's measurement ranges.
type RangeCode uint8

// RangeAuto is the 30-130 dB auto-range mode.
const RangeAuto RangeCode = 6

// Range is an inclusive decibel span.
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Low, r.High)
}

var rangeTable = [...]Range{
	{30, 80},
	{40, 90},
	{50, 100},
	{60, 110},
	{70, 120},
	{80, 130},
	{30, 130},
}

// Range resolves the code. Codes outside the table report false.
func (c RangeCode) Range() (Range, bool) {
	if int(c) >= len(rangeTable) {
		return Range{}, false
	}
	return rangeTable[c], true
}

// Auto reports whether the code selects auto-ranging.
func (c RangeCode) Auto() bool { return c == RangeAuto }

// SyncKind classifies a single byte seen while awaiting sync.
type SyncKind uint8

const (
	// NeedMore means the byte is not a marker and was discarded.
	NeedMore SyncKind = iota
	// Frame means a 17-byte payload follows.
	Frame
	// End means a pre-recorded dump finished.
	End
	// EndUnconfirmed is the unverified 141 end marker.
	EndUnconfirmed
	// UnknownMarker means bit 7 was set but the byte is not recognised.
	UnknownMarker
)

func (k SyncKind) String() string {
	switch k {
	case NeedMore:
		return "need_more"
	case Frame:
		return "frame"
	case End:
		return "end"
	case EndUnconfirmed:
		return "end_unconfirmed"
	case UnknownMarker:
		return "unknown_marker"
	default:
		return fmt.Sprintf("sync(%d)", uint8(k))
	}
}

// SyncResult is the outcome of Classify.
type SyncResult struct {
	Kind   SyncKind
	Frame  Kind
	Range  RangeCode
	Marker byte
}

// Classify decodes one byte. It never fails; unexpected bytes surface as
// UnknownMarker.
func Classify(b byte) SyncResult {
	res := SyncResult{Marker: b}
	switch {
	case b&markerBit == 0:
		res.Kind = NeedMore
	case b >= liveLo && b <= liveHi:
		res.Kind = Frame
		res.Frame = KindLive
		res.Range = RangeCode(b - liveLo)
	case b >= preRecordedLo && b <= preRecordedHi:
		res.Kind = Frame
		res.Frame = KindPreRecorded
		res.Range = RangeCode(b - preRecordedLo)
	case b == EndMarker:
		res.Kind = End
		res.Frame = KindEndOfPreRecorded
	case b == EndMarkerUnconfirmed:
		res.Kind = EndUnconfirmed
		res.Frame = KindEndOfPreRecorded
	default:
		res.Kind = UnknownMarker
	}
	return res
}

// Marker encodes a frame kind and range code back into its marker byte.
// Used by tests and capture tooling.
func Marker(kind Kind, code RangeCode) (byte, error) {
	if _, ok := code.Range(); !ok {
		return 0, fmt.Errorf("range code %d out of table", code)
	}
	switch kind {
	case KindLive:
		return liveLo + byte(code), nil
	case KindPreRecorded:
		return preRecordedLo + byte(code), nil
	case KindEndOfPreRecorded:
		return EndMarker, nil
	default:
		return 0, fmt.Errorf("no marker for frame kind %s", kind)
	}
}
