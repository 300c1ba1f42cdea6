package payload

import "fmt"

// Weighting is the frequency weighting curve of a reading.
type Weighting uint8

const (
	WeightingC Weighting = iota
	WeightingA
)

func (w Weighting) String() string {
	switch w {
	case WeightingA:
		return "A"
	case WeightingC:
		return "C"
	default:
		return fmt.Sprintf("weighting(%d)", uint8(w))
	}
}

// MarshalText renders the weighting label.
func (w Weighting) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// Response is the time weighting of a reading.
type Response uint8

const (
	ResponseFast Response = iota // 125 ms
	ResponseSlow                 // 1 s
)

func (r Response) String() string {
	switch r {
	case ResponseFast:
		return "fast(125ms)"
	case ResponseSlow:
		return "slow(1s)"
	default:
		return fmt.Sprintf("response(%d)", uint8(r))
	}
}

// MarshalText renders the response label.
func (r Response) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Status byte layout.
const (
	bitOverRange  = 1 << 0
	bitUnderRange = 1 << 1
	bitSlow       = 1 << 2
	bitWeightingA = 1 << 3
	bitMemoryFull = 1 << 4
	bitMaxEnabled = 1 << 5
	bitLowBattery = 1 << 6

	knownBits = 0x7F
)

// StatusFlags is the decoded first payload byte.
type StatusFlags struct {
	LowBattery  bool      `json:"low_battery"`
	MaxEnabled  bool      `json:"max_enabled"`
	MemoryFull  bool      `json:"memory_full"`
	Weighting   Weighting `json:"weighting"`
	Response    Response  `json:"response"`
	UnderRange  bool      `json:"under_range"`
	OverRange   bool      `json:"over_range"`
	UnknownBits byte      `json:"unknown_bits,omitempty"`
}

// HasUnknownBits reports whether the meter set bits with no known meaning.
func (f StatusFlags) HasUnknownBits() bool { return f.UnknownBits != 0 }

// decodeStatus decodes the status byte. Pre-recorded frames report the
// weighting bit inverted, so invertWeighting flips it before mapping.
func decodeStatus(b byte, invertWeighting bool) StatusFlags {
	weightingA := b&bitWeightingA != 0
	if invertWeighting {
		weightingA = !weightingA
	}
	f := StatusFlags{
		LowBattery:  b&bitLowBattery != 0,
		MaxEnabled:  b&bitMaxEnabled != 0,
		MemoryFull:  b&bitMemoryFull != 0,
		Weighting:   WeightingC,
		Response:    ResponseFast,
		UnderRange:  b&bitUnderRange != 0,
		OverRange:   b&bitOverRange != 0,
		UnknownBits: b &^ knownBits,
	}
	if weightingA {
		f.Weighting = WeightingA
	}
	if b&bitSlow != 0 {
		f.Response = ResponseSlow
	}
	return f
}
